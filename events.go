package palace

import "github.com/palacegame/palace/protocol"

// OnEvent registers a listener for engine notifications. Listeners are
// invoked after the triggering mutation has completed and the game lock has
// been released, so they may call back into the game.
func (g *Game) OnEvent(fn func(protocol.Event)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

// emit queues an event for delivery once the lock is released.
// Must be called with the lock held.
func (g *Game) emit(e protocol.Event) {
	g.pending = append(g.pending, e)
}

// unlockAndPublish releases the game lock and delivers any queued events in
// order
func (g *Game) unlockAndPublish() {
	events := g.pending
	g.pending = nil
	listeners := make([]func(protocol.Event), len(g.listeners))
	copy(listeners, g.listeners)
	g.mu.Unlock()

	for _, e := range events {
		for _, fn := range listeners {
			fn(e)
		}
	}
}
