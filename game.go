package palace

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/palacegame/palace/deck"
	"github.com/palacegame/palace/protocol"
)

// Phase represents the card group the current player must play from.
// It is recomputed from that player's cards at the start of every action
// rather than stored per player.
type Phase int

const (
	PhaseHand Phase = iota
	PhaseOpen
	PhaseClosed
)

var phaseNames = []string{"HandCards", "OpenCards", "ClosedCards"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "Unknown"
	}
	return phaseNames[p]
}

const (
	minPlayers = 2
	maxPlayers = 4

	handSize        = 3
	humanHandSize   = 6
	numOpenCards    = 3
	numHiddenCards  = 3
	defaultBotDelay = time.Second
)

var (
	ErrTooFewPlayers    = errors.New("minimum of 2 players required")
	ErrTooManyPlayers   = errors.New("maximum of 4 players allowed")
	ErrUnknownPlayer    = errors.New("player is not part of this game")
	ErrIllegalMove      = errors.New("illegal move")
	ErrEmptyDrawPile    = errors.New("draw pile is empty")
	ErrInvalidSelection = errors.New("invalid open-card selection")
	ErrNoCurrentPlayer  = errors.New("no current player")
	ErrGameOver         = errors.New("game is already over")
	ErrGameHalted       = errors.New("game halted after invariant violation")
)

// Game holds the full state of one game: the players, the shared piles and
// the turn pointer. All mutation happens under a single mutex; notifications
// to listeners are delivered after the lock is released.
type Game struct {
	mu  sync.Mutex
	log logrus.FieldLogger
	rng *rand.Rand

	deck        deck.Deck
	players     []*Player
	drawPile    []deck.Card
	discardPile []deck.Card

	currentTurnIdx int
	phase          Phase

	started       bool
	selectingOpen bool
	winner        *Player
	halted        bool

	// generation invalidates scheduled bot turns across a reset
	generation int
	botDelay   time.Duration

	listeners []func(protocol.Event)
	pending   []protocol.Event
}

// GameOpts are optional constructor arguments, mostly useful in tests
type GameOpts struct {
	Deck     deck.Deck
	BotDelay time.Duration
	RNG      *rand.Rand
	Logger   logrus.FieldLogger
}

// NewGame constructs a new game. Cards are not dealt until Start is called.
func NewGame(players []*Player, opts GameOpts) (*Game, error) {
	if len(players) < minPlayers {
		return nil, ErrTooFewPlayers
	}
	if len(players) > maxPlayers {
		return nil, ErrTooManyPlayers
	}

	g := &Game{
		deck:        opts.Deck,
		players:     players,
		drawPile:    []deck.Card{},
		discardPile: []deck.Card{},
		rng:         opts.RNG,
		botDelay:    opts.BotDelay,
		log:         opts.Logger,
	}

	if g.deck == nil {
		g.deck = deck.New()
		g.deck.Shuffle()
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if g.botDelay == 0 {
		g.botDelay = defaultBotDelay
	}
	if g.log == nil {
		g.log = logrus.StandardLogger().WithField("component", "game")
	}

	return g, nil
}

// Players returns the players in turn order
func (g *Game) Players() []*Player {
	return g.players
}

// Start deals the initial cards and opens the open-card selection window.
// Bots receive 3 hand, 3 hidden and 3 open cards; human players receive
// 6 hand and 3 hidden cards and choose their open cards via SelectOpenCard.
// Calling Start on a game that has already been dealt is a no-op.
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.unlockAndPublish()

	if g.halted {
		return ErrGameHalted
	}
	if g.started {
		return nil
	}

	for _, p := range g.players {
		if p.isBot {
			p.hand = append(p.hand, g.deck.Deal(handSize)...)
			p.hidden = append(p.hidden, g.deck.Deal(numHiddenCards)...)
			p.open = append(p.open, g.deck.Deal(numOpenCards)...)
		} else {
			p.hand = append(p.hand, g.deck.Deal(humanHandSize)...)
			p.hidden = append(p.hidden, g.deck.Deal(numHiddenCards)...)
		}
		p.sortHand()
	}

	g.drawPile = append(g.drawPile, g.deck...)
	g.deck = deck.Deck{}

	g.started = true
	g.selectingOpen = true
	g.currentTurnIdx = 0
	g.phase = PhaseHand

	g.emit(protocol.GameStarted)
	g.finalizeIfSelectionDone()
	g.emit(protocol.StateChanged)

	return nil
}

// SelectOpenCard stages one of a player's hand cards as an open card. Once
// every human player has staged 3 cards, the selections are finalized
// atomically and the main game begins.
func (g *Game) SelectOpenCard(playerID string, card deck.Card) error {
	g.mu.Lock()
	defer g.unlockAndPublish()

	p, err := g.findPlayer(playerID)
	if err != nil {
		return err
	}
	if !g.started || !g.selectingOpen || p.isBot {
		return ErrInvalidSelection
	}
	if len(p.selected) >= numOpenCards {
		return ErrInvalidSelection
	}
	if !containsCard(p.hand, card) {
		return ErrInvalidSelection
	}

	p.hand, _ = removeCard(p.hand, card)
	p.selected = append(p.selected, card)

	g.emit(protocol.StateChanged)
	g.finalizeIfSelectionDone()
	return nil
}

// finalizeIfSelectionDone closes the selection window once every human
// player has staged a full set of open cards. Bots are dealt open cards
// directly, so an all-bot game finalizes immediately on deal.
func (g *Game) finalizeIfSelectionDone() {
	if !g.selectingOpen {
		return
	}
	for _, p := range g.players {
		if !p.isBot && len(p.selected) != numOpenCards {
			return
		}
	}

	for _, p := range g.players {
		p.open = append(p.open, p.selected...)
		p.selected = []deck.Card{}
	}

	g.selectingOpen = false
	g.currentTurnIdx = 0
	g.phase = PhaseHand

	g.emit(protocol.SelectionComplete)
	g.scheduleBotTurn()
}

// PlayCard plays a card from one of the player's card groups onto the
// discard pile. An illegal move is rejected with ErrIllegalMove and changes
// no state.
func (g *Game) PlayCard(playerID string, card deck.Card, zone Zone) error {
	g.mu.Lock()
	defer g.unlockAndPublish()

	p, err := g.findPlayer(playerID)
	if err != nil {
		return err
	}
	return g.playCard(p, card, zone)
}

func (g *Game) playCard(p *Player, card deck.Card, zone Zone) error {
	if err := g.ensurePlayable(); err != nil {
		return err
	}

	g.refreshPhase(p)
	if zoneForPhase(g.phase) != zone {
		return ErrIllegalMove
	}

	cards := p.zone(zone)
	if cards == nil || !containsCard(*cards, card) {
		return ErrIllegalMove
	}

	if !isValidMove(g.discardPile, card) {
		g.log.WithFields(logrus.Fields{
			"player": p.name,
			"card":   card.String(),
			"zone":   zone.String(),
		}).Debug("move rejected")
		return ErrIllegalMove
	}

	g.discardPile = append(g.discardPile, card)
	retainTurn := g.applySpecialEffect(card)
	*cards, _ = removeCard(*cards, card)

	if zone == ZoneHand {
		for len(p.hand) < handSize && len(g.drawPile) > 0 {
			g.drawCard(p)
		}
	}

	g.log.WithFields(logrus.Fields{
		"player": p.name,
		"card":   card.String(),
		"zone":   zone.String(),
	}).Info("card played")

	if p.hasNoCards() {
		g.winner = p
		g.log.WithField("player", p.name).Info("game over")
		g.emit(protocol.GameOver)
		g.emit(protocol.StateChanged)
		return nil
	}

	if retainTurn {
		// burn: the same player goes again
		g.scheduleBotTurn()
	} else {
		g.advanceTurn()
		g.scheduleBotTurn()
	}

	g.emit(protocol.StateChanged)
	return nil
}

// applySpecialEffect applies the effect of the played card, reporting
// whether the player keeps the turn.
// An 8 skips the next player; a Burn clears the discard pile and the player
// plays again.
func (g *Game) applySpecialEffect(card deck.Card) bool {
	switch card.Rank {
	case deck.Eight:
		g.advanceTurn()
	case deck.Burn:
		g.discardPile = []deck.Card{}
		g.emit(protocol.PileBurned)
		return true
	}
	return false
}

// DrawCard moves the top card of the draw pile into the player's hand.
// An empty draw pile is not an error condition of the game, but it is
// signalled to the caller with ErrEmptyDrawPile.
func (g *Game) DrawCard(playerID string) error {
	g.mu.Lock()
	defer g.unlockAndPublish()

	p, err := g.findPlayer(playerID)
	if err != nil {
		return err
	}
	if err := g.ensurePlayable(); err != nil {
		return err
	}
	if len(g.drawPile) == 0 {
		g.log.Info("the draw pile is empty")
		return ErrEmptyDrawPile
	}

	g.drawCard(p)
	g.emit(protocol.StateChanged)
	return nil
}

func (g *Game) drawCard(p *Player) {
	top := g.drawPile[len(g.drawPile)-1]
	g.drawPile = g.drawPile[:len(g.drawPile)-1]
	p.hand = append(p.hand, top)
	p.sortHand()
}

// CanPlay reports whether the player can make a legal move from their hand.
// A player who cannot is forced to pick up the discard pile.
func (g *Game) CanPlay(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, err := g.findPlayer(playerID)
	if err != nil {
		return false
	}
	return g.canPlay(p)
}

func (g *Game) canPlay(p *Player) bool {
	if len(g.discardPile) == 0 {
		return true
	}
	return len(legalMoves(g.discardPile, p.hand)) > 0
}

// PickUpPile moves the entire discard pile into the player's hand, the
// penalty for having no legal move. Picking up always ends the turn.
func (g *Game) PickUpPile(playerID string) error {
	g.mu.Lock()
	defer g.unlockAndPublish()

	p, err := g.findPlayer(playerID)
	if err != nil {
		return err
	}
	if err := g.ensurePlayable(); err != nil {
		return err
	}

	g.pickUpPile(p)
	return nil
}

func (g *Game) pickUpPile(p *Player) {
	g.log.WithFields(logrus.Fields{
		"player": p.name,
		"cards":  len(g.discardPile),
	}).Info("picking up the discard pile")

	p.hand = append(p.hand, g.discardPile...)
	g.discardPile = []deck.Card{}
	p.sortHand()
	g.phase = PhaseHand

	g.emit(protocol.PilePickedUp)
	g.advanceTurn()
	g.scheduleBotTurn()
	g.emit(protocol.StateChanged)
}

// NextPlayer advances the turn to the next player
func (g *Game) NextPlayer() {
	g.mu.Lock()
	defer g.unlockAndPublish()

	g.advanceTurn()
	g.scheduleBotTurn()
}

func (g *Game) advanceTurn() {
	if len(g.players) == 0 || g.currentTurnIdx < 0 || g.currentTurnIdx >= len(g.players) {
		g.log.WithField("turnIdx", g.currentTurnIdx).Error("turn pointer is corrupt, halting the game")
		g.halted = true
		return
	}
	g.currentTurnIdx = (g.currentTurnIdx + 1) % len(g.players)
	g.emit(protocol.TurnChanged)
}

// refreshPhase recomputes the phase for the given player: hand cards while
// the hand or draw pile has cards, then open cards, then hidden cards.
func (g *Game) refreshPhase(p *Player) {
	if len(p.hand) > 0 || len(g.drawPile) > 0 {
		g.phase = PhaseHand
		return
	}
	if len(p.open) > 0 {
		g.phase = PhaseOpen
		return
	}
	if len(p.hidden) > 0 {
		g.phase = PhaseClosed
		return
	}
	// no cards left in any group; win detection handles this state
	g.phase = PhaseHand
}

func zoneForPhase(phase Phase) Zone {
	switch phase {
	case PhaseOpen:
		return ZoneOpen
	case PhaseClosed:
		return ZoneHidden
	}
	return ZoneHand
}

// scheduleBotTurn schedules a deferred turn if the current player is a bot.
// The callback checks the game generation and aborts if the game was reset
// in the meantime.
func (g *Game) scheduleBotTurn() {
	if g.halted || g.winner != nil || g.selectingOpen || !g.started {
		return
	}
	p, err := g.currentPlayer()
	if err != nil || !p.isBot {
		return
	}

	gen := g.generation
	time.AfterFunc(g.botDelay, func() {
		g.mu.Lock()
		if g.generation == gen && !g.halted && g.winner == nil {
			if cur, err := g.currentPlayer(); err == nil && cur.isBot {
				g.playBotTurn(cur)
			}
		}
		g.unlockAndPublish()
	})
}

// Reset returns the game to its pre-deal state and invalidates any pending
// bot turn.
func (g *Game) Reset() {
	g.mu.Lock()
	defer g.unlockAndPublish()

	g.generation++
	g.deck = deck.New()
	g.deck.Shuffle()
	g.drawPile = []deck.Card{}
	g.discardPile = []deck.Card{}

	for _, p := range g.players {
		p.hand = []deck.Card{}
		p.open = []deck.Card{}
		p.hidden = []deck.Card{}
		p.selected = []deck.Card{}
	}

	g.started = false
	g.selectingOpen = false
	g.winner = nil
	g.halted = false
	g.currentTurnIdx = 0
	g.phase = PhaseHand

	g.emit(protocol.StateChanged)
}

// CurrentPlayer returns the player whose turn it is
func (g *Game) CurrentPlayer() (*Player, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentPlayer()
}

func (g *Game) currentPlayer() (*Player, error) {
	if g.currentTurnIdx < 0 || g.currentTurnIdx >= len(g.players) {
		return nil, ErrNoCurrentPlayer
	}
	return g.players[g.currentTurnIdx], nil
}

// Phase returns the phase the current player must play from
func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, err := g.currentPlayer(); err == nil {
		g.refreshPhase(p)
	}
	return g.phase
}

// Winner returns the winning player, or nil if the game is still going
func (g *Game) Winner() *Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.winner
}

// SelectingOpenCards reports whether the open-card selection window is open
func (g *Game) SelectingOpenCards() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.selectingOpen
}

func (g *Game) ensurePlayable() error {
	if g.halted {
		return ErrGameHalted
	}
	if !g.started || g.selectingOpen {
		return ErrIllegalMove
	}
	if g.winner != nil {
		return ErrGameOver
	}
	return nil
}

func (g *Game) findPlayer(id string) (*Player, error) {
	for _, p := range g.players {
		if p.id == id {
			return p, nil
		}
	}
	return nil, ErrUnknownPlayer
}
