package protocol

// Event represents a notification from the game engine
type Event int

const (
	GameStarted Event = iota
	StateChanged
	SelectionComplete
	TurnChanged
	PileBurned
	PilePickedUp
	GameOver
)

var eventNames = []string{
	"GameStarted",
	"StateChanged",
	"SelectionComplete",
	"TurnChanged",
	"PileBurned",
	"PilePickedUp",
	"GameOver",
}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return "Unknown"
	}
	return eventNames[e]
}
