package palace

import (
	"sort"

	"github.com/palacegame/palace/deck"
	uuid "github.com/satori/go.uuid"
)

// NewID constructs a player ID
func NewID() string {
	return uuid.NewV4().String()
}

// Zone identifies which of a player's card groups a card is played from.
type Zone int

const (
	ZoneHand Zone = iota
	ZoneOpen
	ZoneHidden
)

var zoneNames = []string{"hand", "open", "hidden"}

func (z Zone) String() string {
	if z < 0 || int(z) >= len(zoneNames) {
		return "unknown"
	}
	return zoneNames[z]
}

// Player represents a player in the game. A card lives in exactly one of the
// four groups at any time.
type Player struct {
	id    string
	name  string
	isBot bool

	hand     []deck.Card
	open     []deck.Card
	hidden   []deck.Card
	selected []deck.Card // open-card choices staged before the game proper
}

// NewPlayer constructs a new player
func NewPlayer(name string, isBot bool) *Player {
	return &Player{
		id:       NewID(),
		name:     name,
		isBot:    isBot,
		hand:     []deck.Card{},
		open:     []deck.Card{},
		hidden:   []deck.Card{},
		selected: []deck.Card{},
	}
}

func (p *Player) ID() string {
	return p.id
}

func (p *Player) Name() string {
	return p.name
}

func (p *Player) IsBot() bool {
	return p.isBot
}

// Hand returns the player's hand cards
func (p *Player) Hand() []deck.Card {
	return p.hand
}

// OpenCards returns the player's face-up cards
func (p *Player) OpenCards() []deck.Card {
	return p.open
}

// HiddenCards returns the player's face-down cards
func (p *Player) HiddenCards() []deck.Card {
	return p.hidden
}

// SelectedOpenCards returns the cards staged during open-card selection
func (p *Player) SelectedOpenCards() []deck.Card {
	return p.selected
}

// zone resolves a Zone to the backing card group
func (p *Player) zone(z Zone) *[]deck.Card {
	switch z {
	case ZoneHand:
		return &p.hand
	case ZoneOpen:
		return &p.open
	case ZoneHidden:
		return &p.hidden
	}
	return nil
}

func (p *Player) sortHand() {
	sort.Slice(p.hand, func(i, j int) bool {
		return p.hand[i].Rank < p.hand[j].Rank
	})
}

// hasNoCards reports whether the player has emptied all three groups,
// i.e. has won
func (p *Player) hasNoCards() bool {
	return len(p.hand) == 0 && len(p.open) == 0 && len(p.hidden) == 0
}

func removeCard(cards []deck.Card, target deck.Card) ([]deck.Card, bool) {
	for i, c := range cards {
		if c == target {
			return append(cards[:i], cards[i+1:]...), true
		}
	}
	return cards, false
}

func containsCard(cards []deck.Card, target deck.Card) bool {
	for _, c := range cards {
		if c == target {
			return true
		}
	}
	return false
}
