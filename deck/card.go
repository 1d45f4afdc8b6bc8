package deck

import "fmt"

// Rank represents a card's rank. Ranks are ordered 2..14 so they can be
// compared directly when judging moves. Rank 14 is the Burn card.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Queen
	King
	Ace
	Burn
)

var rankNames = map[Rank]string{
	Two:   "2",
	Three: "3",
	Four:  "4",
	Five:  "5",
	Six:   "6",
	Seven: "7",
	Eight: "8",
	Nine:  "9",
	Ten:   "10",
	Queen: "Queen",
	King:  "King",
	Ace:   "Ace",
	Burn:  "Burn",
}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Rank(%d)", int(r))
}

// Suit represents a suit in a deck of cards
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

var suitNames = []string{"Clubs", "Diamonds", "Hearts", "Spades"}

func (s Suit) String() string {
	if s < 0 || int(s) >= len(suitNames) {
		return fmt.Sprintf("Suit(%d)", int(s))
	}
	return suitNames[s]
}

// Card represents a playing card. Cards are value types: two cards are the
// same card exactly when their rank and suit match.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// NewCard constructs a card
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

func (c Card) String() string {
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}
