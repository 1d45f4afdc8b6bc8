package deck

import (
	"math/rand"
	"time"
)

// Deck represents a deck of cards. The top of the deck is the end of the
// slice.
type Deck []Card

// New creates a full deck of 52 cards: four suits of ranks 2 to 14.
func New() Deck {
	cards := Deck{}
	for suit := Clubs; suit <= Spades; suit++ {
		for rank := Two; rank <= Burn; rank++ {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	return cards
}

// Shuffle shuffles the deck of cards
func (d Deck) Shuffle() {
	rand.Seed(time.Now().UnixNano())
	for i := len(d) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		d[i], d[j] = d[j], d[i]
	}
}

// Deal deals n cards from the top of the deck, until it is empty
func (d *Deck) Deal(n int) []Card {
	numCardsInDeck := len(*d)
	if n < 0 || n > numCardsInDeck {
		return []Card{}
	}
	startingIndex := numCardsInDeck - n
	dealt := (*d)[startingIndex:numCardsInDeck]
	*d = (*d)[:startingIndex]
	return dealt
}
