package palace

import "github.com/palacegame/palace/deck"

// isValidMove reports whether candidate may be played on the pile. It is a
// pure function of the top two pile cards and the candidate.
//
// Rules, in evaluation order:
//   - an empty pile accepts any card
//   - a 2 resets the pile and is always playable
//   - a 3 is always playable
//   - otherwise the candidate must be >= the top card, unless the top card
//     is a 3 (transparent: judge against the card beneath instead) or a 7
//     (the next card must be <= 7)
func isValidMove(pile []deck.Card, candidate deck.Card) bool {
	if len(pile) == 0 {
		return true
	}
	top := pile[len(pile)-1]

	if candidate.Rank == deck.Two || candidate.Rank == deck.Three {
		return true
	}

	if top.Rank != deck.Three && top.Rank != deck.Seven && candidate.Rank >= top.Rank {
		return true
	}

	if top.Rank == deck.Three {
		if len(pile) < 2 {
			return true
		}
		second := pile[len(pile)-2]
		return candidate.Rank >= second.Rank
	}

	if top.Rank == deck.Seven {
		return candidate.Rank <= deck.Seven
	}

	return false
}

// legalMoves returns the indices of the cards in toPlay that may be played
// on the pile
func legalMoves(pile, toPlay []deck.Card) []int {
	moves := []int{}
	for i, c := range toPlay {
		if isValidMove(pile, c) {
			moves = append(moves, i)
		}
	}
	return moves
}

// lowestLegalCard picks the lowest-ranked playable card, reporting false if
// none is playable
func lowestLegalCard(pile, toPlay []deck.Card) (deck.Card, bool) {
	var best deck.Card
	found := false
	for _, i := range legalMoves(pile, toPlay) {
		if !found || toPlay[i].Rank < best.Rank {
			best = toPlay[i]
			found = true
		}
	}
	return best, found
}
