package palace

import (
	"github.com/sirupsen/logrus"

	"github.com/palacegame/palace/deck"
)

// playBotTurn runs one complete bot turn. The loop terminates in exactly one
// of: a legal play, or picking up the pile. Must be called with the lock
// held.
//
// The bot plays the lowest legal hand card, then the lowest legal open card.
// Hidden cards are played blind: a random card is committed without checking
// legality first, and a rejected card leaves the bot to pick up the pile
// like any other failed turn.
func (g *Game) playBotTurn(bot *Player) {
	for {
		if g.halted || g.winner != nil {
			return
		}

		g.refreshPhase(bot)
		played := false

		switch g.phase {
		case PhaseHand:
			if len(bot.hand) == 0 && len(g.drawPile) > 0 {
				g.drawCard(bot)
				continue
			}
			if card, ok := lowestLegalCard(g.discardPile, bot.hand); ok {
				played = g.playCard(bot, card, ZoneHand) == nil
			}

		case PhaseOpen:
			if card, ok := lowestLegalCard(g.discardPile, bot.open); ok {
				played = g.playCard(bot, card, ZoneOpen) == nil
			}

		case PhaseClosed:
			if len(bot.hidden) > 0 {
				card := bot.hidden[g.rng.Intn(len(bot.hidden))]
				if err := g.playCard(bot, card, ZoneHidden); err == nil {
					played = true
				} else {
					g.log.WithFields(logrus.Fields{
						"player": bot.name,
						"card":   card.String(),
					}).Info("blind card was not playable")
				}
			}
		}

		if played {
			return
		}

		if !g.canPlay(bot) {
			g.pickUpPile(bot)
			return
		}
	}
}

// legalBotMoves is a convenience for inspecting what a bot would consider,
// used by the diagnostics surface
func (g *Game) legalBotMoves(bot *Player) []deck.Card {
	g.refreshPhase(bot)

	var from []deck.Card
	switch g.phase {
	case PhaseHand:
		from = bot.hand
	case PhaseOpen:
		from = bot.open
	case PhaseClosed:
		// hidden cards are played blind
		return []deck.Card{}
	}

	cards := []deck.Card{}
	for _, i := range legalMoves(g.discardPile, from) {
		cards = append(cards, from[i])
	}
	return cards
}
