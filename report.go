package palace

import (
	"fmt"
	"strings"

	"github.com/palacegame/palace/deck"
)

// PlayerReport is a snapshot of one player's card groups. Hidden cards are
// reported by count only.
type PlayerReport struct {
	ID            string      `json:"playerID"`
	Name          string      `json:"name"`
	IsBot         bool        `json:"isBot"`
	Hand          []deck.Card `json:"hand"`
	OpenCards     []deck.Card `json:"openCards"`
	HiddenCount   int         `json:"hiddenCount"`
	SelectedCount int         `json:"selectedCount"`
}

// StateReport is a diagnostic snapshot of the whole game
type StateReport struct {
	Players            []PlayerReport `json:"players"`
	DrawPileSize       int            `json:"drawPileSize"`
	DiscardPile        []deck.Card    `json:"discardPile"`
	CurrentPlayer      string         `json:"currentPlayer"`
	Phase              string         `json:"phase"`
	SelectingOpenCards bool           `json:"selectingOpenCards"`
	LegalMoves         []deck.Card    `json:"legalMoves"`
	Winner             string         `json:"winner,omitempty"`
}

// Report builds a snapshot of the game state for diagnostics and
// presentation layers
func (g *Game) Report() StateReport {
	g.mu.Lock()
	defer g.mu.Unlock()

	report := StateReport{
		Players:            []PlayerReport{},
		DrawPileSize:       len(g.drawPile),
		DiscardPile:        append([]deck.Card{}, g.discardPile...),
		SelectingOpenCards: g.selectingOpen,
		LegalMoves:         []deck.Card{},
	}

	for _, p := range g.players {
		report.Players = append(report.Players, PlayerReport{
			ID:            p.id,
			Name:          p.name,
			IsBot:         p.isBot,
			Hand:          append([]deck.Card{}, p.hand...),
			OpenCards:     append([]deck.Card{}, p.open...),
			HiddenCount:   len(p.hidden),
			SelectedCount: len(p.selected),
		})
	}

	if current, err := g.currentPlayer(); err == nil {
		g.refreshPhase(current)
		report.CurrentPlayer = current.name
		report.LegalMoves = g.legalBotMoves(current)
	}
	report.Phase = g.phase.String()

	if g.winner != nil {
		report.Winner = g.winner.name
	}

	return report
}

func (r StateReport) String() string {
	var b strings.Builder

	for _, p := range r.Players {
		fmt.Fprintf(&b, "Player: %s\n", p.Name)
		fmt.Fprintf(&b, "  Hand cards (%d):\n", len(p.Hand))
		for i, c := range p.Hand {
			fmt.Fprintf(&b, "    %d. %s\n", i+1, c)
		}
		fmt.Fprintf(&b, "  Open cards (%d):\n", len(p.OpenCards))
		for i, c := range p.OpenCards {
			fmt.Fprintf(&b, "    %d. %s\n", i+1, c)
		}
		fmt.Fprintf(&b, "  Hidden cards: %d\n\n", p.HiddenCount)
	}

	fmt.Fprintf(&b, "Draw pile: %d cards\n", r.DrawPileSize)
	fmt.Fprintf(&b, "Discard pile: %d cards\n", len(r.DiscardPile))
	fmt.Fprintf(&b, "Current player: %s (%s)\n", r.CurrentPlayer, r.Phase)
	if r.Winner != "" {
		fmt.Fprintf(&b, "Winner: %s\n", r.Winner)
	}

	return b.String()
}
