package palace

import (
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palacegame/palace/deck"
	"github.com/palacegame/palace/protocol"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// testGame constructs a game with a long bot delay so that scheduled bot
// turns never interfere with assertions
func testGame(t *testing.T, players ...*Player) *Game {
	t.Helper()
	g, err := NewGame(players, GameOpts{
		BotDelay: time.Hour,
		RNG:      rand.New(rand.NewSource(1)),
		Logger:   quietLogger(),
	})
	require.NoError(t, err)
	return g
}

// primedGame skips dealing and selection so tests can stage zones directly
func primedGame(t *testing.T, players ...*Player) *Game {
	t.Helper()
	g := testGame(t, players...)
	g.started = true
	g.selectingOpen = false
	return g
}

func totalCards(g *Game) int {
	total := len(g.drawPile) + len(g.discardPile) + len(g.deck)
	for _, p := range g.players {
		total += len(p.hand) + len(p.open) + len(p.hidden) + len(p.selected)
	}
	return total
}

func TestNewGame(t *testing.T) {
	t.Run("requires at least two players", func(t *testing.T) {
		_, err := NewGame([]*Player{NewPlayer("Ada", false)}, GameOpts{})
		assert.ErrorIs(t, err, ErrTooFewPlayers)
	})

	t.Run("rejects more than four players", func(t *testing.T) {
		players := []*Player{
			NewPlayer("Ada", false),
			NewPlayer("Katherine", false),
			NewPlayer("Grace", false),
			NewPlayer("Hedy", false),
			NewPlayer("Marlyn", false),
		}
		_, err := NewGame(players, GameOpts{})
		assert.ErrorIs(t, err, ErrTooManyPlayers)
	})
}

func TestStartDealsCards(t *testing.T) {
	human := NewPlayer("Ada", false)
	bot := NewPlayer("Hedy", true)
	g := testGame(t, human, bot)

	require.NoError(t, g.Start())

	t.Run("humans get 6 hand and 3 hidden cards, no open cards", func(t *testing.T) {
		assert.Len(t, human.Hand(), 6)
		assert.Len(t, human.HiddenCards(), 3)
		assert.Empty(t, human.OpenCards())
	})

	t.Run("bots get 3 of each", func(t *testing.T) {
		assert.Len(t, bot.Hand(), 3)
		assert.Len(t, bot.HiddenCards(), 3)
		assert.Len(t, bot.OpenCards(), 3)
	})

	t.Run("the rest becomes the draw pile", func(t *testing.T) {
		assert.Len(t, g.drawPile, 52-9-9)
		assert.Equal(t, 52, totalCards(g))
	})

	t.Run("selection window is open", func(t *testing.T) {
		assert.True(t, g.SelectingOpenCards())
	})

	t.Run("hands are sorted ascending", func(t *testing.T) {
		for i := 1; i < len(human.hand); i++ {
			assert.LessOrEqual(t, human.hand[i-1].Rank, human.hand[i].Rank)
		}
	})

	t.Run("starting again is a no-op", func(t *testing.T) {
		require.NoError(t, g.Start())
		assert.Len(t, human.Hand(), 6)
		assert.Equal(t, 52, totalCards(g))
	})
}

func TestOpenCardSelection(t *testing.T) {
	t.Run("humans pick three open cards from their hand", func(t *testing.T) {
		ada := NewPlayer("Ada", false)
		grace := NewPlayer("Grace", false)
		g := testGame(t, ada, grace)
		require.NoError(t, g.Start())

		events := []protocol.Event{}
		g.OnEvent(func(e protocol.Event) {
			events = append(events, e)
		})

		for i := 0; i < 3; i++ {
			require.NoError(t, g.SelectOpenCard(ada.ID(), ada.Hand()[0]))
		}
		assert.Len(t, ada.SelectedOpenCards(), 3)
		assert.Len(t, ada.Hand(), 3)

		t.Run("a fourth selection is rejected", func(t *testing.T) {
			err := g.SelectOpenCard(ada.ID(), ada.Hand()[0])
			assert.ErrorIs(t, err, ErrInvalidSelection)
		})

		t.Run("selecting a card not in hand is rejected", func(t *testing.T) {
			notInHand := ada.SelectedOpenCards()[0]
			err := g.SelectOpenCard(ada.ID(), notInHand)
			assert.ErrorIs(t, err, ErrInvalidSelection)
		})

		t.Run("playing before selection completes is rejected", func(t *testing.T) {
			err := g.PlayCard(ada.ID(), ada.Hand()[0], ZoneHand)
			assert.ErrorIs(t, err, ErrIllegalMove)
		})

		t.Run("selection finalizes when every human has three", func(t *testing.T) {
			for i := 0; i < 3; i++ {
				require.NoError(t, g.SelectOpenCard(grace.ID(), grace.Hand()[0]))
			}

			assert.False(t, g.SelectingOpenCards())
			assert.Len(t, ada.OpenCards(), 3)
			assert.Len(t, grace.OpenCards(), 3)
			assert.Empty(t, ada.SelectedOpenCards())
			assert.Empty(t, grace.SelectedOpenCards())
			assert.Contains(t, events, protocol.SelectionComplete)

			current, err := g.CurrentPlayer()
			require.NoError(t, err)
			assert.Equal(t, ada, current)
		})
	})

	t.Run("an all-bot game finalizes on deal", func(t *testing.T) {
		g := testGame(t, NewPlayer("North", true), NewPlayer("East", true))
		require.NoError(t, g.Start())
		assert.False(t, g.SelectingOpenCards())
	})

	t.Run("bots cannot select", func(t *testing.T) {
		bot := NewPlayer("North", true)
		g := testGame(t, bot, NewPlayer("Ada", false))
		require.NoError(t, g.Start())

		err := g.SelectOpenCard(bot.ID(), bot.Hand()[0])
		assert.ErrorIs(t, err, ErrInvalidSelection)
	})
}

func TestPlayCard(t *testing.T) {
	t.Run("a legal play moves the card to the pile exactly once", func(t *testing.T) {
		ada := NewPlayer("Ada", false)
		grace := NewPlayer("Grace", false)
		g := primedGame(t, ada, grace)

		nine := deck.NewCard(deck.Nine, deck.Clubs)
		ada.hand = []deck.Card{nine, deck.NewCard(deck.Four, deck.Hearts), deck.NewCard(deck.King, deck.Spades)}

		require.NoError(t, g.PlayCard(ada.ID(), nine, ZoneHand))

		assert.Equal(t, []deck.Card{nine}, g.discardPile)
		assert.NotContains(t, ada.Hand(), nine)
		assert.Len(t, ada.Hand(), 2)

		current, err := g.CurrentPlayer()
		require.NoError(t, err)
		assert.Equal(t, grace, current)
	})

	t.Run("an illegal play changes nothing", func(t *testing.T) {
		ada := NewPlayer("Ada", false)
		grace := NewPlayer("Grace", false)
		g := primedGame(t, ada, grace)

		four := deck.NewCard(deck.Four, deck.Hearts)
		king := deck.NewCard(deck.King, deck.Spades)
		g.discardPile = []deck.Card{king}
		ada.hand = []deck.Card{four}

		err := g.PlayCard(ada.ID(), four, ZoneHand)
		assert.ErrorIs(t, err, ErrIllegalMove)
		assert.Equal(t, []deck.Card{king}, g.discardPile)
		assert.Equal(t, []deck.Card{four}, ada.hand)

		current, cerr := g.CurrentPlayer()
		require.NoError(t, cerr)
		assert.Equal(t, ada, current)
	})

	t.Run("a card not in the zone is rejected", func(t *testing.T) {
		ada := NewPlayer("Ada", false)
		g := primedGame(t, ada, NewPlayer("Grace", false))
		ada.hand = []deck.Card{deck.NewCard(deck.Nine, deck.Clubs)}

		err := g.PlayCard(ada.ID(), deck.NewCard(deck.Ten, deck.Hearts), ZoneHand)
		assert.ErrorIs(t, err, ErrIllegalMove)
	})

	t.Run("unknown players are rejected", func(t *testing.T) {
		g := primedGame(t, NewPlayer("Ada", false), NewPlayer("Grace", false))
		err := g.PlayCard("nope", deck.NewCard(deck.Nine, deck.Clubs), ZoneHand)
		assert.ErrorIs(t, err, ErrUnknownPlayer)
	})

	t.Run("the hand refills to three while the draw pile lasts", func(t *testing.T) {
		ada := NewPlayer("Ada", false)
		grace := NewPlayer("Grace", false)
		g := primedGame(t, ada, grace)

		nine := deck.NewCard(deck.Nine, deck.Clubs)
		ada.hand = []deck.Card{nine}
		g.drawPile = []deck.Card{
			deck.NewCard(deck.Four, deck.Hearts),
			deck.NewCard(deck.Five, deck.Hearts),
			deck.NewCard(deck.Six, deck.Hearts),
			deck.NewCard(deck.Seven, deck.Hearts),
			deck.NewCard(deck.Eight, deck.Hearts),
		}

		require.NoError(t, g.PlayCard(ada.ID(), nine, ZoneHand))

		assert.Len(t, ada.Hand(), 3)
		assert.Len(t, g.drawPile, 2)

		current, err := g.CurrentPlayer()
		require.NoError(t, err)
		assert.Equal(t, grace, current)
	})
}

func TestSpecialCards(t *testing.T) {
	t.Run("a Burn clears the pile and the player goes again", func(t *testing.T) {
		ada := NewPlayer("Ada", false)
		g := primedGame(t, ada, NewPlayer("Grace", false))

		burn := deck.NewCard(deck.Burn, deck.Spades)
		g.discardPile = []deck.Card{deck.NewCard(deck.Nine, deck.Clubs)}
		ada.hand = []deck.Card{burn, deck.NewCard(deck.Four, deck.Hearts)}

		events := []protocol.Event{}
		g.OnEvent(func(e protocol.Event) {
			events = append(events, e)
		})

		require.NoError(t, g.PlayCard(ada.ID(), burn, ZoneHand))

		assert.Empty(t, g.discardPile)
		assert.Contains(t, events, protocol.PileBurned)

		current, err := g.CurrentPlayer()
		require.NoError(t, err)
		assert.Equal(t, ada, current)
	})

	t.Run("an eight skips the next player", func(t *testing.T) {
		ada := NewPlayer("Ada", false)
		grace := NewPlayer("Grace", false)
		hedy := NewPlayer("Hedy", false)
		g := primedGame(t, ada, grace, hedy)

		eight := deck.NewCard(deck.Eight, deck.Clubs)
		ada.hand = []deck.Card{eight, deck.NewCard(deck.Four, deck.Hearts)}

		require.NoError(t, g.PlayCard(ada.ID(), eight, ZoneHand))

		current, err := g.CurrentPlayer()
		require.NoError(t, err)
		assert.Equal(t, hedy, current)
	})

	t.Run("an eight between two players returns the turn", func(t *testing.T) {
		ada := NewPlayer("Ada", false)
		grace := NewPlayer("Grace", false)
		g := primedGame(t, ada, grace)

		eight := deck.NewCard(deck.Eight, deck.Clubs)
		ada.hand = []deck.Card{eight, deck.NewCard(deck.Four, deck.Hearts)}

		require.NoError(t, g.PlayCard(ada.ID(), eight, ZoneHand))

		current, err := g.CurrentPlayer()
		require.NoError(t, err)
		assert.Equal(t, ada, current)
	})
}

func TestDrawCard(t *testing.T) {
	t.Run("draws the top card into a sorted hand", func(t *testing.T) {
		ada := NewPlayer("Ada", false)
		g := primedGame(t, ada, NewPlayer("Grace", false))

		ada.hand = []deck.Card{deck.NewCard(deck.Nine, deck.Clubs)}
		g.drawPile = []deck.Card{deck.NewCard(deck.Four, deck.Hearts)}

		require.NoError(t, g.DrawCard(ada.ID()))

		assert.Empty(t, g.drawPile)
		assert.Equal(t, []deck.Card{
			deck.NewCard(deck.Four, deck.Hearts),
			deck.NewCard(deck.Nine, deck.Clubs),
		}, ada.hand)
	})

	t.Run("an empty draw pile is signalled, not an error state", func(t *testing.T) {
		ada := NewPlayer("Ada", false)
		g := primedGame(t, ada, NewPlayer("Grace", false))

		err := g.DrawCard(ada.ID())
		assert.ErrorIs(t, err, ErrEmptyDrawPile)
		assert.Empty(t, ada.hand)
	})
}

func TestCanPlayAndPickUp(t *testing.T) {
	t.Run("canPlay is true on an empty pile", func(t *testing.T) {
		ada := NewPlayer("Ada", false)
		g := primedGame(t, ada, NewPlayer("Grace", false))
		assert.True(t, g.CanPlay(ada.ID()))
	})

	t.Run("forced pickup transfers the pile and ends the turn", func(t *testing.T) {
		ada := NewPlayer("Ada", false)
		grace := NewPlayer("Grace", false)
		g := primedGame(t, ada, grace)

		king := deck.NewCard(deck.King, deck.Spades)
		queen := deck.NewCard(deck.Queen, deck.Hearts)
		four := deck.NewCard(deck.Four, deck.Hearts)
		g.discardPile = []deck.Card{queen, king}
		ada.hand = []deck.Card{four}
		g.phase = PhaseClosed

		assert.False(t, g.CanPlay(ada.ID()))

		require.NoError(t, g.PickUpPile(ada.ID()))

		assert.Empty(t, g.discardPile)
		assert.Equal(t, []deck.Card{four, queen, king}, ada.hand)
		assert.Equal(t, PhaseHand, g.phase)

		current, err := g.CurrentPlayer()
		require.NoError(t, err)
		assert.Equal(t, grace, current)
	})
}

func TestPhases(t *testing.T) {
	t.Run("open cards unlock when hand and draw pile are empty", func(t *testing.T) {
		ada := NewPlayer("Ada", false)
		g := primedGame(t, ada, NewPlayer("Grace", false))

		nine := deck.NewCard(deck.Nine, deck.Clubs)
		ada.open = []deck.Card{nine}
		ada.hidden = []deck.Card{deck.NewCard(deck.Four, deck.Hearts)}

		assert.Equal(t, PhaseOpen, g.Phase())

		t.Run("playing from the wrong zone is rejected", func(t *testing.T) {
			err := g.PlayCard(ada.ID(), nine, ZoneHand)
			assert.ErrorIs(t, err, ErrIllegalMove)
		})

		require.NoError(t, g.PlayCard(ada.ID(), nine, ZoneOpen))
		assert.Empty(t, ada.open)
	})

	t.Run("hidden cards are the last resort", func(t *testing.T) {
		ada := NewPlayer("Ada", false)
		g := primedGame(t, ada, NewPlayer("Grace", false))

		four := deck.NewCard(deck.Four, deck.Hearts)
		ada.hidden = []deck.Card{four, deck.NewCard(deck.Nine, deck.Clubs)}

		assert.Equal(t, PhaseClosed, g.Phase())

		t.Run("a blind card is still validated", func(t *testing.T) {
			g.discardPile = []deck.Card{deck.NewCard(deck.King, deck.Spades)}
			err := g.PlayCard(ada.ID(), four, ZoneHidden)
			assert.ErrorIs(t, err, ErrIllegalMove)
			assert.Len(t, ada.hidden, 2)
		})
	})

	t.Run("hand cards rule while the draw pile has cards", func(t *testing.T) {
		ada := NewPlayer("Ada", false)
		g := primedGame(t, ada, NewPlayer("Grace", false))

		ada.open = []deck.Card{deck.NewCard(deck.Nine, deck.Clubs)}
		g.drawPile = []deck.Card{deck.NewCard(deck.Four, deck.Hearts)}

		assert.Equal(t, PhaseHand, g.Phase())
	})
}

func TestWinDetection(t *testing.T) {
	ada := NewPlayer("Ada", false)
	grace := NewPlayer("Grace", false)
	g := primedGame(t, ada, grace)

	nine := deck.NewCard(deck.Nine, deck.Clubs)
	ada.hand = []deck.Card{nine}

	events := []protocol.Event{}
	g.OnEvent(func(e protocol.Event) {
		events = append(events, e)
	})

	require.NoError(t, g.PlayCard(ada.ID(), nine, ZoneHand))

	assert.Equal(t, ada, g.Winner())
	assert.Contains(t, events, protocol.GameOver)

	t.Run("no more plays are accepted", func(t *testing.T) {
		grace.hand = []deck.Card{deck.NewCard(deck.Ten, deck.Hearts)}
		err := g.PlayCard(grace.ID(), grace.hand[0], ZoneHand)
		assert.ErrorIs(t, err, ErrGameOver)
	})
}

func TestCorruptTurnPointerHaltsGame(t *testing.T) {
	ada := NewPlayer("Ada", false)
	g := primedGame(t, ada, NewPlayer("Grace", false))

	g.currentTurnIdx = 42
	g.NextPlayer()

	_, err := g.CurrentPlayer()
	assert.ErrorIs(t, err, ErrNoCurrentPlayer)

	ada.hand = []deck.Card{deck.NewCard(deck.Nine, deck.Clubs)}
	err = g.PlayCard(ada.ID(), ada.hand[0], ZoneHand)
	assert.ErrorIs(t, err, ErrGameHalted)
}

func TestReset(t *testing.T) {
	t.Run("returns the game to its pre-deal state", func(t *testing.T) {
		ada := NewPlayer("Ada", false)
		g := testGame(t, ada, NewPlayer("Grace", false))
		require.NoError(t, g.Start())

		g.Reset()

		assert.False(t, g.started)
		assert.Empty(t, g.drawPile)
		assert.Empty(t, ada.Hand())
		assert.Equal(t, 52, totalCards(g))
	})

	t.Run("strands a pending bot turn", func(t *testing.T) {
		g, err := NewGame([]*Player{
			NewPlayer("North", true),
			NewPlayer("East", true),
		}, GameOpts{
			BotDelay: 20 * time.Millisecond,
			Logger:   quietLogger(),
		})
		require.NoError(t, err)

		require.NoError(t, g.Start())
		g.Reset()

		time.Sleep(100 * time.Millisecond)

		g.mu.Lock()
		defer g.mu.Unlock()
		assert.False(t, g.started)
		assert.Empty(t, g.discardPile)
		for _, p := range g.players {
			assert.Empty(t, p.hand)
		}
	})
}
