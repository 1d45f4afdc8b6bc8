package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/palacegame/palace"
	"github.com/palacegame/palace/protocol"
)

// Runs a headless game between bots, printing the state after every turn.
func main() {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	players := []*palace.Player{
		palace.NewPlayer("North", true),
		palace.NewPlayer("East", true),
		palace.NewPlayer("South", true),
	}

	game, err := palace.NewGame(players, palace.GameOpts{
		BotDelay: 50 * time.Millisecond,
		Logger:   log,
	})
	if err != nil {
		log.Fatal(err)
	}

	done := make(chan struct{})
	game.OnEvent(func(e protocol.Event) {
		switch e {
		case protocol.TurnChanged:
			fmt.Println(game.Report())
		case protocol.GameOver:
			close(done)
		}
	})

	if err := game.Start(); err != nil {
		log.Fatal(err)
	}

	<-done
	fmt.Printf("%s wins!\n", game.Winner().Name())
}
