package main

import (
	"github.com/sirupsen/logrus"

	"github.com/palacegame/palace"
	"github.com/palacegame/palace/server"
)

func main() {
	log := logrus.New()

	cfg, err := server.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("could not load config")
	}

	store := palace.NewInMemoryGameStore()
	s := server.NewServer(store, cfg, log)

	log.WithField("addr", cfg.Addr).Info("starting palace server")
	log.Fatal(s.ListenAndServe())
}
