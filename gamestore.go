package palace

import (
	"fmt"
	"math/rand"
	"sync"
)

// GameStore maps game IDs to live games
type GameStore interface {
	Find(id string) (*Game, bool)
	Add(id string, game *Game) error
	Remove(id string)
}

// InMemoryGameStore is a mutex-guarded in-memory GameStore
type InMemoryGameStore struct {
	mu    sync.RWMutex
	games map[string]*Game
}

// NewInMemoryGameStore constructs an InMemoryGameStore
func NewInMemoryGameStore() *InMemoryGameStore {
	return &InMemoryGameStore{games: map[string]*Game{}}
}

func (s *InMemoryGameStore) Find(id string) (*Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	return game, ok
}

func (s *InMemoryGameStore) Add(id string, game *Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.games[id]; exists {
		return fmt.Errorf("game with id %s already exists", id)
	}
	s.games[id] = game
	return nil
}

func (s *InMemoryGameStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
}

// NewGameID constructs a shareable 6-letter game code
func NewGameID() string {
	letters := []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	code := make([]byte, 6)
	for i := range code {
		code[i] = letters[rand.Intn(len(letters))]
	}
	return string(code)
}
