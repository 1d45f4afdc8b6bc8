package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/palacegame/palace"
	"github.com/palacegame/palace/deck"
	"github.com/palacegame/palace/protocol"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GameServer hosts games over HTTP. It is a thin adapter: every decision is
// made by the game engine.
type GameServer struct {
	store palace.GameStore
	cfg   Config
	log   *logrus.Logger
	http.Server
}

type NewGameReq struct {
	Players []struct {
		Name string `json:"name"`
		Bot  bool   `json:"bot"`
	} `json:"players"`
}

type PlayerRes struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Bot      bool   `json:"bot"`
}

type NewGameRes struct {
	GameID  string             `json:"game_id"`
	Players []PlayerRes        `json:"players"`
	Report  palace.StateReport `json:"report"`
}

type MoveReq struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	Rank     int    `json:"rank"`
	Suit     int    `json:"suit"`
	Zone     string `json:"zone"`
}

type MoveRes struct {
	Report palace.StateReport `json:"report"`
	Note   string             `json:"note,omitempty"`
}

type errorRes struct {
	Error string `json:"error"`
}

// NewServer creates a new GameServer
func NewServer(store palace.GameStore, cfg Config, log *logrus.Logger) *GameServer {
	s := &GameServer{store: store, cfg: cfg, log: log}

	router := http.NewServeMux()
	router.HandleFunc("/new", s.handleNewGame)
	router.HandleFunc("/game/", s.handleGetGame)
	router.HandleFunc("/play", s.handlePlay)
	router.HandleFunc("/select", s.handleSelect)
	router.HandleFunc("/draw", s.handleDraw)
	router.HandleFunc("/pickup", s.handlePickUp)
	router.HandleFunc("/ws/", s.handleWatch)

	cors := handlers.CORS(handlers.AllowedOrigins(strings.Split(cfg.AllowedOrigins, ",")))
	s.Addr = cfg.Addr
	s.Handler = handlers.LoggingHandler(log.Writer(), cors(router))

	return s
}

func (s *GameServer) handleNewGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req NewGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	players := []*palace.Player{}
	for _, p := range req.Players {
		players = append(players, palace.NewPlayer(p.Name, p.Bot))
	}

	game, err := palace.NewGame(players, palace.GameOpts{
		BotDelay: s.cfg.BotDelay,
		Logger:   s.log,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	gameID := palace.NewGameID()
	if err := s.store.Add(gameID, game); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	if err := game.Start(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	res := NewGameRes{GameID: gameID, Report: game.Report()}
	for _, p := range players {
		res.Players = append(res.Players, PlayerRes{PlayerID: p.ID(), Name: p.Name(), Bot: p.IsBot()})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(res)
}

func (s *GameServer) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID := strings.TrimPrefix(r.URL.Path, "/game/")
	game, ok := s.store.Find(gameID)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("unknown game ID '"+gameID+"'"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(game.Report())
}

func (s *GameServer) handlePlay(w http.ResponseWriter, r *http.Request) {
	s.handleMove(w, r, func(game *palace.Game, req MoveReq) error {
		zone, err := parseZone(req.Zone)
		if err != nil {
			return fmt.Errorf("%w: %s", palace.ErrIllegalMove, err)
		}
		card := deck.NewCard(deck.Rank(req.Rank), deck.Suit(req.Suit))
		return game.PlayCard(req.PlayerID, card, zone)
	})
}

func (s *GameServer) handleSelect(w http.ResponseWriter, r *http.Request) {
	s.handleMove(w, r, func(game *palace.Game, req MoveReq) error {
		card := deck.NewCard(deck.Rank(req.Rank), deck.Suit(req.Suit))
		return game.SelectOpenCard(req.PlayerID, card)
	})
}

func (s *GameServer) handleDraw(w http.ResponseWriter, r *http.Request) {
	s.handleMove(w, r, func(game *palace.Game, req MoveReq) error {
		return game.DrawCard(req.PlayerID)
	})
}

func (s *GameServer) handlePickUp(w http.ResponseWriter, r *http.Request) {
	s.handleMove(w, r, func(game *palace.Game, req MoveReq) error {
		return game.PickUpPile(req.PlayerID)
	})
}

func (s *GameServer) handleMove(w http.ResponseWriter, r *http.Request, action func(*palace.Game, MoveReq) error) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req MoveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	game, ok := s.store.Find(req.GameID)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("unknown game ID '"+req.GameID+"'"))
		return
	}

	res := MoveRes{}
	if err := action(game, req); err != nil {
		switch {
		case errors.Is(err, palace.ErrEmptyDrawPile):
			// a normal terminal state of the pile, not a failure
			res.Note = err.Error()
		case errors.Is(err, palace.ErrIllegalMove),
			errors.Is(err, palace.ErrInvalidSelection),
			errors.Is(err, palace.ErrGameOver):
			writeError(w, http.StatusConflict, err)
			return
		case errors.Is(err, palace.ErrUnknownPlayer):
			writeError(w, http.StatusNotFound, err)
			return
		default:
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	res.Report = game.Report()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// handleWatch upgrades the connection to a websocket and pushes a state
// report on every engine event
func (s *GameServer) handleWatch(w http.ResponseWriter, r *http.Request) {
	gameID := strings.TrimPrefix(r.URL.Path, "/ws/")
	game, ok := s.store.Find(gameID)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("unknown game ID '"+gameID+"'"))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Error("websocket upgrade failed")
		return
	}

	updates := make(chan palace.StateReport, 16)
	game.OnEvent(func(e protocol.Event) {
		select {
		case updates <- game.Report():
		default:
			// a slow watcher misses intermediate snapshots
		}
	})

	go s.writePump(conn, updates)
}

func (s *GameServer) writePump(conn *websocket.Conn, updates <-chan palace.StateReport) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case report := <-updates:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(report); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func parseZone(name string) (palace.Zone, error) {
	switch name {
	case "hand":
		return palace.ZoneHand, nil
	case "open":
		return palace.ZoneOpen, nil
	case "hidden":
		return palace.ZoneHidden, nil
	}
	return palace.ZoneHand, errors.New("unknown zone '" + name + "'")
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorRes{Error: err.Error()})
}
