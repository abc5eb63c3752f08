package server

import (
	"context"
	"encoding/json"
	"net/http"

	"ladders/game"
	"ladders/learning"
	"ladders/oracle"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const maxRequestBytes = 64 << 10

// Server is a reference decision oracle. Purchases follow the learned
// ranking when it has an opinion; everything else uses the heuristic.
type Server struct {
	heuristic *oracle.Heuristic
	store     learning.Store
	upgrader  websocket.Upgrader
}

// New returns a server over board. store may be nil.
func New(board *game.Board, store learning.Store) *Server {
	return &Server{
		heuristic: oracle.NewHeuristic(board),
		store:     store,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /decide", s.handleDecide)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

// Answer implements oracle.Answerer.
func (s *Server) Answer(ctx context.Context, req oracle.Request) oracle.Response {
	resp := oracle.Response{ID: req.ID}
	if choice, ok := s.decide(req); ok {
		resp.Choice = &choice
	}
	return resp
}

func (s *Server) decide(req oracle.Request) (string, bool) {
	if req.Kind == oracle.KindBuy && s.store != nil {
		agg := s.store.Snapshot()
		best, bestScore := "", 0
		for _, name := range req.Candidates {
			if score := learning.Score(agg, name, req.Tile, req.Round); score > bestScore {
				best, bestScore = name, score
			}
		}
		if bestScore > 0 {
			return best, true
		}
	}
	return s.heuristic.Decide(req)
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req oracle.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}
	log.Debug().Str("kind", string(req.Kind)).Str("player", req.Name).Msg("decision requested over http")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Answer(r.Context(), req)); err != nil {
		log.Warn().Err(err).Msg("failed to write decision")
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxRequestBytes)

	log.Info().Str("remote", r.RemoteAddr).Msg("oracle client connected")
	for {
		var req oracle.Request
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("oracle client read failed")
			}
			return
		}
		if err := conn.WriteJSON(s.Answer(r.Context(), req)); err != nil {
			log.Debug().Err(err).Msg("oracle client write failed")
			return
		}
	}
}
