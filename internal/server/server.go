// Package server exposes the game over HTTP: command routes for the
// core operations, a JSON snapshot endpoint, and a websocket stream of
// change events for the browser UI.
//
// One server owns one app (and therefore one active session); every
// connected client watches and drives the same game.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/matryer/way"

	"github.com/roach88/minesweep/internal/app"
	"github.com/roach88/minesweep/internal/demo"
	"github.com/roach88/minesweep/internal/game"
)

// Server wires the websocket hub, the router, and the app.
type Server struct {
	app      *app.App
	router   *way.Router
	hub      *hub
	upgrader websocket.Upgrader
}

// New assembles a server. deps.Presenter is overridden with the
// websocket broadcaster; the other collaborators pass through.
func New(presets map[game.Difficulty]game.Config, deps game.Deps, script demo.Script) (*Server, error) {
	h := newHub()
	b := &broadcaster{hub: h}
	deps.Presenter = b

	a, err := app.New(presets, deps, script, b)
	if err != nil {
		return nil, err
	}

	s := &Server{app: a, hub: h}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler { return s.router }

// App returns the underlying app, for shutdown.
func (s *Server) App() *app.App { return s.app }

func (s *Server) routes() {
	s.router = way.NewRouter()
	s.router.HandleFunc("GET", "/game", s.handleSnapshot)
	s.router.HandleFunc("POST", "/game/new/:difficulty", s.handleNew)
	s.router.HandleFunc("POST", "/game/reveal", s.handleReveal)
	s.router.HandleFunc("POST", "/game/flag", s.handleFlag)
	s.router.HandleFunc("POST", "/game/pause", s.handlePause)
	s.router.HandleFunc("POST", "/demo/start", s.handleDemoStart)
	s.router.HandleFunc("POST", "/demo/stop", s.handleDemoStop)
	s.router.HandleFunc("POST", "/demo/pause", s.handleDemoPause)
	s.router.HandleFunc("POST", "/demo/resume", s.handleDemoResume)
	s.router.HandleFunc("GET", "/ws", s.handleWebsocket)
}

// cellReq is the body of reveal/flag commands.
type cellReq struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	difficulty := game.Difficulty(way.Param(r.Context(), "difficulty"))
	if err := s.app.Initialize(difficulty); err != nil {
		slog.Warn("new game rejected", "difficulty", difficulty, "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.writeSnapshot(w)
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCell(w, r)
	if !ok {
		return
	}
	s.app.Reveal(req.Row, req.Col)
	s.writeSnapshot(w)
}

func (s *Server) handleFlag(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCell(w, r)
	if !ok {
		return
	}
	s.app.ToggleFlag(req.Row, req.Col)
	s.writeSnapshot(w)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.app.TogglePause()
	s.writeSnapshot(w)
}

func (s *Server) handleDemoStart(w http.ResponseWriter, r *http.Request) {
	if err := s.app.StartGuidedDemo(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeSnapshot(w)
}

func (s *Server) handleDemoStop(w http.ResponseWriter, r *http.Request) {
	s.app.StopGuidedDemo()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDemoPause(w http.ResponseWriter, r *http.Request) {
	s.app.PauseGuidedDemo()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDemoResume(w http.ResponseWriter, r *http.Request) {
	s.app.ResumeGuidedDemo()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s.writeSnapshot(w)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := s.hub.add(conn)
	slog.Debug("websocket client connected", "remote", conn.RemoteAddr())
	go c.writeLoop(s.hub)
	go c.readLoop(s.hub)
}

func (s *Server) decodeCell(w http.ResponseWriter, r *http.Request) (cellReq, bool) {
	var req cellReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return cellReq{}, false
	}
	return req, true
}

// writeSnapshot responds with the active session's full state, or an
// empty object when no mode is active (mirrors a menu screen).
func (s *Server) writeSnapshot(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	snap, ok := s.app.Snapshot()
	if !ok {
		w.Write([]byte("{}"))
		return
	}
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		slog.Warn("snapshot encode failed", "error", err)
	}
}
