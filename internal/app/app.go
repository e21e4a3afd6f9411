// Package app ties the game session and the guided-play player into
// one externally driven application surface.
//
// The single active session is exclusively owned by whichever mode is
// active, normal play or guided demo, never both. Every mode switch
// tears the outgoing mode's timers down before the incoming mode
// schedules anything, so two timer sources can never mutate the same
// state.
package app

import (
	"fmt"
	"sync"

	"github.com/roach88/minesweep/internal/demo"
	"github.com/roach88/minesweep/internal/game"
)

// Mode names the owner of the active session.
type Mode string

const (
	ModeNone Mode = "none"
	ModePlay Mode = "play"
	ModeDemo Mode = "demo"
)

// App multiplexes normal play and guided demo over one session slot.
//
// Thread-safety: all exported methods are safe for concurrent use.
type App struct {
	presets map[game.Difficulty]game.Config
	deps    game.Deps
	script  demo.Script

	mu      sync.Mutex
	mode    Mode
	session *game.Session
	player  *demo.Player
}

// New creates an App with no active mode. presets maps each difficulty
// to its board configuration; deps collaborators serve both modes.
func New(presets map[game.Difficulty]game.Config, deps game.Deps, script demo.Script, narrator demo.Narrator) (*App, error) {
	if deps.Scheduler == nil {
		return nil, fmt.Errorf("app requires a scheduler")
	}
	player, err := demo.NewPlayer(script, deps, narrator)
	if err != nil {
		return nil, fmt.Errorf("new app: %w", err)
	}
	return &App{
		presets: presets,
		deps:    deps,
		script:  script,
		mode:    ModeNone,
		player:  player,
	}, nil
}

// Initialize starts a fresh game at the given difficulty, tearing down
// any running demo or previous game first.
func (a *App) Initialize(d game.Difficulty) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cfg, ok := a.presets[d]
	if !ok {
		return fmt.Errorf("unknown difficulty %q", d)
	}

	a.stopDemoLocked()
	a.closeSessionLocked()

	session, err := game.NewSession(cfg, a.deps)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	a.session = session
	a.mode = ModePlay
	return nil
}

// Reveal forwards to the play session. Ignored outside play mode; the
// demo owns its session exclusively.
func (a *App) Reveal(row, col int) {
	if s := a.playSession(); s != nil {
		s.Reveal(row, col)
	}
}

// ToggleFlag forwards to the play session. Ignored outside play mode.
func (a *App) ToggleFlag(row, col int) {
	if s := a.playSession(); s != nil {
		s.ToggleFlag(row, col)
	}
}

// TogglePause forwards to the play session. Ignored outside play mode;
// the demo has its own pause operations.
func (a *App) TogglePause() {
	if s := a.playSession(); s != nil {
		s.TogglePause()
	}
}

// StartGuidedDemo switches to demo mode, tearing down any running game
// first.
func (a *App) StartGuidedDemo() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closeSessionLocked()
	a.mode = ModeDemo
	if err := a.player.Start(); err != nil {
		a.mode = ModeNone
		return err
	}
	return nil
}

// StopGuidedDemo cancels the demo and leaves no active mode.
func (a *App) StopGuidedDemo() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopDemoLocked()
}

// PauseGuidedDemo pauses the running demo.
func (a *App) PauseGuidedDemo() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode == ModeDemo {
		a.player.Pause()
	}
}

// ResumeGuidedDemo resumes a paused demo.
func (a *App) ResumeGuidedDemo() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode == ModeDemo {
		a.player.Resume()
	}
}

// Quit tears down whatever mode is active. Safe to call repeatedly.
func (a *App) Quit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopDemoLocked()
	a.closeSessionLocked()
}

// Mode returns the active mode.
func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Demo returns the guided-play player for state queries.
func (a *App) Demo() *demo.Player {
	return a.player
}

// Active returns the session currently on screen: the play session in
// play mode, the scripted session in demo mode, nil otherwise.
func (a *App) Active() *game.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.mode {
	case ModePlay:
		return a.session
	case ModeDemo:
		return a.player.Session()
	default:
		return nil
	}
}

// Snapshot returns the active session's presentable state, and false
// when no mode is active.
func (a *App) Snapshot() (game.Snapshot, bool) {
	s := a.Active()
	if s == nil {
		return game.Snapshot{}, false
	}
	return s.Snapshot(), true
}

func (a *App) playSession() *game.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != ModePlay {
		return nil
	}
	return a.session
}

func (a *App) stopDemoLocked() {
	if a.mode == ModeDemo {
		a.player.Stop()
		a.mode = ModeNone
	}
}

func (a *App) closeSessionLocked() {
	if a.session != nil {
		a.session.Close()
		a.session = nil
	}
	if a.mode == ModePlay {
		a.mode = ModeNone
	}
}
