package demo

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/minesweep/internal/board"
	"github.com/roach88/minesweep/internal/game"
	"github.com/roach88/minesweep/internal/sched"
)

// State is the player's lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StatePaused   State = "paused"
	StateFinished State = "finished"
)

// Narrator is the presentation collaborator for the guided overlay:
// captions, pointers, and demo termination. Cell-level rendering goes
// through the session's game.Presenter as in normal play.
type Narrator interface {
	// StepStarted announces a step's caption before its action runs.
	StepStarted(index int, caption string, at CaptionPos, target board.Pos)

	// PointToNumber points at a revealed number cell.
	PointToNumber(p board.Pos)

	// HighlightFlag highlights a placed flag.
	HighlightFlag(p board.Pos)

	// DemoEnded reports termination. finished is true when the script
	// ran past its last step, false when Stop cut it short.
	DemoEnded(finished bool)
}

// Player owns the guided-play run: a scripted game session plus the
// timed step sequence driving it.
//
// Single-owner rule: while a Player is active it is the sole source of
// timers mutating its session. Stop cancels every pending callback
// before returning, so after Stop no scheduled mutation can occur.
//
// Thread-safety: all exported methods are safe for concurrent use.
type Player struct {
	script    Script
	scheduler sched.Scheduler
	narrator  Narrator
	deps      game.Deps

	mu        sync.Mutex
	state     State
	session   *game.Session
	stepIndex int
	gen       int // invalidates in-flight callbacks on pause/stop
	pending   []sched.Task
	scriptEnd bool // game over was triggered by the script
}

// NewPlayer creates an idle player for the given script. The deps are
// used to build the scripted session on each Start; deps.Scheduler also
// runs the step callbacks and is required.
func NewPlayer(script Script, deps game.Deps, narrator Narrator) (*Player, error) {
	if deps.Scheduler == nil {
		return nil, fmt.Errorf("demo player requires a scheduler")
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("demo script has no steps")
	}
	return &Player{
		script:    script,
		scheduler: deps.Scheduler,
		narrator:  narrator,
		deps:      deps,
		state:     StateIdle,
	}, nil
}

// Start begins the demo from step zero over a fresh scripted session.
// Restarting an active player stops the previous run first.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.teardownLocked()

	cfg := game.Config{Difficulty: game.Easy, Rows: p.script.Rows, Cols: p.script.Cols}
	session, err := game.NewScriptedSession(cfg, p.script.Mines, p.deps)
	if err != nil {
		return fmt.Errorf("start demo: %w", err)
	}
	p.session = session
	p.state = StateRunning
	p.stepIndex = 0
	p.scriptEnd = false
	slog.Info("demo started", "steps", len(p.script.Steps))
	p.runStepLocked()
	return nil
}

// Pause cancels every outstanding step callback and pauses the game
// clock. The current step restarts from its beginning on Resume.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateRunning {
		return
	}
	p.cancelPendingLocked()
	p.state = StatePaused
	if p.session != nil && !p.session.IsPaused() {
		p.session.TogglePause()
	}
	slog.Debug("demo paused", "step", p.stepIndex)
}

// Resume re-executes the current step from its own start.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePaused {
		return
	}
	p.state = StateRunning
	if p.session != nil && p.session.IsPaused() {
		p.session.TogglePause()
	}
	slog.Debug("demo resumed", "step", p.stepIndex)
	p.runStepLocked()
}

// Stop cancels the demo and tears down its session. After Stop returns,
// no scheduled demo callback will run.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateIdle {
		return
	}
	p.teardownLocked()
	slog.Info("demo stopped")
	if p.narrator != nil {
		p.narrator.DemoEnded(false)
	}
}

// State returns the player's lifecycle state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// StepIndex returns the index of the step currently being played.
func (p *Player) StepIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stepIndex
}

// Session returns the scripted session of the current run, or nil when
// idle. Read-only use: queries and snapshots.
func (p *Player) Session() *game.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// ScriptedGameOver reports whether the current run's game over came
// from the script, so the UI can offer "watch again" rather than
// "play again".
func (p *Player) ScriptedGameOver() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scriptEnd
}

// runStepLocked announces the current step and schedules its two
// callbacks: the reading delay before the action, then the step's own
// advance delay before the next step.
func (p *Player) runStepLocked() {
	if p.stepIndex >= len(p.script.Steps) {
		p.finishLocked()
		return
	}
	step := p.script.Steps[p.stepIndex]
	gen := p.gen
	if p.narrator != nil {
		p.narrator.StepStarted(p.stepIndex, step.Caption, step.CaptionAt, step.Target)
	}
	p.track(p.scheduler.After(ReadingDelay, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if gen != p.gen || p.state != StateRunning {
			return
		}
		p.performLocked(step)
		p.track(p.scheduler.After(step.AdvanceDelay, func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if gen != p.gen || p.state != StateRunning {
				return
			}
			p.stepIndex++
			p.runStepLocked()
		}))
	}))
}

// performLocked applies one step's synthetic input to the session.
func (p *Player) performLocked(step Step) {
	switch step.Action {
	case ActionReveal:
		for _, r := range step.Reveals {
			p.session.RevealScripted(r.Row, r.Col, r.Display)
		}
	case ActionFlag:
		p.session.ToggleFlag(step.Target.Row, step.Target.Col)
	case ActionPointToNumber:
		if p.narrator != nil {
			p.narrator.PointToNumber(step.Target)
		}
	case ActionHighlightFlag:
		if p.narrator != nil {
			p.narrator.HighlightFlag(step.Target)
		}
	case ActionTriggerGameOver:
		p.scriptEnd = true
		p.session.Reveal(step.Target.Row, step.Target.Col)
	default:
		slog.Warn("unknown demo action", "action", step.Action, "step", p.stepIndex)
	}
}

// finishLocked detaches scripted control past the last step. The
// session stays up so the terminal screen remains visible; Stop is what
// returns to the menu.
func (p *Player) finishLocked() {
	p.state = StateFinished
	p.cancelPendingLocked()
	slog.Info("demo finished", "scripted_game_over", p.scriptEnd)
	if p.narrator != nil {
		p.narrator.DemoEnded(true)
	}
}

// teardownLocked cancels pending callbacks and closes the session.
func (p *Player) teardownLocked() {
	p.cancelPendingLocked()
	if p.session != nil {
		p.session.Close()
		p.session = nil
	}
	p.state = StateIdle
	p.stepIndex = 0
}

// cancelPendingLocked stops every tracked callback and invalidates any
// that already fired but have not yet run.
func (p *Player) cancelPendingLocked() {
	p.gen++
	for _, t := range p.pending {
		t.Stop()
	}
	p.pending = p.pending[:0]
}

func (p *Player) track(t sched.Task) {
	p.pending = append(p.pending, t)
}
