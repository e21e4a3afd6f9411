package game

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/minesweep/internal/board"
	"github.com/roach88/minesweep/internal/sched"
)

// Status is the lifecycle state of a session. Paused is deliberately
// not a Status: it is an orthogonal flag layered on StatusPlaying.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusPlaying    Status = "playing"
	StatusWon        Status = "won"
	StatusLost       Status = "lost"
)

// LossPresentationDelay is how long after a loss the terminal GameEnded
// callback is delivered. Internal state transitions immediately; the
// delay exists so the presentation layer can animate the explosion
// before the modal appears.
const LossPresentationDelay = 1500 * time.Millisecond

// Deps carries the session's collaborators. Scheduler is required;
// every other field may be nil.
type Deps struct {
	Scheduler sched.Scheduler
	Presenter Presenter
	Audio     Audio
	Records   Records

	// RNG drives mine placement. Nil means a fresh PCG seeded from
	// wall-clock time, the normal case for interactive play.
	RNG *rand.Rand
}

// Session is one active game. It owns its board exclusively; external
// code interacts only through the public operations and read-only
// queries.
//
// Invalid input (out-of-bounds coordinates, actions while paused or
// after game over) is silently ignored rather than reported. That
// permissive contract keeps calling UIs free of error plumbing.
//
// Thread-safety: all exported methods are safe for concurrent use.
type Session struct {
	id  string
	cfg Config

	mu          sync.Mutex
	board       *board.Board
	status      Status
	paused      bool
	firstAction bool
	flagsPlaced int
	revealed    int
	elapsed     int
	closed      bool

	scheduler sched.Scheduler
	timerTask sched.Task
	endTask   sched.Task
	presenter Presenter
	audio     Audio
	records   Records
	rng       *rand.Rand
}

// NewSession creates a fresh session for the given configuration. Mines
// are not placed yet; the first reveal or flag places them with a safe
// zone around the acted-on cell.
func NewSession(cfg Config, deps Deps) (*Session, error) {
	if deps.Scheduler == nil {
		return nil, fmt.Errorf("session requires a scheduler")
	}
	b, err := board.New(cfg.Rows, cfg.Cols)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	rng := deps.RNG
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>1))
	}
	b.TotalMines = cfg.Mines

	s := &Session{
		id:          uuid.Must(uuid.NewV7()).String(),
		cfg:         cfg,
		board:       b,
		status:      StatusNotStarted,
		firstAction: true,
		scheduler:   deps.Scheduler,
		presenter:   deps.Presenter,
		audio:       deps.Audio,
		records:     deps.Records,
		rng:         rng,
	}

	slog.Info("session created",
		"id", s.id,
		"difficulty", cfg.Difficulty,
		"rows", cfg.Rows,
		"cols", cfg.Cols,
		"mines", cfg.Mines,
	)

	if s.presenter != nil {
		s.presenter.BoardReset(cfg.Rows, cfg.Cols, cfg.Mines)
		s.presenter.MinesRemaining(cfg.Mines)
		s.presenter.TimerChanged(0, FormatClock(0))
	}
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Config returns the configuration the session was created with.
func (s *Session) Config() Config { return s.cfg }

// Reveal opens the cell at (row, col). No-op if the game is over or
// paused, the position is invalid, or the cell is already revealed or
// flagged. The first eligible action places mines excluding this cell
// and its neighbors, then starts the timer.
func (s *Session) Reveal(row, col int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.isOverLocked() || s.paused || !s.board.InBounds(row, col) {
		return
	}
	cell := s.board.At(row, col)
	if cell.Revealed || cell.Flagged {
		return
	}

	if s.firstAction {
		if !s.beginLocked(board.Pos{Row: row, Col: col}) {
			return
		}
	}

	if s.audio != nil && !cell.Mine {
		s.audio.Play(SoundReveal)
	}
	s.floodRevealLocked(board.Pos{Row: row, Col: col})

	if s.isOverLocked() {
		return
	}
	if s.revealed == s.board.SafeCells() {
		s.winLocked()
	}
}

// ToggleFlag flips the flag on the cell at (row, col). No-op if the
// game is over or paused, the position is invalid, or the cell is
// revealed. Flag count is uncapped, so the remaining-mines figure may
// go negative. Flagging also counts as the first action and triggers
// mine placement.
func (s *Session) ToggleFlag(row, col int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.isOverLocked() || s.paused || !s.board.InBounds(row, col) {
		return
	}
	cell := s.board.At(row, col)
	if cell.Revealed {
		return
	}

	if s.firstAction {
		if !s.beginLocked(board.Pos{Row: row, Col: col}) {
			return
		}
	}

	cell.Flagged = !cell.Flagged
	if cell.Flagged {
		s.flagsPlaced++
	} else {
		s.flagsPlaced--
	}

	if s.audio != nil {
		s.audio.Play(SoundFlag)
	}
	s.emitCellLocked(board.Pos{Row: row, Col: col})
	if s.presenter != nil {
		s.presenter.MinesRemaining(s.cfg.Mines - s.flagsPlaced)
	}
}

// TogglePause flips the pause flag. No-op once the game is over.
// Pausing stops the timer and blocks reveal/flag; resuming restarts the
// timer only if the game has actually started.
func (s *Session) TogglePause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.isOverLocked() {
		return
	}
	s.paused = !s.paused
	if s.paused {
		s.stopTimerLocked()
	} else if !s.firstAction {
		s.startTimerLocked()
	}
	slog.Debug("pause toggled", "id", s.id, "paused", s.paused)
	if s.presenter != nil {
		s.presenter.PauseChanged(s.paused)
	}
}

// Close cancels every pending task owned by the session. After Close
// returns, no further scheduled callback will mutate or report this
// session. The session is unusable afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopTimerLocked()
	if s.endTask != nil {
		s.endTask.Stop()
		s.endTask = nil
	}
	slog.Debug("session closed", "id", s.id)
}

// Status returns the session's lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// IsPaused reports the pause flag.
func (s *Session) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// IsOver reports whether the session reached a terminal state.
func (s *Session) IsOver() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOverLocked()
}

// ElapsedSeconds returns the running clock value.
func (s *Session) ElapsedSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// FlagsPlaced returns the number of currently placed flags.
func (s *Session) FlagsPlaced() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flagsPlaced
}

// RevealedCount returns the number of revealed non-mine cells.
func (s *Session) RevealedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealed
}

// CellAt returns a snapshot of one cell, and false for out-of-bounds
// positions.
func (s *Session) CellAt(row, col int) (CellView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.board.InBounds(row, col) {
		return CellView{}, false
	}
	return s.cellViewLocked(board.Pos{Row: row, Col: col}), true
}

// Snapshot returns a full copy of the presentable state. Hidden cells
// do not leak mine placement until the game is over.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	cells := make([][]CellView, s.board.Rows)
	for r := 0; r < s.board.Rows; r++ {
		cells[r] = make([]CellView, s.board.Cols)
		for c := 0; c < s.board.Cols; c++ {
			cells[r][c] = s.cellViewLocked(board.Pos{Row: r, Col: c})
		}
	}
	return Snapshot{
		Rows:           s.board.Rows,
		Cols:           s.board.Cols,
		TotalMines:     s.cfg.Mines,
		MinesRemaining: s.cfg.Mines - s.flagsPlaced,
		ElapsedSeconds: s.elapsed,
		Status:         s.status,
		Paused:         s.paused,
		Cells:          cells,
	}
}

// beginLocked performs deferred mine placement for the first action and
// starts the clock. Placement failure (impossible under the fixed
// presets, possible for degenerate custom boards) forfeits the action.
func (s *Session) beginLocked(exclude board.Pos) bool {
	if err := s.board.PlaceMines(exclude, s.cfg.Mines, s.rng); err != nil {
		slog.Error("mine placement failed", "id", s.id, "error", err)
		return false
	}
	s.firstAction = false
	s.status = StatusPlaying
	s.startTimerLocked()
	slog.Debug("mines placed", "id", s.id, "exclude_row", exclude.Row, "exclude_col", exclude.Col)
	return true
}

// floodRevealLocked reveals the cell at start and, for zero-adjacency
// cells, expands over 8-connected neighbors with an explicit work
// stack. Each cell is marked revealed when popped, before its neighbors
// are pushed, so every cell is visited at most once and the traversal
// terminates on any finite grid. The entire fill completes before the
// caller runs the win check.
func (s *Session) floodRevealLocked(start board.Pos) {
	stack := []board.Pos{start}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		cell := s.board.At(p.Row, p.Col)
		if cell.Revealed || cell.Flagged {
			continue
		}
		cell.Revealed = true

		if cell.Mine {
			// Reachable only for the directly acted cell. A flood fill
			// arriving here would mean placement broke the adjacency
			// invariant; either way the result is a loss.
			if p != start {
				slog.Error("flood fill reached a mine", "id", s.id, "row", p.Row, "col", p.Col)
			}
			cell.Exploded = true
			s.emitCellLocked(p)
			s.loseLocked()
			return
		}

		s.revealed++
		s.emitCellLocked(p)

		if cell.Adjacent == 0 {
			for _, n := range s.board.Neighbors(p.Row, p.Col) {
				nc := s.board.At(n.Row, n.Col)
				if !nc.Revealed && !nc.Flagged {
					stack = append(stack, n)
				}
			}
		}
	}
}

// loseLocked enters the Lost state: stops the clock, uncovers every
// mine, marks wrong flags, and schedules the terminal callback after
// the presentation delay.
func (s *Session) loseLocked() {
	s.status = StatusLost
	s.stopTimerLocked()
	s.uncoverMinesLocked()

	if s.audio != nil {
		s.audio.Play(SoundLoss)
	}
	slog.Info("game lost", "id", s.id, "elapsed", s.elapsed, "revealed", s.revealed)

	if s.presenter != nil {
		elapsed := s.elapsed
		s.endTask = s.scheduler.After(LossPresentationDelay, func() {
			s.presenter.GameEnded(false, elapsed, false)
		})
	}
}

// winLocked enters the Won state: stops the clock, uncovers remaining
// mines, consults the records collaborator, and reports the result
// immediately.
func (s *Session) winLocked() {
	s.status = StatusWon
	s.stopTimerLocked()
	s.uncoverMinesLocked()

	newRecord := false
	if s.records != nil {
		newRecord = s.records.SaveBestTimeIfBetter(s.cfg.Difficulty, s.elapsed)
	}
	if s.audio != nil {
		s.audio.Play(SoundWin)
	}
	slog.Info("game won", "id", s.id, "elapsed", s.elapsed, "new_record", newRecord)

	if s.presenter != nil {
		s.presenter.GameEnded(true, s.elapsed, newRecord)
	}
}

// uncoverMinesLocked reveals unflagged mines and marks flagged non-mine
// cells as wrong. Correctly flagged mines keep their flag untouched.
func (s *Session) uncoverMinesLocked() {
	for r := 0; r < s.board.Rows; r++ {
		for c := 0; c < s.board.Cols; c++ {
			cell := s.board.At(r, c)
			switch {
			case cell.Mine && !cell.Flagged && !cell.Revealed:
				cell.Revealed = true
				s.emitCellLocked(board.Pos{Row: r, Col: c})
			case !cell.Mine && cell.Flagged && !cell.WrongFlag:
				cell.WrongFlag = true
				s.emitCellLocked(board.Pos{Row: r, Col: c})
			}
		}
	}
}

func (s *Session) startTimerLocked() {
	if s.timerTask != nil {
		return
	}
	s.timerTask = s.scheduler.Every(time.Second, s.tick)
}

func (s *Session) stopTimerLocked() {
	if s.timerTask != nil {
		s.timerTask.Stop()
		s.timerTask = nil
	}
}

// tick advances the clock by one second. The guards make late-firing
// callbacks harmless: a tick delivered after pause, game over, or Close
// changes nothing.
func (s *Session) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.paused || s.isOverLocked() || s.firstAction {
		return
	}
	s.elapsed++
	if s.presenter != nil {
		s.presenter.TimerChanged(s.elapsed, FormatClock(s.elapsed))
	}
}

func (s *Session) isOverLocked() bool {
	return s.status == StatusWon || s.status == StatusLost
}

func (s *Session) emitCellLocked(p board.Pos) {
	if s.presenter != nil {
		s.presenter.CellChanged(p, s.cellViewLocked(p))
	}
}

func (s *Session) cellViewLocked(p board.Pos) CellView {
	cell := s.board.At(p.Row, p.Col)
	v := CellView{
		Revealed:  cell.Revealed,
		Flagged:   cell.Flagged,
		Exploded:  cell.Exploded,
		WrongFlag: cell.WrongFlag,
	}
	if cell.Revealed {
		v.Mine = cell.Mine
		v.Adjacent = cell.Adjacent
	} else if s.isOverLocked() {
		v.Mine = cell.Mine
	}
	return v
}

// FormatClock renders elapsed seconds as mm:ss. Minutes keep growing
// past 99 rather than wrapping.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
