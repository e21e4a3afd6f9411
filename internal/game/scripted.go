package game

import (
	"fmt"
	"log/slog"

	"github.com/roach88/minesweep/internal/board"
)

// NewScriptedSession creates a session over a fixed, pre-placed mine
// layout instead of deferred random placement. The guided demo uses
// this so every run is bit-for-bit reproducible. The session starts in
// Playing with the timer running; the board's mine total comes from the
// layout, not cfg.Mines.
func NewScriptedSession(cfg Config, layout []board.Pos, deps Deps) (*Session, error) {
	if deps.Scheduler == nil {
		return nil, fmt.Errorf("session requires a scheduler")
	}
	b, err := board.New(cfg.Rows, cfg.Cols)
	if err != nil {
		return nil, fmt.Errorf("new scripted session: %w", err)
	}
	if err := b.PlaceFixed(layout); err != nil {
		return nil, fmt.Errorf("new scripted session: %w", err)
	}
	cfg.Mines = len(layout)

	s := &Session{
		id:        "demo-" + string(cfg.Difficulty),
		cfg:       cfg,
		board:     b,
		status:    StatusPlaying,
		scheduler: deps.Scheduler,
		presenter: deps.Presenter,
		audio:     deps.Audio,
		records:   deps.Records,
	}
	s.startTimerLocked()

	slog.Info("scripted session created", "id", s.id, "rows", cfg.Rows, "cols", cfg.Cols, "mines", cfg.Mines)

	if s.presenter != nil {
		s.presenter.BoardReset(cfg.Rows, cfg.Cols, cfg.Mines)
		s.presenter.MinesRemaining(cfg.Mines)
		s.presenter.TimerChanged(0, FormatClock(0))
	}
	return s, nil
}

// RevealScripted reveals one cell with an overridden displayed
// neighbor number, bypassing flood fill and the win check. The guided
// demo uses this to show a fixed visual pattern regardless of the true
// computed adjacency; it is a deliberate divergence from real play and
// must never be called on a normal session.
func (s *Session) RevealScripted(row, col, display int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.isOverLocked() || !s.board.InBounds(row, col) {
		return
	}
	cell := s.board.At(row, col)
	if cell.Revealed || cell.Flagged {
		return
	}
	cell.Revealed = true
	cell.Adjacent = display
	if !cell.Mine {
		s.revealed++
	}
	if s.audio != nil {
		s.audio.Play(SoundReveal)
	}
	s.emitCellLocked(board.Pos{Row: row, Col: col})
}
