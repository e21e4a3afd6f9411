package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/minesweep/internal/game"
)

// Recorder adapts a Store to the game.Records interface. Storage
// failures never reach the game core: they are logged here and reported
// as "no record" / "not a record".
type Recorder struct {
	store   *Store
	player  string
	timeout time.Duration
}

// NewRecorder wraps a store for use by game sessions. player is the
// name written alongside new records; empty is fine.
func NewRecorder(s *Store, player string) *Recorder {
	return &Recorder{store: s, player: player, timeout: 2 * time.Second}
}

// BestTime implements game.Records.
func (r *Recorder) BestTime(d game.Difficulty) (int, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	seconds, ok, err := r.store.BestTime(ctx, string(d))
	if err != nil {
		slog.Warn("best time lookup failed", "difficulty", d, "error", err)
		return 0, false
	}
	return seconds, ok
}

// SaveBestTimeIfBetter implements game.Records.
func (r *Recorder) SaveBestTimeIfBetter(d game.Difficulty, seconds int) bool {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	isRecord, err := r.store.SaveBestTimeIfBetter(ctx, string(d), seconds, r.player)
	if err != nil {
		slog.Warn("best time save failed", "difficulty", d, "seconds", seconds, "error", err)
		return false
	}
	return isRecord
}
