package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// BestTime is one stored record.
type BestTime struct {
	Difficulty string
	Seconds    int
	Player     string
	UpdatedAt  string
}

// BestTime returns the stored best time for a difficulty and whether
// one exists.
func (s *Store) BestTime(ctx context.Context, difficulty string) (int, bool, error) {
	var seconds int
	err := s.db.QueryRowContext(ctx,
		`SELECT seconds FROM best_times WHERE difficulty = ?`, difficulty,
	).Scan(&seconds)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read best time for %s: %w", difficulty, err)
	}
	return seconds, true, nil
}

// SaveBestTimeIfBetter stores the time when it beats (or first sets)
// the record for the difficulty, reporting whether it did. Player names
// are NFC-normalized before storage so the same name always compares
// and displays identically.
func (s *Store) SaveBestTimeIfBetter(ctx context.Context, difficulty string, seconds int, player string) (bool, error) {
	if seconds < 0 {
		return false, fmt.Errorf("negative time %d for %s", seconds, difficulty)
	}
	player = norm.NFC.String(player)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin save best time: %w", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRowContext(ctx,
		`SELECT seconds FROM best_times WHERE difficulty = ?`, difficulty,
	).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// First record for this difficulty.
	case err != nil:
		return false, fmt.Errorf("read best time for %s: %w", difficulty, err)
	case seconds >= current:
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO best_times (difficulty, seconds, player, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(difficulty) DO UPDATE SET
			seconds = excluded.seconds,
			player = excluded.player,
			updated_at = excluded.updated_at
	`, difficulty, seconds, player)
	if err != nil {
		return false, fmt.Errorf("write best time for %s: %w", difficulty, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit best time for %s: %w", difficulty, err)
	}
	return true, nil
}

// AllBestTimes returns every stored record ordered by difficulty name.
func (s *Store) AllBestTimes(ctx context.Context) ([]BestTime, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT difficulty, seconds, player, updated_at
		FROM best_times ORDER BY difficulty
	`)
	if err != nil {
		return nil, fmt.Errorf("list best times: %w", err)
	}
	defer rows.Close()

	var out []BestTime
	for rows.Next() {
		var bt BestTime
		if err := rows.Scan(&bt.Difficulty, &bt.Seconds, &bt.Player, &bt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan best time: %w", err)
		}
		out = append(out, bt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list best times: %w", err)
	}
	return out, nil
}

// Setting returns a settings value and whether the key exists.
func (s *Store) Setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting upserts a settings value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}
