// Package view renders game snapshots for text presentation. The core
// holds no rendering state; everything here works off the read-only
// snapshots the session exposes.
package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/minesweep/internal/game"
)

// Cell symbols. Wrong flags outrank flags so the post-loss marking is
// visible; hidden cells show nothing about mine placement.
const (
	symHidden   = "#"
	symFlag     = "F"
	symWrong    = "X"
	symMine     = "*"
	symExploded = "!"
	symBlank    = "."
)

// Symbol returns the single-character rendering of one cell.
func Symbol(c game.CellView) string {
	switch {
	case c.WrongFlag:
		return symWrong
	case c.Flagged:
		return symFlag
	case !c.Revealed && c.Mine:
		// Only visible after game over; hidden cells never carry Mine.
		return symMine
	case !c.Revealed:
		return symHidden
	case c.Exploded:
		return symExploded
	case c.Mine:
		return symMine
	case c.Adjacent == 0:
		return symBlank
	default:
		return strconv.Itoa(c.Adjacent)
	}
}

// Render returns a fixed-width text rendering of a snapshot: a status
// header followed by the grid with row and column indexes (indexes
// beyond 9 wrap to their last digit).
func Render(s game.Snapshot) string {
	var b strings.Builder

	status := string(s.Status)
	if s.Paused {
		status += " (paused)"
	}
	fmt.Fprintf(&b, "mines %d  time %s  %s\n", s.MinesRemaining, game.FormatClock(s.ElapsedSeconds), status)

	b.WriteString("   ")
	for c := 0; c < s.Cols; c++ {
		fmt.Fprintf(&b, " %d", c%10)
	}
	b.WriteByte('\n')

	for r := 0; r < s.Rows; r++ {
		fmt.Fprintf(&b, "%2d ", r)
		for c := 0; c < s.Cols; c++ {
			fmt.Fprintf(&b, " %s", Symbol(s.Cells[r][c]))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
