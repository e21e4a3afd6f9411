package demo

import (
	"time"

	"github.com/roach88/minesweep/internal/board"
)

// ReadingDelay is the fixed pause between a step's caption appearing
// and its action being performed, so the viewer can read first.
const ReadingDelay = 2500 * time.Millisecond

// Action is the kind of synthetic input a step performs.
type Action string

const (
	// ActionReveal applies the step's hardcoded reveal pattern with
	// overridden displayed numbers. It bypasses real flood fill so the
	// demo always shows the same layout.
	ActionReveal Action = "reveal"

	// ActionFlag toggles a flag through the real game operation.
	ActionFlag Action = "flag"

	// ActionPointToNumber is presentation only: the narrator points at
	// a revealed number.
	ActionPointToNumber Action = "point_to_number"

	// ActionHighlightFlag is presentation only: the narrator highlights
	// a placed flag.
	ActionHighlightFlag Action = "highlight_flag"

	// ActionTriggerGameOver reveals a mine through the real reveal
	// operation, ending the demo game via the normal loss path.
	ActionTriggerGameOver Action = "trigger_game_over"
)

// CaptionPos places a step's caption relative to the board.
type CaptionPos string

const (
	CaptionAbove CaptionPos = "above"
	CaptionBelow CaptionPos = "below"
)

// Reveal is one cell of a scripted reveal pattern. Display is the
// number shown in the cell, regardless of true adjacency.
type Reveal struct {
	Row     int
	Col     int
	Display int
}

// Step is one scripted demo action.
type Step struct {
	Target       board.Pos
	Caption      string
	CaptionAt    CaptionPos
	Action       Action
	Reveals      []Reveal // used by ActionReveal only
	AdvanceDelay time.Duration
}

// Script is a fixed mine layout plus the steps played over it.
type Script struct {
	Rows  int
	Cols  int
	Mines []board.Pos
	Steps []Step
}

// DefaultScript is the built-in guided-play sequence: a 9x9 board with
// a fixed layout, walking through reveal, numbers, flagging, and the
// game-over screen.
func DefaultScript() Script {
	return Script{
		Rows: 9,
		Cols: 9,
		Mines: []board.Pos{
			{Row: 0, Col: 2}, {Row: 0, Col: 7},
			{Row: 2, Col: 1}, {Row: 2, Col: 6},
			{Row: 4, Col: 0}, {Row: 5, Col: 7},
			{Row: 6, Col: 2}, {Row: 7, Col: 5},
			{Row: 8, Col: 0}, {Row: 8, Col: 8},
		},
		Steps: []Step{
			{
				Target:    board.Pos{Row: 4, Col: 4},
				Caption:   "Tap a square to reveal it. A number tells you how many mines touch that square.",
				CaptionAt: CaptionAbove,
				Action:    ActionReveal,
				Reveals: []Reveal{
					{Row: 4, Col: 4, Display: 0},
					{Row: 3, Col: 3, Display: 0}, {Row: 3, Col: 4, Display: 0}, {Row: 3, Col: 5, Display: 1},
					{Row: 4, Col: 3, Display: 0}, {Row: 4, Col: 5, Display: 1},
					{Row: 5, Col: 3, Display: 1}, {Row: 5, Col: 4, Display: 1}, {Row: 5, Col: 5, Display: 2},
					{Row: 2, Col: 3, Display: 1}, {Row: 2, Col: 4, Display: 1}, {Row: 2, Col: 5, Display: 2},
				},
				AdvanceDelay: 3000 * time.Millisecond,
			},
			{
				Target:       board.Pos{Row: 5, Col: 5},
				Caption:      "This 2 means exactly two mines touch this square.",
				CaptionAt:    CaptionBelow,
				Action:       ActionPointToNumber,
				AdvanceDelay: 2800 * time.Millisecond,
			},
			{
				Target:       board.Pos{Row: 5, Col: 7},
				Caption:      "Hold a square (or right-click) to flag a suspected mine.",
				CaptionAt:    CaptionBelow,
				Action:       ActionFlag,
				AdvanceDelay: 2600 * time.Millisecond,
			},
			{
				Target:       board.Pos{Row: 5, Col: 7},
				Caption:      "Flags keep track of mines you have found. The counter shows how many are left.",
				CaptionAt:    CaptionAbove,
				Action:       ActionHighlightFlag,
				AdvanceDelay: 2400 * time.Millisecond,
			},
			{
				Target:       board.Pos{Row: 7, Col: 5},
				Caption:      "Flag every mine and reveal everything else to win.",
				CaptionAt:    CaptionAbove,
				Action:       ActionFlag,
				AdvanceDelay: 2600 * time.Millisecond,
			},
			{
				Target:       board.Pos{Row: 2, Col: 1},
				Caption:      "But reveal a mine, and the game is over.",
				CaptionAt:    CaptionBelow,
				Action:       ActionTriggerGameOver,
				AdvanceDelay: 2000 * time.Millisecond,
			},
		},
	}
}
