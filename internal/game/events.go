package game

import "github.com/roach88/minesweep/internal/board"

// Difficulty names one of the fixed board presets.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Config describes one playable board configuration.
type Config struct {
	Difficulty Difficulty
	Rows       int
	Cols       int
	Mines      int
}

// Sound identifies a fire-and-forget audio cue.
type Sound string

const (
	SoundReveal Sound = "reveal"
	SoundFlag   Sound = "flag"
	SoundWin    Sound = "win"
	SoundLoss   Sound = "loss"
)

// CellView is a cell snapshot safe to hand to the presentation layer.
// Mine is only truthful once the cell is revealed or the game is over;
// hidden cells never leak mine placement.
type CellView struct {
	Revealed  bool `json:"revealed"`
	Flagged   bool `json:"flagged"`
	Mine      bool `json:"mine"`
	Exploded  bool `json:"exploded"`
	WrongFlag bool `json:"wrong_flag"`
	Adjacent  int  `json:"adjacent"`
}

// Snapshot is a full read-only copy of the presentable game state.
type Snapshot struct {
	Rows           int          `json:"rows"`
	Cols           int          `json:"cols"`
	TotalMines     int          `json:"total_mines"`
	MinesRemaining int          `json:"mines_remaining"`
	ElapsedSeconds int          `json:"elapsed_seconds"`
	Status         Status       `json:"status"`
	Paused         bool         `json:"paused"`
	Cells          [][]CellView `json:"cells"`
}

// Presenter receives rendering callbacks from the session. All methods
// are invoked synchronously while the session mutex is held, except
// GameEnded on a loss, which arrives after the presentation delay.
// Implementations must not call back into the session from within a
// callback.
type Presenter interface {
	// BoardReset announces a fresh blank board.
	BoardReset(rows, cols, mines int)

	// CellChanged fires after every single-cell mutation.
	CellChanged(p board.Pos, c CellView)

	// MinesRemaining reports totalMines - flagsPlaced; may be negative.
	MinesRemaining(n int)

	// TimerChanged reports elapsed whole seconds and an mm:ss display.
	TimerChanged(seconds int, display string)

	// GameEnded reports the terminal result. newRecord is only
	// meaningful when won is true.
	GameEnded(won bool, seconds int, newRecord bool)

	// PauseChanged reports pause overlay visibility.
	PauseChanged(paused bool)
}

// Audio plays fire-and-forget sound cues.
type Audio interface {
	Play(s Sound)
}

// Records is the persistence collaborator for best times. Failures are
// owned by the implementation and never surface into the core; an
// implementation that cannot persist simply reports no record.
type Records interface {
	// BestTime returns the stored best time for a difficulty, and
	// whether one exists.
	BestTime(d Difficulty) (seconds int, ok bool)

	// SaveBestTimeIfBetter stores the time if it beats (or sets) the
	// stored best, reporting whether it is a new record.
	SaveBestTimeIfBetter(d Difficulty, seconds int) bool
}
