package board

import (
	"fmt"
	"math/rand/v2"
)

// Pos identifies a single cell by row and column.
type Pos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Cell holds the state of one grid position.
//
// Cells have no identity beyond their (row, col) slot; they are created
// blank at board construction and mutated in place by reveal/flag
// operations. WrongFlag marks a flagged non-mine cell after a loss so
// the presentation layer can emphasize it; correctly flagged mines keep
// their flag untouched.
type Cell struct {
	Mine      bool
	Revealed  bool
	Flagged   bool
	Exploded  bool
	WrongFlag bool
	Adjacent  int // mines among the up-to-8 neighbors; 0 for mine cells
}

// Board is a rows x cols grid of cells plus the configured mine total.
//
// INVARIANTS (after PlaceMines or PlaceFixed):
//   - exactly TotalMines cells have Mine set
//   - Adjacent of every non-mine cell equals the count of mine cells
//     among its bounds-clipped 8 neighbors
//   - placement happens at most once per board
type Board struct {
	Rows       int
	Cols       int
	TotalMines int

	cells  [][]Cell
	placed bool
}

// New returns an all-blank board with no mines placed.
func New(rows, cols int) (*Board, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("board dimensions must be positive, got %dx%d", rows, cols)
	}
	cells := make([][]Cell, rows)
	for r := range cells {
		cells[r] = make([]Cell, cols)
	}
	return &Board{Rows: rows, Cols: cols, cells: cells}, nil
}

// InBounds reports whether (row, col) lies on the grid.
func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.Rows && col >= 0 && col < b.Cols
}

// At returns a pointer to the cell at (row, col).
// The position must be in bounds; callers check InBounds first.
func (b *Board) At(row, col int) *Cell {
	return &b.cells[row][col]
}

// Placed reports whether mines have been placed on this board.
func (b *Board) Placed() bool {
	return b.placed
}

// SafeCells returns the number of non-mine cells, i.e. the revealed
// count at which the board is won.
func (b *Board) SafeCells() int {
	return b.Rows*b.Cols - b.TotalMines
}

// Neighbors returns the bounds-clipped positions of the up-to-8 cells
// surrounding (row, col).
func (b *Board) Neighbors(row, col int) []Pos {
	out := make([]Pos, 0, 8)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			if b.InBounds(row+dr, col+dc) {
				out = append(out, Pos{Row: row + dr, Col: col + dc})
			}
		}
	}
	return out
}

// PlaceMines places mineCount mines uniformly at random, excluding a
// safe zone around the first-acted cell, then recomputes adjacency.
//
// The safe zone is the excluded cell plus its bounds-clipped neighbors.
// When the full zone would leave fewer than mineCount candidate cells
// (degenerate tiny boards), the zone shrinks to the single excluded
// cell so placement stays possible; an error is returned only when even
// that leaves too few candidates.
//
// Placement happens at most once per board; a second call is an error.
func (b *Board) PlaceMines(exclude Pos, mineCount int, rng *rand.Rand) error {
	if b.placed {
		return fmt.Errorf("mines already placed")
	}
	if !b.InBounds(exclude.Row, exclude.Col) {
		return fmt.Errorf("exclude position %v out of bounds", exclude)
	}
	if mineCount < 1 {
		return fmt.Errorf("mine count must be positive, got %d", mineCount)
	}

	zone := make(map[Pos]bool, 9)
	zone[exclude] = true
	for _, n := range b.Neighbors(exclude.Row, exclude.Col) {
		zone[n] = true
	}
	if mineCount > b.Rows*b.Cols-len(zone) {
		// Shrink to the single excluded cell so the first action is
		// still safe even when the 3x3 zone cannot be afforded.
		zone = map[Pos]bool{exclude: true}
	}
	if mineCount > b.Rows*b.Cols-len(zone) {
		return fmt.Errorf("cannot place %d mines on %dx%d board excluding %d cells",
			mineCount, b.Rows, b.Cols, len(zone))
	}

	candidates := make([]Pos, 0, b.Rows*b.Cols-len(zone))
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			if p := (Pos{Row: r, Col: c}); !zone[p] {
				candidates = append(candidates, p)
			}
		}
	}

	// Fisher-Yates shuffle, then take the prefix as mines.
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	for _, p := range candidates[:mineCount] {
		b.cells[p.Row][p.Col].Mine = true
	}

	b.TotalMines = mineCount
	b.placed = true
	b.recomputeAdjacency()
	return nil
}

// PlaceFixed places mines at exactly the given positions and recomputes
// adjacency. Used for the guided demo's reproducible layout and for
// tests; duplicate positions are an error so TotalMines stays exact.
func (b *Board) PlaceFixed(mines []Pos) error {
	if b.placed {
		return fmt.Errorf("mines already placed")
	}
	if len(mines) < 1 || len(mines) > b.Rows*b.Cols {
		return fmt.Errorf("fixed layout has %d mines for %dx%d board", len(mines), b.Rows, b.Cols)
	}
	for _, p := range mines {
		if !b.InBounds(p.Row, p.Col) {
			return fmt.Errorf("fixed mine %v out of bounds", p)
		}
		if b.cells[p.Row][p.Col].Mine {
			return fmt.Errorf("duplicate fixed mine at %v", p)
		}
		b.cells[p.Row][p.Col].Mine = true
	}
	b.TotalMines = len(mines)
	b.placed = true
	b.recomputeAdjacency()
	return nil
}

// recomputeAdjacency refreshes Adjacent for every non-mine cell.
func (b *Board) recomputeAdjacency() {
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			if b.cells[r][c].Mine {
				b.cells[r][c].Adjacent = 0
				continue
			}
			b.cells[r][c].Adjacent = b.countAdjacentMines(r, c)
		}
	}
}

// countAdjacentMines sums the mine flag over the bounds-clipped
// neighbors of (row, col).
func (b *Board) countAdjacentMines(row, col int) int {
	count := 0
	for _, n := range b.Neighbors(row, col) {
		if b.cells[n.Row][n.Col].Mine {
			count++
		}
	}
	return count
}

// MineCount counts cells with Mine set. Intended for invariant checks
// in tests; production code trusts TotalMines.
func (b *Board) MineCount() int {
	count := 0
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			if b.cells[r][c].Mine {
				count++
			}
		}
	}
	return count
}
