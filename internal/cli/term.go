package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/roach88/minesweep/internal/board"
	"github.com/roach88/minesweep/internal/demo"
	"github.com/roach88/minesweep/internal/game"
)

// termPresenter is the terminal presentation collaborator. The play
// loop re-renders the whole board after every command, so cell-level
// and timer events stay silent; only terminal results and pause
// transitions print lines of their own.
type termPresenter struct {
	mu  sync.Mutex
	out io.Writer
}

var _ game.Presenter = (*termPresenter)(nil)

func (p *termPresenter) BoardReset(rows, cols, mines int)         {}
func (p *termPresenter) CellChanged(board.Pos, game.CellView)     {}
func (p *termPresenter) MinesRemaining(int)                       {}
func (p *termPresenter) TimerChanged(seconds int, display string) {}

func (p *termPresenter) GameEnded(won bool, seconds int, newRecord bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if won {
		fmt.Fprintf(p.out, "\nYou won in %s!", game.FormatClock(seconds))
		if newRecord {
			fmt.Fprint(p.out, " New best time.")
		}
		fmt.Fprintln(p.out)
		return
	}
	fmt.Fprintf(p.out, "\nBoom. Game over after %s.\n", game.FormatClock(seconds))
}

func (p *termPresenter) PauseChanged(paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if paused {
		fmt.Fprintln(p.out, "Paused. Enter p to resume.")
	} else {
		fmt.Fprintln(p.out, "Resumed.")
	}
}

// termNarrator prints guided-demo captions and pointers. done is
// closed once the demo ends, whichever way it ends.
type termNarrator struct {
	mu   sync.Mutex
	out  io.Writer
	done chan struct{}
}

var _ demo.Narrator = (*termNarrator)(nil)

func newTermNarrator(out io.Writer) *termNarrator {
	return &termNarrator{out: out, done: make(chan struct{})}
}

func (n *termNarrator) StepStarted(index int, caption string, at demo.CaptionPos, target board.Pos) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "[step %d] %s\n", index+1, caption)
}

func (n *termNarrator) PointToNumber(p board.Pos) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "         look at (%d,%d)\n", p.Row, p.Col)
}

func (n *termNarrator) HighlightFlag(p board.Pos) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "         flag at (%d,%d)\n", p.Row, p.Col)
}

func (n *termNarrator) DemoEnded(finished bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	select {
	case <-n.done:
	default:
		close(n.done)
	}
}

// bellAudio rings the terminal bell for each cue. Used when the sound
// setting is on; otherwise the session gets a nil Audio.
type bellAudio struct {
	mu  sync.Mutex
	out io.Writer
}

var _ game.Audio = (*bellAudio)(nil)

func (a *bellAudio) Play(game.Sound) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprint(a.out, "\a")
}
