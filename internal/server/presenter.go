package server

import (
	"github.com/roach88/minesweep/internal/board"
	"github.com/roach88/minesweep/internal/demo"
	"github.com/roach88/minesweep/internal/game"
)

// broadcaster implements game.Presenter and demo.Narrator by pushing
// events to every websocket client.
type broadcaster struct {
	hub *hub
}

var (
	_ game.Presenter = (*broadcaster)(nil)
	_ demo.Narrator  = (*broadcaster)(nil)
)

func (b *broadcaster) BoardReset(rows, cols, mines int) {
	b.hub.broadcast(event{Type: "board_reset", Rows: rows, Cols: cols, Mines: mines})
}

func (b *broadcaster) CellChanged(p board.Pos, c game.CellView) {
	b.hub.broadcast(event{Type: "cell", Row: p.Row, Col: p.Col, Cell: c})
}

func (b *broadcaster) MinesRemaining(n int) {
	b.hub.broadcast(event{Type: "mines_remaining", Value: n})
}

func (b *broadcaster) TimerChanged(seconds int, display string) {
	b.hub.broadcast(event{Type: "timer", Seconds: seconds, Display: display})
}

func (b *broadcaster) GameEnded(won bool, seconds int, newRecord bool) {
	b.hub.broadcast(event{Type: "game_end", Won: won, Seconds: seconds, NewRecord: newRecord})
}

func (b *broadcaster) PauseChanged(paused bool) {
	b.hub.broadcast(event{Type: "pause", Paused: paused})
}

func (b *broadcaster) StepStarted(index int, caption string, at demo.CaptionPos, target board.Pos) {
	b.hub.broadcast(event{
		Type: "demo_step", Index: index, Caption: caption,
		CaptionAt: string(at), Row: target.Row, Col: target.Col,
	})
}

func (b *broadcaster) PointToNumber(p board.Pos) {
	b.hub.broadcast(event{Type: "demo_point", Row: p.Row, Col: p.Col})
}

func (b *broadcaster) HighlightFlag(p board.Pos) {
	b.hub.broadcast(event{Type: "demo_highlight_flag", Row: p.Row, Col: p.Col})
}

func (b *broadcaster) DemoEnded(finished bool) {
	b.hub.broadcast(event{Type: "demo_end", Finished: finished})
}
