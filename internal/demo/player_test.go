package demo

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/minesweep/internal/board"
	"github.com/roach88/minesweep/internal/game"
	"github.com/roach88/minesweep/internal/testutil"
)

// recNarrator records narration callbacks.
type recNarrator struct {
	mu         sync.Mutex
	steps      []int
	captions   []string
	points     []board.Pos
	highlights []board.Pos
	ends       []bool
}

func (n *recNarrator) StepStarted(index int, caption string, at CaptionPos, target board.Pos) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.steps = append(n.steps, index)
	n.captions = append(n.captions, caption)
}

func (n *recNarrator) PointToNumber(p board.Pos) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.points = append(n.points, p)
}

func (n *recNarrator) HighlightFlag(p board.Pos) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.highlights = append(n.highlights, p)
}

func (n *recNarrator) DemoEnded(finished bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ends = append(n.ends, finished)
}

func (n *recNarrator) stepStarts() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]int(nil), n.steps...)
}

func (n *recNarrator) endEvents() []bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]bool(nil), n.ends...)
}

// twoStepScript keeps timing arithmetic simple: reveal then flag on a
// 5x5 board with one mine.
func twoStepScript() Script {
	return Script{
		Rows:  5,
		Cols:  5,
		Mines: []board.Pos{{Row: 0, Col: 0}},
		Steps: []Step{
			{
				Target:       board.Pos{Row: 4, Col: 4},
				Caption:      "reveal a square",
				CaptionAt:    CaptionAbove,
				Action:       ActionReveal,
				Reveals:      []Reveal{{Row: 4, Col: 4, Display: 1}},
				AdvanceDelay: 1000 * time.Millisecond,
			},
			{
				Target:       board.Pos{Row: 0, Col: 0},
				Caption:      "flag the mine",
				CaptionAt:    CaptionBelow,
				Action:       ActionFlag,
				AdvanceDelay: 1000 * time.Millisecond,
			},
		},
	}
}

func newTestPlayer(t *testing.T, script Script) (*Player, *recNarrator, *testutil.ManualScheduler) {
	t.Helper()
	ms := testutil.NewManualScheduler()
	narrator := &recNarrator{}
	p, err := NewPlayer(script, game.Deps{Scheduler: ms}, narrator)
	require.NoError(t, err)
	return p, narrator, ms
}

func TestNewPlayer_Validation(t *testing.T) {
	ms := testutil.NewManualScheduler()
	_, err := NewPlayer(twoStepScript(), game.Deps{}, nil)
	assert.Error(t, err, "scheduler is required")

	_, err = NewPlayer(Script{Rows: 5, Cols: 5, Mines: []board.Pos{{}}}, game.Deps{Scheduler: ms}, nil)
	assert.Error(t, err, "empty script is rejected")
}

func TestStart_AnnouncesStepThenActsAfterReadingDelay(t *testing.T) {
	p, narrator, ms := newTestPlayer(t, twoStepScript())
	require.NoError(t, p.Start())

	assert.Equal(t, StateRunning, p.State())
	assert.Equal(t, []int{0}, narrator.stepStarts(), "caption shows immediately")

	session := p.Session()
	require.NotNil(t, session)
	v, _ := session.CellAt(4, 4)
	assert.False(t, v.Revealed, "action waits for the reading delay")

	ms.Advance(ReadingDelay - time.Millisecond)
	v, _ = session.CellAt(4, 4)
	assert.False(t, v.Revealed)

	ms.Advance(time.Millisecond)
	v, _ = session.CellAt(4, 4)
	assert.True(t, v.Revealed)
	assert.Equal(t, 1, v.Adjacent, "scripted display number wins over true adjacency")
}

func TestPlayer_AdvancesThroughStepsAndFinishes(t *testing.T) {
	p, narrator, ms := newTestPlayer(t, twoStepScript())
	require.NoError(t, p.Start())
	session := p.Session()

	ms.Advance(ReadingDelay)
	ms.Advance(1000 * time.Millisecond)
	assert.Equal(t, []int{0, 1}, narrator.stepStarts())
	assert.Equal(t, 1, p.StepIndex())

	ms.Advance(ReadingDelay)
	assert.Equal(t, 1, session.FlagsPlaced())

	ms.Advance(1000 * time.Millisecond)
	assert.Equal(t, StateFinished, p.State())
	assert.Equal(t, []bool{true}, narrator.endEvents())
	assert.NotNil(t, p.Session(), "board stays visible after the script ends")
}

func TestPause_MidReadingDelayCancelsPendingAction(t *testing.T) {
	p, narrator, ms := newTestPlayer(t, twoStepScript())
	require.NoError(t, p.Start())
	session := p.Session()

	ms.Advance(1000 * time.Millisecond)
	p.Pause()
	assert.Equal(t, StatePaused, p.State())
	assert.True(t, session.IsPaused(), "game clock pauses with the demo")

	ms.Advance(10 * time.Second)
	v, _ := session.CellAt(4, 4)
	assert.False(t, v.Revealed, "cancelled callback must not fire")

	p.Resume()
	assert.Equal(t, StateRunning, p.State())
	assert.False(t, session.IsPaused())
	assert.Equal(t, []int{0, 0}, narrator.stepStarts(), "current step restarts from its beginning")

	// The reading delay restarts in full, measured from the resume.
	ms.Advance(ReadingDelay - time.Millisecond)
	v, _ = session.CellAt(4, 4)
	assert.False(t, v.Revealed)
	ms.Advance(time.Millisecond)
	v, _ = session.CellAt(4, 4)
	assert.True(t, v.Revealed)
}

func TestPause_BetweenActionAndAdvanceRepeatsTheStep(t *testing.T) {
	p, narrator, ms := newTestPlayer(t, twoStepScript())
	require.NoError(t, p.Start())

	ms.Advance(ReadingDelay)
	ms.Advance(500 * time.Millisecond)
	p.Pause()
	p.Resume()

	// Step 0 runs again end to end; the repeated scripted reveal is a
	// no-op on the already revealed cell.
	ms.Advance(ReadingDelay)
	ms.Advance(1000 * time.Millisecond)
	assert.Equal(t, []int{0, 0, 1}, narrator.stepStarts())
	assert.Equal(t, 1, p.StepIndex())
}

func TestPause_WhenNotRunningIsNoOp(t *testing.T) {
	p, _, _ := newTestPlayer(t, twoStepScript())
	p.Pause()
	assert.Equal(t, StateIdle, p.State())

	p.Resume()
	assert.Equal(t, StateIdle, p.State())
}

func TestStop_CancelsEverything(t *testing.T) {
	p, narrator, ms := newTestPlayer(t, twoStepScript())
	require.NoError(t, p.Start())

	ms.Advance(1000 * time.Millisecond)
	p.Stop()

	assert.Equal(t, StateIdle, p.State())
	assert.Nil(t, p.Session())
	assert.Equal(t, []bool{false}, narrator.endEvents())
	assert.Equal(t, 0, ms.Pending(), "no timers survive Stop")

	ms.Advance(time.Minute)
	assert.Equal(t, []int{0}, narrator.stepStarts(), "no further steps after Stop")
}

func TestStop_WhenIdleIsNoOp(t *testing.T) {
	p, narrator, _ := newTestPlayer(t, twoStepScript())
	p.Stop()
	assert.Empty(t, narrator.endEvents())
}

func TestStart_RestartsFromStepZero(t *testing.T) {
	p, narrator, ms := newTestPlayer(t, twoStepScript())
	require.NoError(t, p.Start())
	first := p.Session()

	ms.Advance(ReadingDelay)
	ms.Advance(1000 * time.Millisecond)
	require.Equal(t, 1, p.StepIndex())

	require.NoError(t, p.Start())
	assert.NotSame(t, first, p.Session(), "restart builds a fresh session")
	assert.Equal(t, 0, p.StepIndex())
	assert.Equal(t, []int{0, 1, 0}, narrator.stepStarts())

	v, _ := p.Session().CellAt(4, 4)
	assert.False(t, v.Revealed)
}

func TestTriggerGameOver_EndsGameThroughNormalLossPath(t *testing.T) {
	script := twoStepScript()
	// Flag a safe cell instead so the mine stays revealable.
	script.Steps[1].Target = board.Pos{Row: 2, Col: 2}
	script.Steps = append(script.Steps, Step{
		Target:       board.Pos{Row: 0, Col: 0},
		Caption:      "reveal a mine and the game is over",
		CaptionAt:    CaptionBelow,
		Action:       ActionTriggerGameOver,
		AdvanceDelay: 2000 * time.Millisecond,
	})
	p, narrator, ms := newTestPlayer(t, script)
	require.NoError(t, p.Start())
	session := p.Session()

	ms.Advance(ReadingDelay)
	ms.Advance(1000 * time.Millisecond)
	ms.Advance(ReadingDelay)
	ms.Advance(1000 * time.Millisecond)
	require.Equal(t, 2, p.StepIndex())

	ms.Advance(ReadingDelay)
	assert.Equal(t, game.StatusLost, session.Status())
	assert.True(t, p.ScriptedGameOver())

	ms.Advance(2000 * time.Millisecond)
	assert.Equal(t, StateFinished, p.State())
	assert.Equal(t, []bool{true}, narrator.endEvents())
}

func TestDefaultScript_PlaysThrough(t *testing.T) {
	script := DefaultScript()
	p, narrator, ms := newTestPlayer(t, script)
	require.NoError(t, p.Start())
	session := p.Session()

	for _, step := range script.Steps {
		ms.Advance(ReadingDelay)
		ms.Advance(step.AdvanceDelay)
	}

	assert.Equal(t, StateFinished, p.State())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, narrator.stepStarts())
	assert.Equal(t, []bool{true}, narrator.endEvents())

	assert.Equal(t, game.StatusLost, session.Status())
	assert.True(t, p.ScriptedGameOver())
	assert.Equal(t, 2, session.FlagsPlaced())

	require.Len(t, narrator.points, 1)
	assert.Equal(t, board.Pos{Row: 5, Col: 5}, narrator.points[0])
	require.Len(t, narrator.highlights, 1)
	assert.Equal(t, board.Pos{Row: 5, Col: 7}, narrator.highlights[0])

	// The scripted reveal pattern shows its fixed numbers.
	v, _ := session.CellAt(5, 5)
	require.True(t, v.Revealed)
	assert.Equal(t, 2, v.Adjacent)
}

func TestDefaultScript_LayoutIsConsistent(t *testing.T) {
	script := DefaultScript()
	mines := map[board.Pos]bool{}
	for _, m := range script.Mines {
		assert.False(t, mines[m], "duplicate mine %v", m)
		mines[m] = true
		assert.True(t, m.Row >= 0 && m.Row < script.Rows)
		assert.True(t, m.Col >= 0 && m.Col < script.Cols)
	}

	for i, step := range script.Steps {
		assert.NotEmpty(t, step.Caption, "step %d caption", i)
		assert.Greater(t, step.AdvanceDelay, time.Duration(0), "step %d advance delay", i)
		switch step.Action {
		case ActionReveal:
			for _, r := range step.Reveals {
				assert.False(t, mines[board.Pos{Row: r.Row, Col: r.Col}],
					"step %d reveals a mine at (%d,%d)", i, r.Row, r.Col)
			}
		case ActionFlag, ActionHighlightFlag, ActionTriggerGameOver:
			assert.True(t, mines[step.Target], "step %d targets a non-mine", i)
		}
	}
}
