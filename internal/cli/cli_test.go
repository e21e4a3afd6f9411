package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/minesweep/internal/app"
	"github.com/roach88/minesweep/internal/board"
	"github.com/roach88/minesweep/internal/config"
	"github.com/roach88/minesweep/internal/demo"
	"github.com/roach88/minesweep/internal/game"
	"github.com/roach88/minesweep/internal/store"
	"github.com/roach88/minesweep/internal/testutil"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("boom"), ExitFailure},
		{"command error", &ExitError{Code: ExitCommandError, Message: "bad flag"}, ExitCommandError},
		{"wrapped command error", fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "inner", nil)), ExitCommandError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitError_Error(t *testing.T) {
	e := WrapExitError(ExitFailure, "context", errors.New("cause"))
	assert.Equal(t, "context: cause", e.Error())
	assert.Equal(t, "cause", errors.Unwrap(e).Error())

	bare := &ExitError{Code: ExitFailure, Message: "just text"}
	assert.Equal(t, "just text", bare.Error())
}

func testApp(t *testing.T) *app.App {
	t.Helper()
	presets := map[game.Difficulty]game.Config{
		game.Easy: {Difficulty: game.Easy, Rows: 9, Cols: 9, Mines: 10},
	}
	script := demo.Script{
		Rows:  5,
		Cols:  5,
		Mines: []board.Pos{{Row: 0, Col: 0}},
		Steps: []demo.Step{{
			Target:  board.Pos{Row: 4, Col: 4},
			Caption: "x",
			Action:  demo.ActionReveal,
			Reveals: []demo.Reveal{{Row: 4, Col: 4, Display: 1}},
		}},
	}
	a, err := app.New(presets, game.Deps{Scheduler: testutil.NewManualScheduler()}, script, nil)
	require.NoError(t, err)
	t.Cleanup(a.Quit)
	return a
}

func TestDispatch(t *testing.T) {
	a := testApp(t)
	require.NoError(t, a.Initialize(game.Easy))
	var out bytes.Buffer

	assert.False(t, dispatch(&out, a, ""))
	assert.False(t, dispatch(&out, a, "r 4 4"))
	assert.True(t, a.Active().RevealedCount() > 0)

	assert.False(t, dispatch(&out, a, "F 0 0"), "commands are case-insensitive")
	assert.Equal(t, 1, a.Active().FlagsPlaced())

	assert.False(t, dispatch(&out, a, "p"))
	assert.True(t, a.Active().IsPaused())
	dispatch(&out, a, "pause")
	assert.False(t, a.Active().IsPaused())

	dispatch(&out, a, "r one two")
	assert.Contains(t, out.String(), "usage: r ROW COL")

	out.Reset()
	dispatch(&out, a, "xyzzy")
	assert.Contains(t, out.String(), `unknown command "xyzzy"`)

	out.Reset()
	dispatch(&out, a, "n nope")
	assert.Contains(t, out.String(), "cannot start")

	assert.False(t, dispatch(&out, a, "n easy"))
	assert.Equal(t, 0, a.Active().RevealedCount(), "fresh board")

	assert.True(t, dispatch(&out, a, "q"))
	assert.Equal(t, app.ModeNone, a.Mode())
}

func TestParseCell(t *testing.T) {
	tests := []struct {
		line string
		row  int
		col  int
		ok   bool
	}{
		{"r 3 7", 3, 7, true},
		{"f 0 0", 0, 0, true},
		{"r -1 2", -1, 2, true},
		{"r 3", 0, 0, false},
		{"r 3 7 9", 0, 0, false},
		{"r three 7", 0, 0, false},
	}
	for _, tt := range tests {
		row, col, ok := parseCell(strings.Fields(tt.line))
		assert.Equal(t, tt.ok, ok, tt.line)
		if tt.ok {
			assert.Equal(t, tt.row, row, tt.line)
			assert.Equal(t, tt.col, col, tt.line)
		}
	}
}

func TestPlayCommand_RevealAndQuit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "times.db")

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"play", "--db", dbPath, "--no-sound", "--seed", "7"})
	cmd.SetIn(strings.NewReader("r 4 4\nq\n"))
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "minesweep - r ROW COL reveals")
	assert.Contains(t, out.String(), "mines 10  time 00:00  not_started")
	assert.Contains(t, out.String(), "playing", "board re-rendered after the reveal")
}

func TestPlayCommand_BadPresetFile(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{
		"play",
		"--db", filepath.Join(t.TempDir(), "times.db"),
		"--presets", filepath.Join(t.TempDir(), "missing.cue"),
	})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRecordsCommand_Empty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "times.db")

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"records", "--db", dbPath})
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "No best times recorded yet.")
}

func TestRecordsCommand_TableAndJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "times.db")
	seedBestTime(t, dbPath, "easy", 75, "pat")

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"records", "--db", dbPath})
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "DIFFICULTY")
	assert.Contains(t, out.String(), "01:15")
	assert.Contains(t, out.String(), "pat")

	cmd = NewRootCommand()
	cmd.SetArgs([]string{"records", "--db", dbPath, "--format", "json"})
	out.Reset()
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())

	var times []store.BestTime
	require.NoError(t, json.Unmarshal(out.Bytes(), &times))
	require.Len(t, times, 1)
	assert.Equal(t, 75, times[0].Seconds)
}

func TestRootCommand_RejectsInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"records", "--format", "xml"})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestSettingsRoundTripThroughStore(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "times.db"))
	require.NoError(t, err)
	defer st.Close()

	got, err := loadSettings(st)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSettings(), got, "empty store yields defaults")

	want := config.Settings{Sound: false, Player: "pat", LastDifficulty: "hard"}
	require.NoError(t, saveSettings(st, want))

	got, err = loadSettings(st)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSettingsCommand_ShowsDefaults(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "times.db")

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"settings", "--db", dbPath})
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "sound")
	assert.Contains(t, out.String(), "true")
	assert.Contains(t, out.String(), "easy")
}

func TestSettingsCommand_PersistsChanges(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "times.db")

	cmd := NewRootCommand()
	cmd.SetArgs([]string{
		"settings", "--db", dbPath,
		"--player", "pat", "--sound=false", "--last-difficulty", "hard",
	})
	cmd.SetOut(new(bytes.Buffer))
	require.NoError(t, cmd.Execute())

	// A fresh command run sees the stored values, not the defaults.
	cmd = NewRootCommand()
	cmd.SetArgs([]string{"settings", "--db", dbPath, "--format", "json"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())

	var got config.Settings
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, config.Settings{Sound: false, Player: "pat", LastDifficulty: "hard"}, got)
}

func TestSettingsCommand_PartialUpdateKeepsOtherFields(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "times.db")

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"settings", "--db", dbPath, "--player", "pat"})
	cmd.SetOut(new(bytes.Buffer))
	require.NoError(t, cmd.Execute())

	cmd = NewRootCommand()
	cmd.SetArgs([]string{"settings", "--db", dbPath, "--sound=false"})
	cmd.SetOut(new(bytes.Buffer))
	require.NoError(t, cmd.Execute())

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	got, err := loadSettings(st)
	require.NoError(t, err)
	assert.Equal(t, "pat", got.Player, "earlier player setting survives the sound change")
	assert.False(t, got.Sound)
}

func TestSettingsCommand_PlayerNameReachesBestTimes(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "times.db")

	cmd := NewRootCommand()
	cmd.SetArgs([]string{"settings", "--db", dbPath, "--player", "pat"})
	cmd.SetOut(new(bytes.Buffer))
	require.NoError(t, cmd.Execute())

	// The play path records best times under the configured name.
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	settings, err := loadSettings(st)
	require.NoError(t, err)
	r := store.NewRecorder(st, settings.Player)
	require.True(t, r.SaveBestTimeIfBetter(game.Easy, 42))

	cmd = NewRootCommand()
	cmd.SetArgs([]string{"records", "--db", dbPath, "--format", "json"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())

	var times []store.BestTime
	require.NoError(t, json.Unmarshal(out.Bytes(), &times))
	require.Len(t, times, 1)
	assert.Equal(t, "pat", times[0].Player)
}

func seedBestTime(t *testing.T, dbPath, difficulty string, seconds int, player string) {
	t.Helper()
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	r := store.NewRecorder(st, player)
	require.True(t, r.SaveBestTimeIfBetter(game.Difficulty(difficulty), seconds))
}
