package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/minesweep/internal/app"
	"github.com/roach88/minesweep/internal/config"
	"github.com/roach88/minesweep/internal/demo"
	"github.com/roach88/minesweep/internal/game"
	"github.com/roach88/minesweep/internal/sched"
	"github.com/roach88/minesweep/internal/store"
	"github.com/roach88/minesweep/internal/view"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Difficulty string
	Presets    string
	Seed       uint64
	NoSound    bool
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play Minesweeper interactively in the terminal",
		Long: `Play Minesweeper in the terminal.

Commands at the prompt:
  r ROW COL   reveal a cell
  f ROW COL   toggle a flag
  p           toggle pause
  n [LEVEL]   new game (easy, medium, hard)
  q           quit

Example:
  minesweep play --difficulty medium
  minesweep play --seed 42 --db /tmp/times.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Difficulty, "difficulty", string(game.Easy), "board preset (easy|medium|hard)")
	cmd.Flags().StringVar(&opts.Presets, "presets", "", "path to a CUE preset override file")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "mine placement seed (0 means random)")
	cmd.Flags().BoolVar(&opts.NoSound, "no-sound", false, "disable the terminal bell")

	return cmd
}

func runPlay(opts *PlayOptions, in io.Reader, out io.Writer) error {
	presets, err := config.LoadPresetsFile(opts.Presets)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load presets", err)
	}

	a, cleanup, err := buildApp(opts.RootOptions, presets, playDeps(opts, out), newTermNarrator(out))
	if err != nil {
		return err
	}
	defer cleanup()

	if err := a.Initialize(game.Difficulty(opts.Difficulty)); err != nil {
		return WrapExitError(ExitCommandError, "failed to start game", err)
	}

	fmt.Fprintln(out, "minesweep - r ROW COL reveals, f ROW COL flags, p pauses, n restarts, q quits")
	render(out, a)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if quit := dispatch(out, a, scanner.Text()); quit {
			return nil
		}
		render(out, a)
	}
}

// dispatch applies one prompt line and reports whether to quit.
func dispatch(out io.Writer, a *app.App, line string) bool {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "q", "quit":
		a.Quit()
		return true
	case "p", "pause":
		a.TogglePause()
	case "n", "new":
		difficulty := game.Easy
		if len(fields) > 1 {
			difficulty = game.Difficulty(fields[1])
		}
		if err := a.Initialize(difficulty); err != nil {
			fmt.Fprintf(out, "cannot start: %v\n", err)
		}
	case "r", "reveal":
		if row, col, ok := parseCell(fields); ok {
			a.Reveal(row, col)
		} else {
			fmt.Fprintln(out, "usage: r ROW COL")
		}
	case "f", "flag":
		if row, col, ok := parseCell(fields); ok {
			a.ToggleFlag(row, col)
		} else {
			fmt.Fprintln(out, "usage: f ROW COL")
		}
	default:
		fmt.Fprintf(out, "unknown command %q\n", fields[0])
	}
	return false
}

func parseCell(fields []string) (int, int, bool) {
	if len(fields) != 3 {
		return 0, 0, false
	}
	row, err1 := strconv.Atoi(fields[1])
	col, err2 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return row, col, true
}

func playDeps(opts *PlayOptions, out io.Writer) game.Deps {
	deps := game.Deps{
		Scheduler: sched.NewTimers(),
		Presenter: &termPresenter{out: out},
	}
	if !opts.NoSound {
		deps.Audio = &bellAudio{out: out}
	}
	if opts.Seed != 0 {
		deps.RNG = rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	}
	return deps
}

// buildApp opens the store, applies the persisted settings (sound
// preference, player name), and assembles the app. A store that cannot
// be opened downgrades to no persisted records rather than failing the
// game; cleanup tears both down.
func buildApp(rootOpts *RootOptions, presets map[game.Difficulty]game.Config, deps game.Deps, narrator demo.Narrator) (*app.App, func(), error) {
	var st *store.Store
	st, err := store.Open(rootOpts.Database)
	if err != nil {
		slog.Warn("best times unavailable", "db", rootOpts.Database, "error", err)
		st = nil
	}
	if st != nil {
		settings, err := loadSettings(st)
		if err != nil {
			slog.Warn("settings unavailable", "error", err)
			settings = config.DefaultSettings()
		}
		if !settings.Sound {
			deps.Audio = nil
		}
		deps.Records = store.NewRecorder(st, settings.Player)
	}

	a, err := app.New(presets, deps, demo.DefaultScript(), narrator)
	if err != nil {
		if st != nil {
			st.Close()
		}
		return nil, nil, WrapExitError(ExitCommandError, "failed to assemble game", err)
	}

	cleanup := func() {
		a.Quit()
		if st != nil {
			if err := st.Close(); err != nil {
				slog.Error("error closing database", "error", err)
			}
		}
	}
	return a, cleanup, nil
}

func render(out io.Writer, a *app.App) {
	snap, ok := a.Snapshot()
	if !ok {
		return
	}
	fmt.Fprint(out, view.Render(snap))
}
