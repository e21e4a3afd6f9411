package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/minesweep/internal/config"
	"github.com/roach88/minesweep/internal/game"
	"github.com/roach88/minesweep/internal/sched"
	"github.com/roach88/minesweep/internal/view"
)

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Watch the guided-play demonstration",
		Long: `Run the scripted guided-play demo in the terminal.

The demo plays a fixed board with timed captions and always produces
the same sequence; press Ctrl-C to stop it early.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(rootOpts, cmd.OutOrStdout())
		},
	}
	return cmd
}

func runDemo(rootOpts *RootOptions, out io.Writer) error {
	presets, err := config.LoadPresets("")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load presets", err)
	}

	narrator := newTermNarrator(out)
	deps := game.Deps{
		Scheduler: sched.NewTimers(),
		Presenter: &termPresenter{out: out},
	}
	a, cleanup, err := buildApp(rootOpts, presets, deps, narrator)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := a.StartGuidedDemo(); err != nil {
		return WrapExitError(ExitFailure, "failed to start demo", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-narrator.done:
		if snap, ok := a.Snapshot(); ok {
			fmt.Fprint(out, view.Render(snap))
		}
		fmt.Fprintln(out, "Demo finished.")
	case <-sigChan:
		a.StopGuidedDemo()
		fmt.Fprintln(out, "Demo stopped.")
	}
	return nil
}
