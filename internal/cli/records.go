package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/minesweep/internal/game"
	"github.com/roach88/minesweep/internal/store"
)

// NewRecordsCommand creates the records command.
func NewRecordsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "records",
		Short:         "Show stored best times",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecords(rootOpts, cmd)
		},
	}
	return cmd
}

func runRecords(opts *RootOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	times, err := st.AllBestTimes(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read best times", err)
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return writeJSON(out, times)
	}

	if len(times) == 0 {
		fmt.Fprintln(out, "No best times recorded yet.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DIFFICULTY\tTIME\tPLAYER\tUPDATED")
	for _, bt := range times {
		player := bt.Player
		if player == "" {
			player = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", bt.Difficulty, game.FormatClock(bt.Seconds), player, bt.UpdatedAt)
	}
	return w.Flush()
}
