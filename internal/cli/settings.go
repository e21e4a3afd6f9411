package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/minesweep/internal/config"
	"github.com/roach88/minesweep/internal/store"
)

// settingsKey is where the YAML settings blob lives in the settings
// table. A single flat document keeps the format trivially forward
// compatible: unknown fields round-trip, absent ones get defaults.
const settingsKey = "settings"

const settingsTimeout = 2 * time.Second

func loadSettings(st *store.Store) (config.Settings, error) {
	ctx, cancel := context.WithTimeout(context.Background(), settingsTimeout)
	defer cancel()

	raw, ok, err := st.Setting(ctx, settingsKey)
	if err != nil {
		return config.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if !ok {
		return config.DefaultSettings(), nil
	}
	return config.UnmarshalSettings([]byte(raw))
}

func saveSettings(st *store.Store, s config.Settings) error {
	raw, err := config.MarshalSettings(s)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), settingsTimeout)
	defer cancel()

	if err := st.SetSetting(ctx, settingsKey, string(raw)); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// NewSettingsCommand creates the settings command.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change persisted settings",
		Long: `Show the persisted settings, or change them with flags.

The player name is written next to new best times; sound controls the
terminal bell in play mode.

Example:
  minesweep settings
  minesweep settings --player pat --sound=false`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettings(rootOpts, cmd)
		},
	}

	cmd.Flags().Bool("sound", true, "play sound cues during play")
	cmd.Flags().String("player", "", "player name recorded with new best times")
	cmd.Flags().String("last-difficulty", "", "difficulty preselected for the next game")

	return cmd
}

func runSettings(opts *RootOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	s, err := loadSettings(st)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load settings", err)
	}

	flags := cmd.Flags()
	changed := false
	if flags.Changed("sound") {
		s.Sound, _ = flags.GetBool("sound")
		changed = true
	}
	if flags.Changed("player") {
		s.Player, _ = flags.GetString("player")
		changed = true
	}
	if flags.Changed("last-difficulty") {
		s.LastDifficulty, _ = flags.GetString("last-difficulty")
		changed = true
	}
	if changed {
		if err := saveSettings(st, s); err != nil {
			return WrapExitError(ExitFailure, "failed to save settings", err)
		}
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return writeJSON(out, s)
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	player := s.Player
	if player == "" {
		player = "-"
	}
	fmt.Fprintf(w, "sound\t%t\n", s.Sound)
	fmt.Fprintf(w, "player\t%s\n", player)
	fmt.Fprintf(w, "last-difficulty\t%s\n", s.LastDifficulty)
	return w.Flush()
}
