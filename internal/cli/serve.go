package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/minesweep/internal/config"
	"github.com/roach88/minesweep/internal/demo"
	"github.com/roach88/minesweep/internal/game"
	"github.com/roach88/minesweep/internal/sched"
	"github.com/roach88/minesweep/internal/server"
	"github.com/roach88/minesweep/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr    string
	Presets string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the game over HTTP with a websocket event stream",
		Long: `Start the HTTP gateway.

Command routes drive the single shared game; connected websocket
clients at /ws receive every change event as JSON.

Example:
  minesweep serve --addr :8080 --db ./minesweep.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.Presets, "presets", "", "path to a CUE preset override file")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	presets, err := config.LoadPresetsFile(opts.Presets)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load presets", err)
	}

	slog.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	deps := game.Deps{
		Scheduler: sched.NewTimers(),
		Records:   store.NewRecorder(st, ""),
	}
	srv, err := server.New(presets, deps, demo.DefaultScript())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to assemble server", err)
	}
	defer srv.App().Quit()

	httpSrv := &http.Server{Addr: opts.Addr, Handler: srv.Handler()}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
		case <-ctx.Done():
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", opts.Addr, "db", opts.Database)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s. Press Ctrl-C to stop.\n", opts.Addr)

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return WrapExitError(ExitFailure, "server error", err)
	}
	slog.Info("server stopped gracefully")
	return nil
}
