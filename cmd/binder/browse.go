package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/lifecycle"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aretw0/binder"
	"github.com/aretw0/binder/cmd/binder/ui"
	"github.com/aretw0/binder/pkg/browse"
	"github.com/aretw0/binder/pkg/reveal"
)

var (
	browseQuery queryFlags
	browseWatch bool
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse cards in a terminal UI",
	Long: `Open the card browser. More cards are revealed as the cursor nears the
end of the list. With --watch (the default) the list follows edits made to
the binder while it is open.

Logs go to browse.log in the binder system directory.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		root, cfg, err := findBinder()
		if err != nil {
			fatal("Failed to open binder", err)
		}

		// The log must be redirected before the watcher starts writing to it.
		logger, closeLog, err := browseLogger(filepath.Join(root, cfg.SystemDir), cfg.ReadOnly)
		if err != nil {
			fatal("Failed to open log", err)
		}
		defer closeLog()

		b, err := openBinder(binder.WithWatcherErrorHandler(func(err error) {
			logger.Warn("watcher error", "error", err)
		}))
		if err != nil {
			fatal("Failed to open binder", err)
		}

		query, err := browseQuery.query(b.config.Sort)
		if err != nil {
			fatal("Invalid query", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := b.catalog.Reload(ctx); err != nil {
			fatal("Failed to load cards", err)
		}

		var notifier ui.Notifier
		revealOpts := append(b.config.RevealOptions(), reveal.WithOnChange(notifier.Notify))
		reg := prometheus.NewRegistry()
		revealOpts = append(revealOpts, reveal.WithMetrics(reveal.NewMetrics(reg)))

		opts := []browse.Option{
			browse.WithLogger(logger),
			browse.WithQuery(query),
			browse.WithReveal(revealOpts...),
		}
		if browseWatch {
			opts = append(opts, browse.WithWatcher(b.service, b.config.Pattern))
		}

		session, err := browse.New(b.catalog, opts...)
		if err != nil {
			fatal("Failed to start session", err)
		}
		defer session.Close()

		program := tea.NewProgram(ui.New(session), tea.WithAltScreen(), tea.WithContext(ctx))
		notifier.Attach(program)

		if browseWatch {
			lifecycle.Go(ctx, session.Run, lifecycle.WithErrorHandler(func(err error) {
				logger.Error("watch stopped", "error", err)
			}))
		}

		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			fatal("Browser failed", err)
		}

		var stats strings.Builder
		if err := writeStats(&stats, reg); err == nil {
			logger.Debug("browse finished", "session", session.ID(), "stats", stats.String())
		}
	},
}

// browseLogger sends logs to a file while the terminal belongs to the UI.
// Read-only binders get no log at all.
func browseLogger(systemDir string, readOnly bool) (*slog.Logger, func(), error) {
	if readOnly {
		logger := slog.New(slog.DiscardHandler)
		slog.SetDefault(logger)
		return logger, func() {}, nil
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if err := os.MkdirAll(systemDir, 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(systemDir, "browse.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, func() { _ = f.Close() }, nil
}

func init() {
	rootCmd.AddCommand(browseCmd)
	browseQuery.register(browseCmd)
	browseCmd.Flags().BoolVar(&browseWatch, "watch", true, "Follow changes to the binder")
}
