package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/binder"
	"github.com/aretw0/binder/pkg/catalog"
	"github.com/aretw0/binder/pkg/core"
)

var (
	verbose bool
	dir     string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "binder",
	Short: "Browse a trading card collection kept as plain files",
	Long: `Binder reads a directory of cards (Markdown, YAML or JSON files and
CSV set lists) and lets you query it from the shell or browse it in a
terminal UI that reveals cards progressively as you scroll.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&dir, "dir", "C", "", "Binder directory (default: nearest binder above the working directory)")
}

// openedBinder is everything a command needs to work on a binder.
type openedBinder struct {
	root    string
	config  binder.Config
	service *core.Service
	catalog *catalog.Catalog
}

// findBinder locates the binder root and loads its configuration.
func findBinder() (string, binder.Config, error) {
	start := dir
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", binder.Config{}, err
		}
		start = wd
	}

	root, err := binder.FindRoot(start)
	if err != nil {
		if dir == "" {
			return "", binder.Config{}, fmt.Errorf("%w (run 'binder init' first)", err)
		}
		// An explicit directory may be a plain folder of cards.
		root = dir
	}

	cfg, err := binder.LoadConfig(root)
	if err != nil {
		return "", binder.Config{}, err
	}
	return root, cfg, nil
}

// openBinder locates the binder, applies its configuration and opens it.
// extra options are applied last.
func openBinder(extra ...binder.Option) (*openedBinder, error) {
	root, cfg, err := findBinder()
	if err != nil {
		return nil, err
	}

	opts := []binder.Option{
		binder.WithMustExist(true),
		binder.WithLogger(slog.Default()),
	}
	opts = append(opts, cfg.Options()...)
	opts = append(opts, extra...)

	svc, err := binder.New(root, opts...)
	if err != nil {
		return nil, err
	}

	return &openedBinder{
		root:    root,
		config:  cfg,
		service: svc,
		catalog: catalog.New(svc.Repository(), catalog.WithLogger(slog.Default())),
	}, nil
}
