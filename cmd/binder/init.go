package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/binder"
)

var (
	initPattern string
	initExt     string
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a binder",
	Long: `Initialize a binder in the given directory (default: the working directory).
This creates the .binder system directory and a binder.yaml with the defaults.
An existing binder.yaml is left untouched.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		target := dir
		if len(args) > 0 {
			target = args[0]
		}
		if target == "" {
			wd, err := os.Getwd()
			if err != nil {
				fatal("Failed to get CWD", err)
			}
			target = wd
		}

		cfg := binder.DefaultConfig()
		cfg.Pattern = initPattern
		if initExt != "" {
			cfg.DefaultExt = initExt
		}

		_, err := binder.Init(target,
			binder.WithAutoInit(true),
			binder.WithSystemDir(cfg.SystemDir),
			binder.WithLogger(slog.Default()),
		)
		if err != nil {
			fatal("Failed to initialize binder", err)
		}

		cfgPath := filepath.Join(target, "binder.yaml")
		if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
			if err := binder.SaveConfig(target, cfg); err != nil {
				fatal("Failed to write binder.yaml", err)
			}
		}

		fmt.Println("Initialized empty binder in", target)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initPattern, "pattern", "", "Only consider card IDs matching this glob (e.g. 'base*/**')")
	initCmd.Flags().StringVar(&initExt, "ext", "", "Format of new cards: .md, .yaml or .json")
}
