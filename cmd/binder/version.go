package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/binder"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of binder",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("binder version %s\n", strings.TrimSpace(binder.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
