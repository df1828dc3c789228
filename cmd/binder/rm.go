package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:     "rm [id]...",
	Aliases: []string{"delete"},
	Short:   "Remove cards",
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		b, err := openBinder()
		if err != nil {
			fatal("Failed to open binder", err)
		}

		for _, id := range args {
			if err := b.catalog.Remove(context.Background(), id); err != nil {
				fatal("Failed to remove card "+id, err)
			}
			fmt.Printf("Card '%s' removed.\n", id)
		}
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
