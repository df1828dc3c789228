package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/binder/pkg/catalog"
)

var showJSON bool

// cardJSON is the output shape of --json: the card plus its ID and text.
type cardJSON struct {
	ID string `json:"id"`
	catalog.Card
	Text string `json:"text,omitempty"`
}

func toJSON(c catalog.Card) cardJSON {
	return cardJSON{ID: c.ID, Card: c, Text: c.Text}
}

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a card",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		b, err := openBinder()
		if err != nil {
			fatal("Failed to open binder", err)
		}

		card, err := b.catalog.Get(context.Background(), args[0])
		if err != nil {
			fatal("Failed to read card", err)
		}

		if showJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(toJSON(card)); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		fmt.Printf("%s (%s)\n", card.Title(), card.ID)
		field := func(label, value string) {
			if value != "" {
				fmt.Printf("  %-10s %s\n", label+":", value)
			}
		}
		field("Set", strings.TrimSpace(card.Set+" "+card.Number))
		field("Series", card.Series)
		field("Supertype", card.Supertype)
		field("Subtypes", strings.Join(card.Subtypes, ", "))
		field("Types", strings.Join(card.Types, ", "))
		field("Rarity", card.Rarity)
		if card.HP > 0 {
			field("HP", fmt.Sprint(card.HP))
		}
		field("Artist", card.Artist)
		field("Released", card.ReleaseDate)
		if card.Text != "" {
			fmt.Printf("\n%s\n", strings.TrimSpace(card.Text))
		}
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")
}
