package main

import (
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aretw0/binder/pkg/catalog"
)

var (
	addID   string
	addCard catalog.Card
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or update a card",
	Long: `Write a card to the binder. Without --id a random ID is generated,
placed under the set directory when --set is given.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		b, err := openBinder()
		if err != nil {
			fatal("Failed to open binder", err)
		}

		card := addCard
		card.ID = addID
		if card.ID == "" {
			card.ID = uuid.NewString()
			if card.Set != "" {
				card.ID = path.Join(card.Set, card.ID)
			}
		}

		if err := b.catalog.Put(context.Background(), card); err != nil {
			fatal("Failed to save card", err)
		}
		fmt.Printf("Card '%s' saved.\n", card.ID)
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	f := addCmd.Flags()
	f.StringVar(&addID, "id", "", "Card ID (path below the binder, without extension)")
	f.StringVar(&addCard.Name, "name", "", "Card name")
	f.StringVar(&addCard.Number, "number", "", "Number within the set")
	f.StringVar(&addCard.Set, "set", "", "Set name")
	f.StringVar(&addCard.Series, "series", "", "Series name")
	f.StringVar(&addCard.Supertype, "supertype", "", "Supertype (Pokémon, Trainer, Energy)")
	f.StringSliceVar(&addCard.Subtypes, "subtypes", nil, "Subtypes")
	f.StringSliceVar(&addCard.Types, "types", nil, "Energy types")
	f.StringVar(&addCard.Rarity, "rarity", "", "Rarity")
	f.IntVar(&addCard.HP, "hp", 0, "Hit points")
	f.StringVar(&addCard.Artist, "artist", "", "Illustrator")
	f.StringVar(&addCard.ReleaseDate, "released", "", "Release date (YYYY-MM-DD)")
	f.StringVar(&addCard.Text, "text", "", "Card text or notes")
	addCmd.MarkFlagRequired("name")
}
