package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aretw0/binder/pkg/catalog"
	"github.com/aretw0/binder/pkg/reveal"
)

var (
	listQuery   queryFlags
	listJSON    bool
	listAll     bool
	listPages   int
	listInitial int
	listStep    int
	listStats   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cards",
	Long: `List the cards matching a query. Output is revealed the same way the
browser does it: an initial page plus --pages further steps. Use --all to
print every match.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		b, err := openBinder()
		if err != nil {
			fatal("Failed to open binder", err)
		}

		query, err := listQuery.query(b.config.Sort)
		if err != nil {
			fatal("Invalid query", err)
		}

		if err := b.catalog.Reload(context.Background()); err != nil {
			fatal("Failed to load cards", err)
		}
		matches := query.Apply(b.catalog.Cards())

		opts := b.config.RevealOptions()
		if cmd.Flags().Changed("initial") {
			opts = append(opts, reveal.WithInitialVisible(listInitial))
		}
		if cmd.Flags().Changed("step") {
			opts = append(opts, reveal.WithIncrement(listStep))
		}
		if listAll {
			opts = append(opts, reveal.WithInitialVisible(len(matches)), reveal.WithMax(0))
		}
		// Pages are requested back to back.
		opts = append(opts, reveal.WithMinInterval(0), reveal.WithDelay(0))

		reg := prometheus.NewRegistry()
		if listStats {
			opts = append(opts, reveal.WithMetrics(reveal.NewMetrics(reg)))
		}

		ctrl, err := reveal.New(matches, opts...)
		if err != nil {
			fatal("Invalid reveal settings", err)
		}
		defer ctrl.Close()

		for i := 0; i < listPages; i++ {
			if !ctrl.RequestMore() {
				break
			}
		}
		snap := ctrl.Snapshot()

		if listStats {
			defer func() {
				if err := writeStats(os.Stderr, reg); err != nil {
					fatal("Failed to gather stats", err)
				}
			}()
		}

		if listJSON {
			out := make([]cardJSON, 0, snap.VisibleCount)
			for _, c := range snap.Visible {
				out = append(out, toJSON(c))
			}
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(out); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		printCards(snap.Visible)
		if snap.HasMore {
			fmt.Fprintf(os.Stderr, "%d of %d cards (--pages or --all for more)\n", snap.VisibleCount, snap.Total)
		}
	},
}

func printCards(cards []catalog.Card) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, c := range cards {
		hp := ""
		if c.HP > 0 {
			hp = fmt.Sprint(c.HP)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Title(), c.Number, strings.Join(c.Types, "/"), c.Rarity, hp)
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(listCmd)
	listQuery.register(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().BoolVar(&listAll, "all", false, "Print every match")
	listCmd.Flags().IntVar(&listPages, "pages", 0, "Additional reveal steps after the initial page")
	listCmd.Flags().IntVar(&listInitial, "initial", 0, "Cards in the initial page (default from binder.yaml)")
	listCmd.Flags().IntVar(&listStep, "step", 0, "Cards added per step (default from binder.yaml)")
	listCmd.Flags().BoolVar(&listStats, "stats", false, "Print reveal counters to stderr")
}
