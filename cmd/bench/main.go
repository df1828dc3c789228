package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/binder"
	"github.com/aretw0/binder/pkg/catalog"
	"github.com/aretw0/binder/pkg/reveal"
)

var rarities = []string{"Common", "Uncommon", "Rare", "Rare Holo", "Rare Ultra"}

func main() {
	count := flag.Int("count", 1000, "Number of cards to generate")
	keep := flag.Bool("keep", false, "Keep the benchmark binder after running")
	flag.Parse()

	// 1. Setup Namespace
	benchDir, err := os.MkdirTemp("", "binder_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	fmt.Printf("Generating %d cards in %s...\n", *count, benchDir)
	startGen := time.Now()

	// Direct writes simulate an existing binder. Every tenth set is a CSV list.
	for set := 0; set*100 < *count; set++ {
		n := min(100, *count-set*100)
		if set%10 == 9 {
			writeCSVSet(benchDir, set, n)
			continue
		}
		dir := filepath.Join(benchDir, fmt.Sprintf("set%02d", set))
		if err := os.MkdirAll(dir, 0755); err != nil {
			panic(err)
		}
		for i := 1; i <= n; i++ {
			content := fmt.Sprintf("---\nname: Card %d-%d\nnumber: %d\nrarity: %s\nhp: %d\ntypes: [Fire]\n---\nBenchmark card.\n",
				set, i, i, rarities[i%len(rarities)], (i%20)*10)
			if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("%d.md", i)), []byte(content), 0644); err != nil {
				panic(err)
			}
		}
	}
	fmt.Printf("Generation took: %v\n", time.Since(startGen))

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()

	// Run 1: Cold (populates the index in .binder)
	cold, total := load(ctx, benchDir, logger)

	// Run 2: Warm. A new catalog simulates a new CLI run.
	warm, _ := load(ctx, benchDir, logger)

	cat, err := binder.OpenCatalog(benchDir, binder.WithLogger(logger))
	if err != nil {
		panic(err)
	}
	if err := cat.Reload(ctx); err != nil {
		panic(err)
	}

	startQuery := time.Now()
	matches := catalog.Query{Sort: catalog.SortRarity, Desc: true}.Apply(cat.Cards())
	query := time.Since(startQuery)

	ctrl, err := reveal.New(matches, reveal.WithMinInterval(0))
	if err != nil {
		panic(err)
	}
	startReveal := time.Now()
	steps := 0
	for ctrl.RequestMore() {
		steps++
	}
	revealAll := time.Since(startReveal)
	ctrl.Close()

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d cards):\n", total)
	fmt.Printf("  Cold load: %v\n", cold)
	fmt.Printf("  Warm load: %v\n", warm)
	fmt.Printf("  Query:     %v (%d matches)\n", query, len(matches))
	fmt.Printf("  Reveal:    %v (%d steps)\n", revealAll, steps)
	fmt.Printf("--------------------------------------------------\n")
}

func load(ctx context.Context, dir string, logger *slog.Logger) (time.Duration, int) {
	cat, err := binder.OpenCatalog(dir, binder.WithLogger(logger))
	if err != nil {
		panic(err)
	}
	start := time.Now()
	if err := cat.Reload(ctx); err != nil {
		panic(err)
	}
	return time.Since(start), cat.Len()
}

func writeCSVSet(dir string, set, n int) {
	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("set%02d.csv", set)))
	if err != nil {
		panic(err)
	}
	defer f.Close()
	fmt.Fprintln(f, "id,name,number,rarity,hp,types")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(f, "%d,Card %d-%d,%d,%s,%d,Water\n", i, set, i, i, rarities[i%len(rarities)], (i%20)*10)
	}
}
