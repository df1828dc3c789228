package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"

	"github.com/aretw0/binder/pkg/adapters/fs"
	"github.com/aretw0/binder/pkg/catalog"
)

var (
	statusJSON    bool
	statusDiagram bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the binder",
	Long: `Load the binder and print the state of its service, repository and
catalog. --diagram prints a Mermaid diagram of the same tree.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		b, err := openBinder()
		if err != nil {
			fatal("Failed to open binder", err)
		}
		if err := b.catalog.Reload(context.Background()); err != nil {
			fatal("Failed to load cards", err)
		}

		components := []introspection.Component{b.service, b.catalog}
		if comp, ok := b.service.Repository().(introspection.Component); ok {
			components = append(components, comp)
		}

		if statusDiagram {
			config := introspection.DefaultDiagramConfig()
			config.SecondaryID = "binder"
			config.SecondaryLabel = "Binder"
			fmt.Println(introspection.TreeDiagram(buildStatusTree(b), config))
			return
		}

		states := make(map[string]any, len(components))
		for _, c := range components {
			if intro, ok := c.(introspection.Introspectable); ok {
				states[c.ComponentType()] = intro.State()
			}
		}

		if statusJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(states); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		fmt.Println("Binder:", b.root)
		for _, c := range components {
			if state, ok := states[c.ComponentType()]; ok {
				fmt.Printf("  %-18s %+v\n", c.ComponentType(), state)
			}
		}
	},
}

type statusNode struct {
	Name     string
	Status   string
	Metadata map[string]string
	Children []statusNode
}

// buildStatusTree lays the binder out for introspection.TreeDiagram. Status
// values must be classes of introspection.DefaultStyles().
func buildStatusTree(b *openedBinder) statusNode {
	repo := statusNode{Name: "Repository", Status: "running", Metadata: map[string]string{"type": "process"}}
	if intro, ok := b.service.Repository().(introspection.Introspectable); ok {
		if state, ok := intro.State().(fs.RepositoryState); ok {
			repo.Metadata["path"] = state.Path
			repo.Metadata["cache"] = fmt.Sprint(state.CacheSize)
			watcher := "suspended"
			if state.WatcherActive {
				watcher = "running"
			}
			repo.Children = append(repo.Children, statusNode{
				Name:     "Watcher",
				Status:   watcher,
				Metadata: map[string]string{"type": "goroutine", "pattern": state.Pattern},
			})
		}
	}

	cat := statusNode{Name: "Catalog", Status: "running", Metadata: map[string]string{"type": "container"}}
	if state, ok := b.catalog.State().(catalog.CatalogState); ok {
		cat.Metadata["cards"] = fmt.Sprint(state.Cards)
		cat.Metadata["skipped"] = fmt.Sprint(state.Skipped)
	}

	return statusNode{
		Name:     "Binder",
		Status:   "running",
		Metadata: map[string]string{"type": "container", "path": b.root},
		Children: []statusNode{repo, cat},
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format")
	statusCmd.Flags().BoolVar(&statusDiagram, "diagram", false, "Print a Mermaid diagram")
}
