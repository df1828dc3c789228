package catalog_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/binder/pkg/adapters/fs"
	"github.com/aretw0/binder/pkg/catalog"
	"github.com/aretw0/binder/pkg/core"
)

func seed(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	return dir
}

func TestCatalogReload(t *testing.T) {
	ctx := context.Background()
	dir := seed(t, map[string]string{
		"base1/4.md":    "---\nname: Charizard\nnumber: 4\nhp: 120\ntypes: [Fire]\n---\nFire Spin",
		"base1/2.json":  `{"name": "Blastoise", "number": "2", "hp": 100, "types": ["Water"]}`,
		"jungle.csv":    "id,name,hp,types\n1,Clefable,70,Colorless\n",
		"broken.json":   `{"name": "Broken", "hp": "many"}`,
		"notes/todo.md": "no frontmatter at all",
	})

	var logs bytes.Buffer
	repo := fs.NewRepository(fs.Config{Path: dir})
	require.NoError(t, repo.Initialize(ctx))
	cat := catalog.New(repo, catalog.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	assert.Zero(t, cat.Len())
	require.NoError(t, cat.Reload(ctx))

	cards := cat.Cards()
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"base1/2", "base1/4", "jungle/1", "notes/todo"}, ids)
	assert.Equal(t, "Fire Spin", cards[1].Text)
	assert.Equal(t, "4", cards[1].Number)
	assert.Equal(t, 70, cards[2].HP)
	assert.Equal(t, []string{"Colorless"}, cards[2].Types)
	assert.Contains(t, logs.String(), "skipping card")

	state := cat.State().(catalog.CatalogState)
	assert.Equal(t, 4, state.Cards)
	assert.Equal(t, 1, state.Skipped)

	// Snapshots are independent copies.
	cards[0].Name = "changed"
	assert.Equal(t, "Blastoise", cat.Cards()[0].Name)
}

func TestCatalogPutGetRemove(t *testing.T) {
	ctx := context.Background()
	repo := fs.NewRepository(fs.Config{Path: t.TempDir()})
	require.NoError(t, repo.Initialize(ctx))
	cat := catalog.New(repo)

	card := catalog.Card{ID: "sv1/25", Name: "Pikachu", HP: 60, Types: []string{"Lightning"}, Text: "Gnaw"}
	require.NoError(t, cat.Put(ctx, card))
	assert.ErrorIs(t, cat.Put(ctx, catalog.Card{Name: "anon"}), core.ErrEmptyID)

	got, err := cat.Get(ctx, "sv1/25")
	require.NoError(t, err)
	assert.Equal(t, card, got)

	require.NoError(t, cat.Reload(ctx))
	assert.Equal(t, 1, cat.Len())

	require.NoError(t, cat.Remove(ctx, "sv1/25"))
	_, err = cat.Get(ctx, "sv1/25")
	assert.ErrorIs(t, err, core.ErrNotFound)

	// The snapshot changes only on Reload.
	assert.Equal(t, 1, cat.Len())
	require.NoError(t, cat.Reload(ctx))
	assert.Zero(t, cat.Len())
}

func TestCatalogReloadKeepsSnapshotOnError(t *testing.T) {
	ctx := context.Background()
	dir := seed(t, map[string]string{"a.json": `{"name": "Mew"}`})
	repo := fs.NewRepository(fs.Config{Path: dir})
	cat := catalog.New(repo)
	require.NoError(t, cat.Reload(ctx))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, cat.Reload(cancelled))
	assert.Equal(t, 1, cat.Len())
	assert.Equal(t, "catalog", cat.ComponentType())
}
