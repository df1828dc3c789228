package fs

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/binder/pkg/core"
)

func nextEvent(t *testing.T, events <-chan core.Event) core.Event {
	t.Helper()
	select {
	case e, ok := <-events:
		require.True(t, ok, "events channel closed")
		return e
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for event")
		return core.Event{}
	}
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := newTestRepo(t)
	events, err := repo.Watch(ctx, "")
	require.NoError(t, err)
	waitForWatcher(t, repo, true)

	writeFile(t, repo.Path, "base1/4.md", "---\nname: Charizard\n---\n")
	e := nextEvent(t, events)
	assert.Equal(t, "base1/4", e.ID)
	assert.Contains(t, []core.EventType{core.EventCreate, core.EventModify}, e.Type)

	// Files in the new directory are seen too.
	writeFile(t, repo.Path, "base1/58.yaml", "name: Pikachu\n")
	e = nextEvent(t, events)
	assert.Equal(t, "base1/58", e.ID)

	require.NoError(t, os.Remove(filepath.Join(repo.Path, "base1", "58.yaml")))
	e = nextEvent(t, events)
	assert.Equal(t, core.Event{Type: core.EventDelete, ID: "base1/58", Timestamp: e.Timestamp}, e)

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)
	waitForWatcher(t, repo, false)
}

func TestWatch_Filters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := newTestRepo(t)
	require.NoError(t, os.MkdirAll(filepath.Join(repo.Path, "base1"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(repo.Path, "jungle"), 0755))

	events, err := repo.Watch(ctx, "jungle/**")
	require.NoError(t, err)
	waitForWatcher(t, repo, true)

	writeFile(t, repo.Path, "base1/4.md", "ignored by pattern")
	writeFile(t, repo.Path, "jungle/readme.txt", "ignored by extension")
	writeFile(t, repo.Path, ".binder/index.json", "{}")
	writeFile(t, repo.Path, "jungle/1.md", "---\nname: Clefable\n---\n")

	e := nextEvent(t, events)
	assert.Equal(t, "jungle/1", e.ID)
}

func TestWatch_InvalidPattern(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Watch(context.Background(), "[")
	assert.Error(t, err)
}

func TestDebouncer(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)

	var mu sync.Mutex
	var got []core.Event
	record := func(e core.Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e)
	}

	d.add(core.Event{Type: core.EventCreate, ID: "a"}, record)
	d.add(core.Event{Type: core.EventModify, ID: "a"}, record)
	d.add(core.Event{Type: core.EventModify, ID: "a"}, record)
	d.add(core.Event{Type: core.EventModify, ID: "b"}, record)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	byID := map[string]core.EventType{}
	for _, e := range got {
		byID[e.ID] = e.Type
	}
	mu.Unlock()
	assert.Equal(t, map[string]core.EventType{"a": core.EventCreate, "b": core.EventModify}, byID)

	d.add(core.Event{Type: core.EventModify, ID: "c"}, record)
	assert.True(t, d.stopAndWait(time.Second))
	d.add(core.Event{Type: core.EventModify, ID: "d"}, record)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, got, 2)
}

func TestCoalesce(t *testing.T) {
	create := core.Event{Type: core.EventCreate, ID: "x"}
	modify := core.Event{Type: core.EventModify, ID: "x"}
	del := core.Event{Type: core.EventDelete, ID: "x"}

	assert.Equal(t, core.EventCreate, coalesce(create, modify).Type)
	assert.Equal(t, core.EventDelete, coalesce(create, del).Type)
	assert.Equal(t, core.EventModify, coalesce(del, create).Type)
	assert.Equal(t, core.EventDelete, coalesce(modify, del).Type)
}
