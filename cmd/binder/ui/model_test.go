package ui

import (
	"context"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/binder/pkg/adapters/fs"
	"github.com/aretw0/binder/pkg/browse"
	"github.com/aretw0/binder/pkg/catalog"
	"github.com/aretw0/binder/pkg/reveal"
)

func newTestModel(t *testing.T, n int) (Model, *browse.Session) {
	t.Helper()
	ctx := context.Background()
	repo := fs.NewRepository(fs.Config{Path: t.TempDir()})
	require.NoError(t, repo.Initialize(ctx))

	cat := catalog.New(repo)
	for i := 1; i <= n; i++ {
		require.NoError(t, cat.Put(ctx, catalog.Card{
			ID:     fmt.Sprintf("base1/%03d", i),
			Name:   fmt.Sprintf("Card %03d", i),
			Number: fmt.Sprint(i),
			Types:  []string{"Fire"},
			Rarity: "Common",
			HP:     i * 10,
		}))
	}
	require.NoError(t, cat.Reload(ctx))

	s, err := browse.New(cat, browse.WithReveal(
		reveal.WithInitialVisible(10),
		reveal.WithIncrement(5),
		reveal.WithMargin(2),
		reveal.WithMinInterval(0),
	))
	require.NoError(t, err)
	t.Cleanup(s.Close)

	m := New(s)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 24})
	return next.(Model), s
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestModelRevealsNearEnd(t *testing.T) {
	m, _ := newTestModel(t, 30)
	assert.Equal(t, 10, m.snap.VisibleCount)

	m = press(m, "j", "j", "j", "j", "j", "j")
	assert.Equal(t, 6, m.cursor)
	assert.Equal(t, 10, m.snap.VisibleCount)

	m = press(m, "j")
	assert.Equal(t, 15, m.snap.VisibleCount)

	m = press(m, "G")
	assert.Equal(t, 14, m.cursor)
	assert.Equal(t, 20, m.snap.VisibleCount)

	m = press(m, "r")
	assert.Equal(t, 0, m.cursor)
	assert.Equal(t, 10, m.snap.VisibleCount)
}

func TestModelMore(t *testing.T) {
	m, _ := newTestModel(t, 12)
	m = press(m, "m")
	assert.Equal(t, 12, m.snap.VisibleCount)
	assert.False(t, m.snap.HasMore)
	assert.Contains(t, m.View(), "12/12")
	assert.Contains(t, m.View(), "end")
}

func TestModelSortAndOrder(t *testing.T) {
	m, s := newTestModel(t, 30)
	m = press(m, "m")
	assert.Equal(t, 15, m.snap.VisibleCount)

	m = press(m, "s")
	assert.Equal(t, catalog.SortNumber, s.Query().Sort)
	assert.Equal(t, 10, m.snap.VisibleCount)

	m = press(m, "o")
	assert.True(t, s.Query().Desc)
	assert.Equal(t, "Card 030", m.snap.Visible[0].Name)
	assert.Contains(t, m.View(), "sort:number desc")
}

func TestModelSearch(t *testing.T) {
	m, s := newTestModel(t, 30)

	m = press(m, "/", "C", "a", "r", "d", " ", "0", "2")
	assert.True(t, m.searching)
	assert.Empty(t, s.Query().Search, "search applies on enter")

	m = press(m, "enter")
	assert.False(t, m.searching)
	assert.Equal(t, "Card 02", s.Query().Search)
	assert.Equal(t, 10, m.snap.Total)
	assert.Equal(t, "Card 020", m.snap.Visible[0].Name)

	m = press(m, "esc")
	assert.Empty(t, s.Query().Search)
	assert.Equal(t, 30, m.snap.Total)
}

func TestModelSearchCancel(t *testing.T) {
	m, s := newTestModel(t, 5)
	m = press(m, "/", "x", "esc")
	assert.False(t, m.searching)
	assert.Empty(t, s.Query().Search)
	assert.Equal(t, 5, m.snap.Total)
}

func TestModelQuit(t *testing.T) {
	m, _ := newTestModel(t, 1)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModelEmpty(t *testing.T) {
	m, _ := newTestModel(t, 0)
	m = press(m, "j", "k", "G")
	assert.Equal(t, 0, m.cursor)
	assert.Contains(t, m.View(), "no cards match")
}

func TestNotifierWithoutProgram(t *testing.T) {
	var n Notifier
	assert.NotPanics(t, n.Notify)
}
