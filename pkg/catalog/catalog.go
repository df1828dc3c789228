package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/binder/pkg/core"
	"github.com/aretw0/binder/pkg/typed"
)

// Catalog holds the cards of a binder. Reload replaces the whole snapshot;
// readers never observe a partially loaded catalog.
type Catalog struct {
	repo   *typed.Repository[Card]
	logger *slog.Logger

	mu       sync.RWMutex
	cards    []Card
	skipped  int
	loadedAt time.Time
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger used for skipped documents.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates an empty catalog over repo. Call Reload to populate it.
func New(repo core.Repository, opts ...Option) *Catalog {
	c := &Catalog{
		repo:   typed.NewRepository[Card](repo),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reload reads every card from the repository. Documents that do not decode
// as cards are logged and skipped. On error the previous snapshot is kept.
func (c *Catalog) Reload(ctx context.Context) error {
	skipped := 0
	models, err := c.repo.ListLenient(ctx, func(id string, err error) {
		skipped++
		c.logger.Warn("skipping card", "id", id, "error", err)
	})
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	cards := make([]Card, 0, len(models))
	for _, m := range models {
		cards = append(cards, fromModel(m))
	}
	slices.SortFunc(cards, func(a, b Card) int { return compareStrings(a.ID, b.ID) })

	c.mu.Lock()
	c.cards = cards
	c.skipped = skipped
	c.loadedAt = time.Now()
	c.mu.Unlock()

	c.logger.Debug("catalog loaded", "cards", len(cards), "skipped", skipped)
	return nil
}

// Cards returns the current snapshot ordered by ID.
func (c *Catalog) Cards() []Card {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.cards)
}

// Len returns the number of cards in the snapshot.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cards)
}

// Get reads a single card straight from the repository.
func (c *Catalog) Get(ctx context.Context, id string) (Card, error) {
	m, err := c.repo.Get(ctx, id)
	if err != nil {
		return Card{}, err
	}
	return fromModel(m), nil
}

// Put writes a card. The snapshot is not touched until the next Reload.
func (c *Catalog) Put(ctx context.Context, card Card) error {
	if card.ID == "" {
		return core.ErrEmptyID
	}
	return c.repo.Save(ctx, &typed.DocumentModel[Card]{
		ID:      card.ID,
		Content: card.Text,
		Data:    card,
	})
}

// Remove deletes a card from the repository.
func (c *Catalog) Remove(ctx context.Context, id string) error {
	return c.repo.Delete(ctx, id)
}

func fromModel(m *typed.DocumentModel[Card]) Card {
	card := m.Data
	card.ID = m.ID
	card.Text = m.Content
	return card
}

// CatalogState is the observable state of a Catalog.
type CatalogState struct {
	Cards    int       `json:"cards"`
	Skipped  int       `json:"skipped"`
	LoadedAt time.Time `json:"loaded_at"`
}

func (c *Catalog) State() any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CatalogState{Cards: len(c.cards), Skipped: c.skipped, LoadedAt: c.loadedAt}
}

func (c *Catalog) ComponentType() string {
	return "catalog"
}

var (
	_ introspection.Introspectable = (*Catalog)(nil)
	_ introspection.Component      = (*Catalog)(nil)
)
