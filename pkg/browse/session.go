// Package browse keeps a progressively revealed, filtered view of a catalog
// in sync with the binder on disk.
package browse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"
	"github.com/google/uuid"

	eventsource "github.com/aretw0/binder/pkg/adapters/lifecycle"
	"github.com/aretw0/binder/pkg/catalog"
	"github.com/aretw0/binder/pkg/core"
	"github.com/aretw0/binder/pkg/reveal"
)

// ErrClosed is returned by Run on a closed session.
var ErrClosed = errors.New("browse: session closed")

// Watcher is the subset of core.Service a session needs to follow changes.
type Watcher interface {
	Watch(ctx context.Context, pattern string) (<-chan core.Event, error)
}

type options struct {
	logger  *slog.Logger
	watcher Watcher
	pattern string
	query   catalog.Query
	reveal  []reveal.Option
}

// Option configures a Session.
type Option func(*options)

// WithLogger sets the session logger. It is also handed to the controller.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithWatcher enables Run. Usually the *core.Service of the binder.
func WithWatcher(w Watcher, pattern string) Option {
	return func(o *options) {
		o.watcher = w
		o.pattern = pattern
	}
}

// WithQuery sets the initial query.
func WithQuery(q catalog.Query) Option {
	return func(o *options) {
		o.query = q
	}
}

// WithReveal passes options through to the reveal controller.
func WithReveal(opts ...reveal.Option) Option {
	return func(o *options) {
		o.reveal = append(o.reveal, opts...)
	}
}

// Session is a catalog seen through a query and a reveal controller.
type Session struct {
	id      string
	catalog *catalog.Catalog
	ctrl    *reveal.Controller[catalog.Card]
	logger  *slog.Logger
	watcher Watcher
	pattern string

	// applyMu orders query reads with the SetItems calls they produce.
	applyMu sync.Mutex

	mu      sync.Mutex
	query   catalog.Query
	reloads int
	events  int
	cancel  context.CancelFunc
	closed  bool
}

// New builds a session over the catalog's current snapshot. The catalog is
// not reloaded; call Refresh for that.
func New(cat *catalog.Catalog, opts ...Option) (*Session, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.NewString()
	logger := o.logger.With("session", id[:8])

	revealOpts := append([]reveal.Option{reveal.WithLogger(logger)}, o.reveal...)
	ctrl, err := reveal.New(o.query.Apply(cat.Cards()), revealOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create reveal controller: %w", err)
	}

	return &Session{
		id:      id,
		catalog: cat,
		ctrl:    ctrl,
		logger:  logger,
		watcher: o.watcher,
		pattern: o.pattern,
		query:   o.query,
	}, nil
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// Controller exposes the reveal controller for rendering and signals.
func (s *Session) Controller() *reveal.Controller[catalog.Card] { return s.ctrl }

// Query returns the active query.
func (s *Session) Query() catalog.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// SetQuery applies q to the current snapshot. The reveal window starts over.
func (s *Session) SetQuery(q catalog.Query) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	s.query = q
	s.mu.Unlock()
	s.applyLocked()
}

// Refresh reloads the catalog and re-applies the query. On failure the
// previous cards stay visible.
func (s *Session) Refresh(ctx context.Context) error {
	if err := s.catalog.Reload(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.reloads++
	s.mu.Unlock()

	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	s.applyLocked()
	return nil
}

// applyLocked publishes the current query over the current cards. The caller
// holds applyMu, so a stale result can never overwrite a newer one.
func (s *Session) applyLocked() {
	q := s.Query()
	items := q.Apply(s.catalog.Cards())
	s.ctrl.SetItems(items)
	s.logger.Debug("query applied", "query", q.String(), "matches", len(items))
}

// Run follows binder changes until ctx is done or Close is called, reloading
// the catalog after each batch of events. It blocks.
func (s *Session) Run(ctx context.Context) error {
	if s.watcher == nil {
		return core.ErrNotWatchable
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	events, err := s.watcher.Watch(ctx, s.pattern)
	if err != nil {
		return fmt.Errorf("failed to watch binder: %w", err)
	}

	src := eventsource.NewSource(events)
	if err := src.Start(ctx); err != nil {
		return err
	}

	s.logger.Debug("following binder changes", "pattern", s.pattern)
	in := src.Events()
	for {
		var e lifecycle.Event
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case e, ok = <-in:
			if !ok {
				return nil
			}
		}

		batch := 1 + drain(in)
		s.mu.Lock()
		s.events += batch
		s.mu.Unlock()

		s.logger.Debug("binder changed", "event", e.String(), "batch", batch)
		if err := s.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warn("reload failed, keeping previous cards", "error", err)
		}
	}
}

// drain consumes events that are already queued so a burst causes a single
// reload.
func drain(in <-chan lifecycle.Event) int {
	n := 0
	for {
		select {
		case _, ok := <-in:
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}

// Close stops Run and releases the controller. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.ctrl.Close()
}

// SessionState is the observable state of a Session.
type SessionState struct {
	ID      string                 `json:"id"`
	Query   string                 `json:"query"`
	Reloads int                    `json:"reloads"`
	Events  int                    `json:"events"`
	Closed  bool                   `json:"closed"`
	Reveal  reveal.ControllerState `json:"reveal"`
}

// State implements introspection.Introspectable.
func (s *Session) State() any {
	revealState, _ := s.ctrl.State().(reveal.ControllerState)
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{
		ID:      s.id,
		Query:   s.query.String(),
		Reloads: s.reloads,
		Events:  s.events,
		Closed:  s.closed,
		Reveal:  revealState,
	}
}

// ComponentType implements introspection.Component.
func (s *Session) ComponentType() string {
	return "browse-session"
}

var (
	_ introspection.Introspectable = (*Session)(nil)
	_ introspection.Component      = (*Session)(nil)
)
