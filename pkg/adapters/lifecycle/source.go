// Package lifecycle exposes binder change events as a lifecycle.Source.
package lifecycle

import (
	"context"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/binder/pkg/core"
)

// SourceOption configures a Source.
type SourceOption func(*eventSource)

// WithTypes forwards only events of the given types.
func WithTypes(types ...core.EventType) SourceOption {
	return func(s *eventSource) {
		s.types = make(map[core.EventType]bool, len(types))
		for _, t := range types {
			s.types[t] = true
		}
	}
}

type eventSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
	types  map[core.EventType]bool
	once   sync.Once
}

// NewSource bridges a binder event channel to the generic lifecycle event
// interface. core.Event satisfies lifecycle.Event through its String method.
// The output channel closes when the input closes or the Start context ends.
func NewSource(events <-chan core.Event, opts ...SourceOption) lifecycle.Source {
	s := &eventSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *eventSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start begins forwarding. Calling it more than once has no effect.
func (s *eventSource) Start(ctx context.Context) error {
	s.once.Do(func() {
		lifecycle.Go(ctx, s.forward)
	})
	return nil
}

func (s *eventSource) forward(ctx context.Context) error {
	defer close(s.out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-s.events:
			if !ok {
				return nil
			}
			if s.types != nil && !s.types[e.Type] {
				continue
			}
			select {
			case s.out <- e:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
