package core

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/lifecycle"
)

// DefaultEventBuffer is the broker buffer used when none is configured.
const DefaultEventBuffer = 100

// Service handles the business logic for documents.
type Service struct {
	repo   Repository
	logger *slog.Logger

	mu              sync.RWMutex
	eventBufferSize int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithEventBuffer sets the size of the buffer between a watching repository
// and the consumer. Values below one select the default.
func WithEventBuffer(size int) ServiceOption {
	return func(s *Service) {
		if size > 0 {
			s.eventBufferSize = size
		}
	}
}

// WithServiceLogger sets the service logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a new Service.
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:            repo,
		logger:          slog.Default(),
		eventBufferSize: DefaultEventBuffer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repository returns the underlying repository.
func (s *Service) Repository() Repository {
	return s.repo
}

// SaveDocument saves a document with business validation.
func (s *Service) SaveDocument(ctx context.Context, id string, content string, metadata Metadata) error {
	if id == "" {
		return ErrEmptyID
	}

	doc := Document{
		ID:       id,
		Content:  content,
		Metadata: metadata,
	}

	return s.repo.Save(ctx, doc)
}

// GetDocument retrieves a document.
func (s *Service) GetDocument(ctx context.Context, id string) (Document, error) {
	if id == "" {
		return Document{}, ErrEmptyID
	}
	return s.repo.Get(ctx, id)
}

// ListDocuments retrieves all documents.
func (s *Service) ListDocuments(ctx context.Context) ([]Document, error) {
	return s.repo.List(ctx)
}

// DeleteDocument removes a document.
func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	if id == "" {
		return ErrEmptyID
	}
	return s.repo.Delete(ctx, id)
}

// Watch observes changes in the repository if supported.
//
// Events pass through a buffer of eventBufferSize so a slow consumer does not
// stall the producing watcher. The returned channel is closed when ctx is done
// or the upstream closes.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	w, ok := s.repo.(Watchable)
	if !ok {
		return nil, ErrNotWatchable
	}

	upstream, err := w.Watch(ctx, pattern)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	size := s.eventBufferSize
	s.mu.RUnlock()

	out := make(chan Event, size)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-upstream:
				if !ok {
					return nil
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("event broker failed", "error", err)
	}))

	return out, nil
}
