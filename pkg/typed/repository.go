// Package typed maps raw documents onto Go structs.
package typed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/binder/pkg/core"
)

// DocumentModel is a typed view of a core.Document: Metadata decoded into T.
type DocumentModel[T any] struct {
	ID      string
	Content string
	Data    T
	Saver   Saver[T] // Active Record reference
}

// Saver avoids coupling DocumentModel to a concrete repository.
type Saver[T any] interface {
	Save(ctx context.Context, doc *DocumentModel[T]) error
}

// Save persists the document using the attached saver.
func (d *DocumentModel[T]) Save(ctx context.Context) error {
	if d.Saver == nil {
		return fmt.Errorf("document is detached (missing Saver)")
	}
	return d.Saver.Save(ctx, d)
}

// Repository wraps a core.Repository to provide type-safe access.
type Repository[T any] struct {
	repo core.Repository
}

// NewRepository creates a new type-safe wrapper around an existing repository.
func NewRepository[T any](repo core.Repository) *Repository[T] {
	return &Repository[T]{repo: repo}
}

// Save persists a typed document. Data is flattened into metadata through its
// JSON representation, so struct tags decide the stored keys.
func (r *Repository[T]) Save(ctx context.Context, doc *DocumentModel[T]) error {
	metadata, err := toMetadata(doc.Data)
	if err != nil {
		return err
	}

	if doc.Saver == nil {
		doc.Saver = r
	}

	return r.repo.Save(ctx, core.Document{
		ID:       doc.ID,
		Content:  doc.Content,
		Metadata: metadata,
	})
}

// Get retrieves a document and decodes it.
func (r *Repository[T]) Get(ctx context.Context, id string) (*DocumentModel[T], error) {
	coreDoc, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromCore(coreDoc, r)
}

// List returns all documents converted to the typed model. The first document
// that fails to decode aborts the listing.
func (r *Repository[T]) List(ctx context.Context) ([]*DocumentModel[T], error) {
	return r.list(ctx, nil)
}

// ListLenient is List, except that documents failing to decode are reported
// to onError and skipped.
func (r *Repository[T]) ListLenient(ctx context.Context, onError func(id string, err error)) ([]*DocumentModel[T], error) {
	if onError == nil {
		onError = func(string, error) {}
	}
	return r.list(ctx, onError)
}

func (r *Repository[T]) list(ctx context.Context, onError func(id string, err error)) ([]*DocumentModel[T], error) {
	coreDocs, err := r.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*DocumentModel[T], 0, len(coreDocs))
	for _, d := range coreDocs {
		model, err := fromCore(d, r)
		if err != nil {
			if onError == nil {
				return nil, fmt.Errorf("failed to process document %s: %w", d.ID, err)
			}
			onError(d.ID, err)
			continue
		}
		result = append(result, model)
	}
	return result, nil
}

// Delete removes a document by ID.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	return r.repo.Delete(ctx, id)
}

// Watch forwards to the underlying repository when it can report changes.
func (r *Repository[T]) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	w, ok := r.repo.(core.Watchable)
	if !ok {
		return nil, core.ErrNotWatchable
	}
	return w.Watch(ctx, pattern)
}

func toMetadata(data any) (core.Metadata, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal typed data: %w", err)
	}

	var metadata core.Metadata
	if err := json.Unmarshal(dataBytes, &metadata); err != nil {
		return nil, fmt.Errorf("failed to convert typed data to map: %w", err)
	}
	return metadata, nil
}

func fromCore[T any](coreDoc core.Document, saver Saver[T]) (*DocumentModel[T], error) {
	dataBytes, err := json.Marshal(coreDoc.Metadata)
	if err != nil {
		return nil, fmt.Errorf("metadata marshal failed: %w", err)
	}

	var data T
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		return nil, fmt.Errorf("unmarshal to target type failed: %w", err)
	}

	return &DocumentModel[T]{
		ID:      coreDoc.ID,
		Content: coreDoc.Content,
		Data:    data,
		Saver:   saver,
	}, nil
}
