package binder

import (
	"log/slog"

	"github.com/aretw0/binder/internal/platform"
	"github.com/aretw0/binder/pkg/catalog"
	"github.com/aretw0/binder/pkg/core"
	"github.com/aretw0/binder/pkg/typed"
)

// --- Types ---

// DocumentModel is a public alias for the typed document model.
type DocumentModel[T any] = typed.DocumentModel[T]

// TypedRepository is a public alias for the typed repository.
type TypedRepository[T any] = typed.Repository[T]

// Card is a public alias for a catalog card.
type Card = catalog.Card

// Config is the persisted per-binder configuration (binder.yaml).
type Config = platform.Config

// ErrRootNotFound is returned by FindRoot outside of any binder.
var ErrRootNotFound = platform.ErrRootNotFound

// --- Configuration ---

// Option configures how a binder is opened.
type Option = platform.Option

// WithAutoInit creates the binder directory when missing.
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithMustExist requires the binder directory to exist already.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithLogger sets the logger for the service and the adapter.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository injects a custom storage adapter.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithAdapter selects the storage adapter by name.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithSystemDir names the hidden directory (default ".binder").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithEventBuffer sets the size of the event broker buffer.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithStrict keeps numbers as json.Number in every format.
func WithStrict(strict bool) Option {
	return platform.WithStrict(strict)
}

// WithPattern restricts the binder to IDs matching a doublestar pattern.
func WithPattern(pattern string) Option {
	return platform.WithPattern(pattern)
}

// WithReadOnly opens the binder without writing to it.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithWatcherErrorHandler receives watcher errors and skipped files.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithSerializer registers a serializer for a custom file extension.
func WithSerializer(ext string, s any) Option {
	return platform.WithSerializer(ext, s)
}

// --- Factory ---

// New opens a binder and returns its service.
func New(path string, opts ...Option) (*core.Service, error) {
	return platform.New(path, opts...)
}

// Init opens a binder and returns the bare repository.
func Init(path string, opts ...Option) (core.Repository, error) {
	return platform.Init(path, opts...)
}

// OpenCatalog opens a binder and loads its cards.
func OpenCatalog(path string, opts ...Option) (*catalog.Catalog, error) {
	repo, err := Init(path, opts...)
	if err != nil {
		return nil, err
	}
	return catalog.New(repo), nil
}

// NewTypedRepository creates a type-safe wrapper around a repository.
func NewTypedRepository[T any](repo core.Repository) *typed.Repository[T] {
	return typed.NewRepository[T](repo)
}

// --- Utils ---

// FindRoot looks upwards from startDir for a binder (.binder or binder.yaml).
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// LoadConfig reads binder.yaml, .env and BINDER_* variables for root.
func LoadConfig(root string) (Config, error) {
	return platform.LoadConfig(root)
}

// SaveConfig writes cfg to root/binder.yaml.
func SaveConfig(root string, cfg Config) error {
	return platform.SaveConfig(root, cfg)
}

// DefaultConfig returns the configuration of a fresh binder.
func DefaultConfig() Config {
	return platform.DefaultConfig()
}
