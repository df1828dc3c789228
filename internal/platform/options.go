package platform

import (
	"log/slog"

	"github.com/aretw0/binder/pkg/core"
)

// options holds the internal configuration for a binder.
type options struct {
	repository  core.Repository
	logger      *slog.Logger
	adapter     string
	config      map[string]any
	serializers map[string]any
}

// Option configures how a binder is opened.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter:     "fs",
		config:      make(map[string]any),
		serializers: make(map[string]any),
	}
}

// WithSerializer registers a custom serializer for a file extension. s must
// implement the adapter's serializer interface (fs.Serializer); this is
// checked during Init.
func WithSerializer(ext string, s any) Option {
	return func(o *options) {
		o.serializers[ext] = s
	}
}

// WithAutoInit creates the binder directory and its system directory when
// missing. Without it the binder must already exist.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.config["auto_init"] = auto
	}
}

// WithMustExist fails Init when the binder directory is missing, even with
// auto init.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithLogger sets the logger handed to the service and the adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepository injects a storage adapter, skipping the filesystem one.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithAdapter selects the storage adapter by name. Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithSystemDir names the hidden directory holding the cache.
// Defaults to ".binder".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithEventBuffer sets the size of the buffer between the watcher and the
// consumer. Zero means the default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.config["event_buffer"] = size
	}
}

// WithStrict parses numbers as json.Number in every format.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.config["strict"] = strict
	}
}

// WithPattern restricts listing to document IDs matching a doublestar
// pattern, e.g. "sv*/**".
func WithPattern(pattern string) Option {
	return func(o *options) {
		o.config["pattern"] = pattern
	}
}

// WithIDColumn names the CSV column holding card IDs. Defaults to "id".
func WithIDColumn(name string) Option {
	return func(o *options) {
		o.config["id_column"] = name
	}
}

// WithDefaultExt selects the format of new cards saved without extension.
// Defaults to ".md".
func WithDefaultExt(ext string) Option {
	return func(o *options) {
		o.config["default_ext"] = ext
	}
}

// WithWatcherErrorHandler receives errors raised while watching and files
// skipped during listing. Without it they are only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}

// WithReadOnly opens the binder without ever writing to it: Save and Delete
// return core.ErrReadOnly, no directories are created and the cache is not
// persisted.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}
