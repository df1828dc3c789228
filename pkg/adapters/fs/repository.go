// Package fs stores a binder as plain files on disk.
//
// Every card is a document. Single-card files (.md with frontmatter, .yaml,
// .yml, .json) are addressed by their path relative to the binder root
// without extension ("base1/4" for base1/4.md). Set lists stored as CSV hold
// one card per row; each row is addressed as "<file without .csv>/<id>"
// ("sets/base1/4" for the row with id 4 in sets/base1.csv).
package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/binder/pkg/core"
)

const (
	DefaultSystemDir = ".binder"
	DefaultIDColumn  = "id"
	DefaultExt       = ".md"
)

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path      string
	MustExist bool
	ReadOnly  bool
	// Strict parses numbers as json.Number to avoid float64 conversion.
	Strict    bool
	Logger    *slog.Logger
	SystemDir string // e.g. ".binder"
	// Pattern restricts List to documents whose ID matches this doublestar
	// pattern (e.g. "sv*/**"). Empty lists everything.
	Pattern string
	// IDColumn names the CSV column holding the row ID.
	IDColumn string
	// DefaultExt is the format of new documents saved without extension.
	DefaultExt string
	// ErrorHandler receives non-fatal errors: unparseable files during List
	// and watcher failures. Without it they are logged.
	ErrorHandler func(error)
	// Serializers overrides or extends the single-document formats.
	Serializers map[string]Serializer
}

// Repository implements core.Repository and core.Watchable on a directory.
type Repository struct {
	Path        string
	config      Config
	cache       *cache
	serializers map[string]Serializer
	probeOrder  []string
	collection  CollectionSerializer

	// writeMu serializes writes; CSV rows are read-modify-write.
	writeMu sync.Mutex

	mu            sync.RWMutex
	watcherActive bool
	lastScan      *time.Time
}

var (
	_ core.Repository = (*Repository)(nil)
	_ core.Watchable  = (*Repository)(nil)
)

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.IDColumn == "" {
		config.IDColumn = DefaultIDColumn
	}
	if config.DefaultExt == "" {
		config.DefaultExt = DefaultExt
	}
	if !strings.HasPrefix(config.DefaultExt, ".") {
		config.DefaultExt = "." + config.DefaultExt
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	serializers := DefaultSerializers(config.Strict)
	for ext, s := range config.Serializers {
		serializers[ext] = s
	}

	return &Repository{
		Path:        config.Path,
		config:      config,
		cache:       newCache(config.Path, config.SystemDir),
		serializers: serializers,
		probeOrder:  probeOrder(serializers),
		collection:  NewCSVSerializer(config.Strict),
	}
}

// probeOrder lists the built-in extensions first, then custom ones sorted.
func probeOrder(serializers map[string]Serializer) []string {
	order := make([]string, 0, len(serializers))
	for _, ext := range documentExtensions {
		if serializers[ext] != nil {
			order = append(order, ext)
		}
	}
	var extra []string
	for ext := range serializers {
		if !slices.Contains(documentExtensions, ext) {
			extra = append(extra, ext)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}

// Initialize prepares the binder directory.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist || r.config.ReadOnly {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("binder path does not exist: %s", r.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat binder path: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("binder path is not a directory: %s", r.Path)
		}
	}
	if r.config.ReadOnly {
		return nil
	}

	if err := os.MkdirAll(filepath.Join(r.Path, r.config.SystemDir), 0755); err != nil {
		return fmt.Errorf("failed to create binder directory: %w", err)
	}
	return nil
}

// location is where a document lives on disk.
type location struct {
	path       string
	ext        string
	collection bool
	key        string // row ID inside a collection
}

func (r *Repository) locate(id string) (location, bool) {
	if ext := filepath.Ext(id); r.serializers[ext] != nil {
		p := r.abs(id)
		if isFile(p) {
			return location{path: p, ext: ext}, true
		}
		return location{}, false
	}

	for _, ext := range r.probeOrder {
		p := r.abs(id + ext)
		if isFile(p) {
			return location{path: p, ext: ext}, true
		}
	}

	dir, key := path.Split(id)
	if dir != "" && key != "" {
		p := r.abs(strings.TrimSuffix(dir, "/") + collectionExtension)
		if isFile(p) {
			return location{path: p, ext: collectionExtension, collection: true, key: key}, true
		}
	}
	return location{}, false
}

// Get retrieves a card document by ID.
func (r *Repository) Get(ctx context.Context, id string) (core.Document, error) {
	if err := validateID(id); err != nil {
		return core.Document{}, err
	}

	loc, ok := r.locate(id)
	if !ok {
		return core.Document{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if loc.collection {
		rows, err := r.readCollection(loc.path)
		if err != nil {
			return core.Document{}, err
		}
		for _, row := range rows {
			if row.ID == loc.key {
				row.ID = id
				return row, nil
			}
		}
		return core.Document{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return r.readDocument(loc.path, loc.ext, strings.TrimSuffix(id, filepath.Ext(loc.path)))
}

// Save persists a document atomically.
//
// An existing document is rewritten in its current format (including CSV
// rows). New documents use the extension in the ID, or DefaultExt.
func (r *Repository) Save(ctx context.Context, doc core.Document) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := validateID(doc.ID); err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	loc, ok := r.locate(doc.ID)
	if ok && loc.collection {
		return r.saveToCollection(loc, doc)
	}
	if !ok {
		loc.ext = filepath.Ext(doc.ID)
		name := doc.ID
		if r.serializers[loc.ext] == nil {
			loc.ext = r.config.DefaultExt
			name = doc.ID + loc.ext
		}
		loc.path = r.abs(name)
	}

	serializer, found := r.serializers[loc.ext]
	if !found {
		return fmt.Errorf("no serializer for %s", loc.ext)
	}
	data, err := serializer.Serialize(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", doc.ID, err)
	}

	if err := os.MkdirAll(filepath.Dir(loc.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := writeFileAtomic(loc.path, data, 0644); err != nil {
		return err
	}

	r.config.Logger.Debug("document saved", "id", doc.ID, "path", loc.path)
	return nil
}

func (r *Repository) saveToCollection(loc location, doc core.Document) error {
	rows, err := r.readCollection(loc.path)
	if err != nil {
		return err
	}

	row := doc
	row.ID = loc.key
	replaced := false
	for i := range rows {
		if rows[i].ID == loc.key {
			rows[i] = row
			replaced = true
			break
		}
	}
	if !replaced {
		rows = append(rows, row)
	}

	if err := r.writeCollection(loc.path, rows); err != nil {
		return err
	}
	r.config.Logger.Debug("collection row saved", "id", doc.ID, "path", loc.path)
	return nil
}

// Delete removes a document, or a row from its collection.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	if err := validateID(id); err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	loc, ok := r.locate(id)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}

	if loc.collection {
		rows, err := r.readCollection(loc.path)
		if err != nil {
			return err
		}
		kept := rows[:0]
		for _, row := range rows {
			if row.ID != loc.key {
				kept = append(kept, row)
			}
		}
		if len(kept) == len(rows) {
			return fmt.Errorf("%w: %s", core.ErrNotFound, id)
		}
		return r.writeCollection(loc.path, kept)
	}

	if err := os.Remove(loc.path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", core.ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	r.cache.Delete(r.rel(loc.path))
	r.config.Logger.Debug("document deleted", "id", id)
	return nil
}

// List returns every card in the binder in path order.
//
// Unparseable files are reported through the error handler and skipped.
// Parsed single-card files are cached by mtime in {SystemDir}/index.json.
func (r *Repository) List(ctx context.Context) ([]core.Document, error) {
	if err := r.cache.Load(); err != nil {
		r.config.Logger.Warn("cache load failed", "error", err)
	}

	var docs []core.Document
	seen := make(map[string]bool)
	ids := make(map[string]bool)

	err := filepath.WalkDir(r.Path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if p != r.Path && r.isSystemDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isTempFile(p) {
			return nil
		}

		ext := filepath.Ext(d.Name())
		rel := r.rel(p)
		id := strings.TrimSuffix(rel, ext)

		if ext == collectionExtension {
			rows, err := r.readCollection(p)
			if err != nil {
				r.reportError(fmt.Errorf("skipping collection %s: %w", rel, err))
				return nil
			}
			for _, row := range rows {
				row.ID = id + "/" + row.ID
				if ids[row.ID] || !r.matches(row.ID) {
					continue
				}
				ids[row.ID] = true
				docs = append(docs, row)
			}
			return nil
		}

		if r.serializers[ext] == nil {
			return nil
		}
		seen[rel] = true
		if ids[id] || !r.matches(id) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		mtime := info.ModTime()

		if entry, hit := r.cache.Get(rel, mtime); hit {
			ids[id] = true
			docs = append(docs, core.Document{ID: entry.ID, Content: entry.Content, Metadata: entry.Metadata})
			return nil
		}

		doc, err := r.readDocument(p, ext, id)
		if err != nil {
			r.reportError(fmt.Errorf("skipping %s: %w", rel, err))
			return nil
		}
		r.cache.Set(rel, &indexEntry{
			ID:           id,
			Content:      doc.Content,
			Metadata:     doc.Metadata,
			LastModified: mtime,
		})
		ids[id] = true
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.cache.Prune(seen)
	if !r.config.ReadOnly {
		if err := r.cache.Save(); err != nil {
			r.config.Logger.Warn("cache save failed", "error", err)
		}
	}
	r.recordScan()

	return docs, nil
}

// Watch starts a filesystem watcher and returns its events. Only documents
// whose ID matches pattern are reported; an empty pattern reports all. The
// channel is closed once ctx is done and the watcher has stopped.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	events := make(chan core.Event)
	w := newWatchWorker(r, pattern, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = w.Stop(stopCtx)
		select {
		case <-w.done:
		case <-stopCtx.Done():
			r.config.Logger.Warn("watcher did not stop in time")
		}
		close(events)
		return nil
	})

	return events, nil
}

func (r *Repository) readDocument(p, ext, id string) (core.Document, error) {
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return core.Document{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
		}
		return core.Document{}, err
	}
	defer f.Close()

	doc, err := r.serializers[ext].Parse(f)
	if err != nil {
		return core.Document{}, fmt.Errorf("failed to parse document %s: %w", id, err)
	}
	doc.ID = id
	return *doc, nil
}

func (r *Repository) readCollection(p string) ([]core.Document, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := r.collection.ParseCollection(f, r.config.IDColumn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse collection %s: %w", r.rel(p), err)
	}
	return rows, nil
}

func (r *Repository) writeCollection(p string, rows []core.Document) error {
	data, err := r.collection.SerializeCollection(rows, r.config.IDColumn)
	if err != nil {
		return fmt.Errorf("failed to serialize collection: %w", err)
	}
	return writeFileAtomic(p, data, 0644)
}

func (r *Repository) matches(id string) bool {
	if r.config.Pattern == "" {
		return true
	}
	ok, err := doublestar.Match(r.config.Pattern, id)
	return err == nil && ok
}

func (r *Repository) isSystemDir(name string) bool {
	return name == ".git" || name == r.config.SystemDir
}

func (r *Repository) reportError(err error) {
	if r.config.ErrorHandler != nil {
		r.config.ErrorHandler(err)
		return
	}
	r.config.Logger.Warn("binder", "error", err)
}

func (r *Repository) abs(id string) string {
	return filepath.Join(r.Path, filepath.FromSlash(id))
}

func (r *Repository) rel(p string) string {
	rel, err := filepath.Rel(r.Path, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func validateID(id string) error {
	if id == "" {
		return core.ErrEmptyID
	}
	if !filepath.IsLocal(filepath.FromSlash(id)) {
		return fmt.Errorf("invalid document id %q: %w", id, errors.ErrUnsupported)
	}
	return nil
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
