package fs

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/binder/pkg/core"
)

// watchDebounce coalesces bursts of writes to the same card (editors often
// write, chmod and rename in quick succession).
const watchDebounce = 50 * time.Millisecond

type watchWorker struct {
	*worker.BaseWorker
	repo      *Repository
	pattern   string
	events    chan<- core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
	done      chan struct{}
}

func newWatchWorker(repo *Repository, pattern string, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("binder-watcher"),
		repo:       repo,
		pattern:    pattern,
		events:     events,
		done:       make(chan struct{}),
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.addTree(watcher, w.repo.Path); err != nil {
		_ = watcher.Close()
		return err
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(watchDebounce)
	w.repo.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"pattern":           w.pattern,
		}
	})
}

// addTree watches root and every directory below it, skipping system dirs.
// fsnotify is not recursive.
func (w *watchWorker) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p != root && os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.repo.Path && w.repo.isSystemDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

// shouldIgnore filters out events that never map to a card.
func (w *watchWorker) shouldIgnore(event fsnotify.Event) bool {
	if isTempFile(event.Name) {
		return true
	}

	rel := w.repo.rel(event.Name)
	for _, part := range strings.Split(rel, "/") {
		if w.repo.isSystemDir(part) {
			return true
		}
	}

	ext := filepath.Ext(rel)
	if ext != collectionExtension && w.repo.serializers[ext] == nil {
		return true
	}

	if w.pattern == "" || ext == collectionExtension {
		return false
	}
	ok, err := doublestar.Match(w.pattern, strings.TrimSuffix(rel, ext))
	return err != nil || !ok
}

func mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	}
	return ""
}

// processFilesystemEvent filters, maps and debounces one fsnotify event.
// A whole CSV set list is reported under the collection ID (its path without
// extension); consumers reload rather than patching single rows.
func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) bool {
	w.repo.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.repo.isSystemDir(info.Name()) {
				if err := w.addTree(w.watcher, event.Name); err != nil {
					w.handleWatcherError(err)
				}
				w.announceTree(ctx, event.Name)
			}
			return false
		}
	}

	if w.shouldIgnore(event) {
		return false
	}

	eType := mapEventType(event)
	if eType == "" {
		return false
	}

	rel := w.repo.rel(event.Name)
	w.sendEvent(ctx, core.Event{
		Type:      eType,
		ID:        strings.TrimSuffix(rel, filepath.Ext(rel)),
		Timestamp: time.Now().Unix(),
	})
	return true
}

// announceTree reports files that landed in a new directory before it was
// being watched.
func (w *watchWorker) announceTree(ctx context.Context, root string) {
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		event := fsnotify.Event{Name: p, Op: fsnotify.Create}
		if w.shouldIgnore(event) {
			return nil
		}
		rel := w.repo.rel(p)
		w.sendEvent(ctx, core.Event{
			Type:      core.EventCreate,
			ID:        strings.TrimSuffix(rel, filepath.Ext(rel)),
			Timestamp: time.Now().Unix(),
		})
		return nil
	})
}

// sendEvent enqueues an event via the debouncer. The consumer may be gone
// during shutdown, so the send also watches ctx.
func (w *watchWorker) sendEvent(ctx context.Context, event core.Event) {
	w.debouncer.add(event, func(e core.Event) {
		defer func() {
			_ = recover()
		}()
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

func (w *watchWorker) handleWatcherError(err error) {
	w.repo.config.Logger.Error("fsnotify error", "error", err)
	if w.repo.config.ErrorHandler != nil {
		w.repo.config.ErrorHandler(err)
	}
}

func (w *watchWorker) run(ctx context.Context) (err error) {
	defer close(w.done)
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			if w.repo.config.Logger.Enabled(ctx, slog.LevelDebug) {
				w.repo.config.Logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				w.repo.config.Logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()

	err = w.loop(ctx)

	// No timer may fire after the owner closes the events channel.
	w.debouncer.stopAndWait(5 * time.Second)
	return err
}

func (w *watchWorker) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.processFilesystemEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.handleWatcherError(wErr)
		}
	}
}
