package fs

import (
	"sort"
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState is a point-in-time view of the repository.
type RepositoryState struct {
	Path          string     `json:"path"`
	SystemDir     string     `json:"system_dir"`
	Pattern       string     `json:"pattern,omitempty"`
	CacheSize     int        `json:"cache_size"`
	ReadOnly      bool       `json:"read_only"`
	Strict        bool       `json:"strict"`
	Formats       []string   `json:"formats"`
	WatcherActive bool       `json:"watcher_active"`
	LastScan      *time.Time `json:"last_scan,omitempty"`
}

func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]string, 0, len(r.serializers)+1)
	for ext := range r.serializers {
		formats = append(formats, ext)
	}
	formats = append(formats, collectionExtension)
	sort.Strings(formats)

	return RepositoryState{
		Path:          r.Path,
		SystemDir:     r.config.SystemDir,
		Pattern:       r.config.Pattern,
		CacheSize:     r.cache.Len(),
		ReadOnly:      r.config.ReadOnly,
		Strict:        r.config.Strict,
		Formats:       formats,
		WatcherActive: r.watcherActive,
		LastScan:      r.lastScan,
	}
}

func (r *Repository) ComponentType() string {
	return "binder-repository"
}

var (
	_ introspection.Introspectable = (*Repository)(nil)
	_ introspection.Component      = (*Repository)(nil)
)

func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watcherActive = active
}

func (r *Repository) recordScan() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.lastScan = &now
}
