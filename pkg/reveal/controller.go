package reveal

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

const (
	triggerManual = "manual"
	triggerSignal = "signal"
)

// Controller reveals a growing prefix of an ordered collection.
//
// All state lives behind mu and every entry point reads it there, so a
// long-lived subscriber (see Sentinel) always acts on the current window and
// never on a value captured when it subscribed.
type Controller[T any] struct {
	cfg      Config
	logger   *slog.Logger
	sentinel *Sentinel
	closed   atomic.Bool
	// done is closed by Close and ends Sentinel subscriptions.
	done chan struct{}

	mu       sync.Mutex
	items    []T
	visible  int
	state    State
	err      error
	lastStep time.Time
	stepped  bool
	// gen invalidates deferred steps scheduled before a Reset, SetItems or
	// Close.
	gen     uint64
	pending Timer
	cancel  context.CancelFunc
	steps   int
	resets  int
}

// New creates a controller over items. The slice is not copied; callers
// replace it through SetItems instead of mutating it.
func New[T any](items []T, opts ...Option) (*Controller[T], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller[T]{
		cfg:    cfg,
		logger: logger,
		items:  items,
		done:   make(chan struct{}),
	}
	c.sentinel = &Sentinel{signal: c.Signal, done: c.done}
	c.resetLocked()
	c.cfg.Metrics.setVisible(c.visible)
	return c, nil
}

// RequestMore asks for one growth step regardless of viewer position.
// It reports whether the request was honoured.
func (c *Controller[T]) RequestMore() bool {
	return c.step(triggerManual, -1)
}

// Signal is the proximity signal: distance is the number of items between the
// viewer position and the end of the visible window. A step is requested when
// the distance is within the configured margin.
func (c *Controller[T]) Signal(distance int) bool {
	if distance < 0 {
		distance = 0
	}
	return c.step(triggerSignal, distance)
}

// Sentinel returns the handle a viewer reports proximity through.
func (c *Controller[T]) Sentinel() *Sentinel {
	return c.sentinel
}

// Reset returns the window to its initial size and clears loading and error
// state. A deferred step still pending is dropped.
func (c *Controller[T]) Reset() {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.resetLocked()
	c.resets++
	visible := c.visible
	c.mu.Unlock()

	c.cfg.Metrics.reset(visible)
	c.logger.Debug("reveal reset", "visible", visible)
	c.notify()
}

// SetItems replaces the collection and resets the window.
func (c *Controller[T]) SetItems(items []T) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.items = items
	c.resetLocked()
	c.resets++
	visible := c.visible
	c.mu.Unlock()

	c.cfg.Metrics.reset(visible)
	c.logger.Debug("reveal collection replaced", "total", len(items), "visible", visible)
	c.notify()
}

// Close disposes the controller. Pending steps are cancelled, Sentinel
// subscriptions end and no listener is notified afterwards.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.closed.Store(true)
	c.cancelPendingLocked()
	c.gen++
	c.state = StateClosed
	close(c.done)
}

// Snapshot returns the current window.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	limit := c.limitLocked()
	return Snapshot[T]{
		Visible:      slices.Clone(c.items[:c.visible]),
		VisibleCount: c.visible,
		Total:        len(c.items),
		HasMore:      c.state != StateClosed && c.visible < limit,
		Loading:      c.state == StateLoading,
		State:        c.state,
		Err:          c.err,
	}
}

func (c *Controller[T]) step(trigger string, distance int) bool {
	c.mu.Lock()
	now := c.cfg.Clock.Now()
	if reason := c.admitLocked(now, distance); reason != "" {
		c.mu.Unlock()
		c.cfg.Metrics.reject(reason)
		c.logger.Debug("reveal request ignored", "trigger", trigger, "reason", reason)
		return false
	}

	c.state = StateLoading
	c.lastStep = now
	c.stepped = true
	c.gen++
	gen := c.gen
	from := c.visible
	to := min(c.visible+c.cfg.Increment, c.limitLocked())

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	deferred := c.cfg.Delay > 0
	if deferred {
		c.pending = c.cfg.Clock.AfterFunc(c.cfg.Delay, func() {
			c.apply(ctx, cancel, gen, from, to, trigger)
		})
	}
	c.mu.Unlock()

	c.notify()
	if !deferred {
		c.apply(ctx, cancel, gen, from, to, trigger)
	}
	return true
}

// admitLocked returns the reason a step must not start, or "".
func (c *Controller[T]) admitLocked(now time.Time, distance int) string {
	switch {
	case c.state == StateClosed:
		return reasonClosed
	case c.state == StateLoading:
		return reasonLoading
	case c.visible >= c.limitLocked():
		return reasonExhausted
	case distance >= 0 && distance > c.cfg.Margin:
		return reasonDistance
	case c.stepped && now.Sub(c.lastStep) < c.cfg.MinInterval:
		return reasonDebounce
	}
	return ""
}

func (c *Controller[T]) apply(ctx context.Context, cancel context.CancelFunc, gen uint64, from, to int, trigger string) {
	defer cancel()
	err := c.runHook(ctx, from, to)

	c.mu.Lock()
	if c.gen != gen || c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.cancel = nil

	if err != nil {
		c.err = err
		c.state = StateIdle
		c.mu.Unlock()

		c.cfg.Metrics.fail()
		c.logger.Warn("reveal step failed", "from", from, "to", to, "error", err)
		c.notify()
		return
	}

	c.visible = to
	c.err = nil
	c.steps++
	c.state = StateIdle
	if c.visible >= c.limitLocked() {
		c.state = StateExhausted
	}
	state := c.state
	c.mu.Unlock()

	c.cfg.Metrics.step(trigger, to)
	c.logger.Debug("reveal step", "trigger", trigger, "visible", to, "state", state)
	c.notify()
}

func (c *Controller[T]) runHook(ctx context.Context, from, to int) (err error) {
	if c.cfg.LoadHook == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reveal: load hook panic: %v", r)
			if c.logger.Enabled(ctx, slog.LevelDebug) {
				c.logger.Debug("load hook panic", "error", err, "stack", string(debug.Stack()))
			}
		}
	}()
	return c.cfg.LoadHook(ctx, from, to)
}

func (c *Controller[T]) resetLocked() {
	c.cancelPendingLocked()
	c.gen++
	c.err = nil
	c.stepped = false
	c.lastStep = time.Time{}

	limit := c.limitLocked()
	c.visible = min(c.cfg.InitialVisible, limit)
	c.state = StateIdle
	if c.visible >= limit {
		c.state = StateExhausted
	}
}

func (c *Controller[T]) cancelPendingLocked() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller[T]) limitLocked() int {
	n := len(c.items)
	if c.cfg.Max > 0 && c.cfg.Max < n {
		return c.cfg.Max
	}
	return n
}

func (c *Controller[T]) notify() {
	if c.cfg.OnChange == nil || c.closed.Load() {
		return
	}
	c.cfg.OnChange()
}
