package reveal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Defaults mirror a card grid: two dozen cards up front, one row of twelve
// per step.
const (
	DefaultInitialVisible = 24
	DefaultIncrement      = 12
	DefaultMargin         = 3
	DefaultMinInterval    = 300 * time.Millisecond
)

// ErrInvalidConfig is returned by New when the configuration cannot work.
var ErrInvalidConfig = errors.New("reveal: invalid configuration")

// LoadHook runs for every honoured step before the window grows from
// visible[from] to visible[to]. Returning an error aborts the step.
type LoadHook func(ctx context.Context, from, to int) error

// Config holds the controller configuration.
type Config struct {
	InitialVisible int
	Increment      int
	// Max caps the window below the collection size. Zero means no cap.
	Max int
	// Margin is the proximity threshold in items: a Signal with a distance
	// at or below it triggers a step.
	Margin int
	// MinInterval is the minimum spacing between two honoured steps.
	MinInterval time.Duration
	// Delay defers applying a step. Zero applies it synchronously.
	Delay    time.Duration
	LoadHook LoadHook
	Clock    Clock
	Logger   *slog.Logger
	Metrics  *Metrics
	// OnChange is called after every state change, outside the controller
	// lock. It must not block for long; callers typically read Snapshot.
	OnChange func()
}

// Option configures a Controller.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		InitialVisible: DefaultInitialVisible,
		Increment:      DefaultIncrement,
		Margin:         DefaultMargin,
		MinInterval:    DefaultMinInterval,
		Clock:          realClock{},
	}
}

func (c Config) validate() error {
	if c.InitialVisible < 0 {
		return fmt.Errorf("%w: initial visible %d < 0", ErrInvalidConfig, c.InitialVisible)
	}
	if c.Increment <= 0 {
		return fmt.Errorf("%w: increment %d <= 0", ErrInvalidConfig, c.Increment)
	}
	if c.Max < 0 {
		return fmt.Errorf("%w: max %d < 0", ErrInvalidConfig, c.Max)
	}
	if c.Margin < 0 {
		return fmt.Errorf("%w: margin %d < 0", ErrInvalidConfig, c.Margin)
	}
	if c.MinInterval < 0 || c.Delay < 0 {
		return fmt.Errorf("%w: negative duration", ErrInvalidConfig)
	}
	return nil
}

// WithInitialVisible sets how many items are visible after New and Reset.
func WithInitialVisible(n int) Option {
	return func(c *Config) {
		c.InitialVisible = n
	}
}

// WithIncrement sets the growth step.
func WithIncrement(n int) Option {
	return func(c *Config) {
		c.Increment = n
	}
}

// WithMax caps the visible window. Zero disables the cap.
func WithMax(n int) Option {
	return func(c *Config) {
		c.Max = n
	}
}

// WithMargin sets the proximity threshold used by Signal.
func WithMargin(n int) Option {
	return func(c *Config) {
		c.Margin = n
	}
}

// WithMinInterval sets the debounce interval between honoured steps.
func WithMinInterval(d time.Duration) Option {
	return func(c *Config) {
		c.MinInterval = d
	}
}

// WithDelay defers every step by d.
// Useful to let a renderer settle before the window grows; zero by default.
func WithDelay(d time.Duration) Option {
	return func(c *Config) {
		c.Delay = d
	}
}

// WithLoadHook registers work to run before each step.
func WithLoadHook(fn LoadHook) Option {
	return func(c *Config) {
		c.LoadHook = fn
	}
}

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(c *Config) {
		if clock != nil {
			c.Clock = clock
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithOnChange registers a change listener.
func WithOnChange(fn func()) Option {
	return func(c *Config) {
		c.OnChange = fn
	}
}
