package reveal

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func seq(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return items
}

func newTestController(t *testing.T, items []int, opts ...Option) (*Controller[int], *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	opts = append([]Option{WithClock(clock)}, opts...)
	c, err := New(items, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, clock
}

func TestNew_InitialWindow(t *testing.T) {
	tests := []struct {
		name        string
		n           int
		initial     int
		wantVisible int
		wantMore    bool
		wantState   State
	}{
		{"larger collection", 100, 24, 24, true, StateIdle},
		{"smaller collection", 10, 24, 10, false, StateExhausted},
		{"exact fit", 24, 24, 24, false, StateExhausted},
		{"empty collection", 0, 24, 0, false, StateExhausted},
		{"zero initial", 5, 0, 0, true, StateIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestController(t, seq(tt.n), WithInitialVisible(tt.initial))
			snap := c.Snapshot()
			assert.Equal(t, tt.wantVisible, snap.VisibleCount)
			assert.Len(t, snap.Visible, tt.wantVisible)
			assert.Equal(t, tt.n, snap.Total)
			assert.Equal(t, tt.wantMore, snap.HasMore)
			assert.Equal(t, tt.wantState, snap.State)
			assert.False(t, snap.Loading)
			assert.NoError(t, snap.Err)
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	for name, opt := range map[string]Option{
		"zero increment":   WithIncrement(0),
		"negative initial": WithInitialVisible(-1),
		"negative max":     WithMax(-3),
		"negative margin":  WithMargin(-1),
		"negative delay":   WithDelay(-time.Second),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := New(seq(3), opt)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestRequestMore_GrowsToCollectionSize(t *testing.T) {
	c, clock := newTestController(t, seq(100),
		WithInitialVisible(24),
		WithIncrement(12),
	)

	require.True(t, c.RequestMore())
	assert.Equal(t, 36, c.Snapshot().VisibleCount)

	for i := 2; i <= 7; i++ {
		clock.Advance(DefaultMinInterval)
		require.True(t, c.RequestMore(), "step %d", i)
	}

	snap := c.Snapshot()
	assert.Equal(t, 100, snap.VisibleCount)
	assert.Equal(t, StateExhausted, snap.State)
	assert.False(t, snap.HasMore)
	assert.Equal(t, seq(100), snap.Visible)

	clock.Advance(DefaultMinInterval)
	assert.False(t, c.RequestMore(), "eighth request must be a no-op")
	assert.False(t, c.Signal(0))
	assert.Equal(t, 100, c.Snapshot().VisibleCount)
}

func TestRequestMore_RespectsMax(t *testing.T) {
	c, clock := newTestController(t, seq(100),
		WithInitialVisible(10),
		WithIncrement(25),
		WithMax(40),
	)

	require.True(t, c.RequestMore())
	assert.Equal(t, 35, c.Snapshot().VisibleCount)

	clock.Advance(time.Second)
	require.True(t, c.RequestMore())
	snap := c.Snapshot()
	assert.Equal(t, 40, snap.VisibleCount)
	assert.False(t, snap.HasMore)
	assert.Equal(t, StateExhausted, snap.State)
}

func TestSignal_Debounce(t *testing.T) {
	c, clock := newTestController(t, seq(100), WithMinInterval(300*time.Millisecond))

	assert.True(t, c.Signal(0))
	assert.False(t, c.Signal(0), "second signal inside the interval")
	assert.Equal(t, 36, c.Snapshot().VisibleCount)

	clock.Advance(299 * time.Millisecond)
	assert.False(t, c.Signal(1))
	assert.Equal(t, 36, c.Snapshot().VisibleCount)

	clock.Advance(time.Millisecond)
	assert.True(t, c.Signal(1))
	assert.Equal(t, 48, c.Snapshot().VisibleCount)
}

func TestSignal_Margin(t *testing.T) {
	c, _ := newTestController(t, seq(100), WithMargin(3))

	assert.False(t, c.Signal(4), "outside the margin")
	assert.Equal(t, 24, c.Snapshot().VisibleCount)

	assert.True(t, c.Signal(3))
	assert.Equal(t, 36, c.Snapshot().VisibleCount)
}

func TestSignal_NegativeDistanceCountsAsAtEnd(t *testing.T) {
	c, _ := newTestController(t, seq(50), WithMargin(0))
	assert.True(t, c.Signal(-5))
	assert.Equal(t, 36, c.Snapshot().VisibleCount)
}

func TestSignal_DistanceRejectionDoesNotConsumeInterval(t *testing.T) {
	c, _ := newTestController(t, seq(100), WithMargin(2))

	require.False(t, c.Signal(10))
	assert.True(t, c.Signal(1), "a far signal must not start the debounce window")
}

func TestReset(t *testing.T) {
	c, clock := newTestController(t, seq(100))

	for i := 0; i < 5; i++ {
		c.RequestMore()
		clock.Advance(DefaultMinInterval)
	}
	require.Equal(t, 84, c.Snapshot().VisibleCount)

	c.Reset()
	snap := c.Snapshot()
	assert.Equal(t, 24, snap.VisibleCount)
	assert.Equal(t, StateIdle, snap.State)
	assert.True(t, snap.HasMore)

	// Reset clears the debounce timestamp.
	assert.True(t, c.RequestMore())
}

func TestReset_SmallCollection(t *testing.T) {
	c, _ := newTestController(t, seq(10))
	c.Reset()
	snap := c.Snapshot()
	assert.Equal(t, 10, snap.VisibleCount)
	assert.Equal(t, StateExhausted, snap.State)
}

func TestReset_RevivesExhausted(t *testing.T) {
	c, clock := newTestController(t, seq(30))

	require.True(t, c.RequestMore())
	require.Equal(t, StateExhausted, c.Snapshot().State)

	clock.Advance(time.Hour)
	assert.False(t, c.Signal(0))

	c.Reset()
	assert.Equal(t, StateIdle, c.Snapshot().State)
	assert.True(t, c.Signal(0))
	assert.Equal(t, 30, c.Snapshot().VisibleCount)
}

func TestSetItems_ReordersAndResets(t *testing.T) {
	items := seq(100)
	c, clock := newTestController(t, items)

	c.RequestMore()
	clock.Advance(DefaultMinInterval)
	c.RequestMore()
	require.Equal(t, 48, c.Snapshot().VisibleCount)

	reversed := slices.Clone(items)
	slices.Reverse(reversed)
	c.SetItems(reversed)

	snap := c.Snapshot()
	assert.Equal(t, 24, snap.VisibleCount)
	assert.Equal(t, reversed[:24], snap.Visible)
	assert.Equal(t, 99, snap.Visible[0])
}

func TestSetItems_ShrinkToExhausted(t *testing.T) {
	c, _ := newTestController(t, seq(100))
	c.SetItems(seq(3))

	snap := c.Snapshot()
	assert.Equal(t, 3, snap.VisibleCount)
	assert.False(t, snap.HasMore)
	assert.Equal(t, StateExhausted, snap.State)
}

func TestDelay_DefersStep(t *testing.T) {
	c, clock := newTestController(t, seq(100),
		WithDelay(50*time.Millisecond),
		WithMinInterval(0),
	)

	require.True(t, c.RequestMore())
	snap := c.Snapshot()
	assert.True(t, snap.Loading)
	assert.Equal(t, StateLoading, snap.State)
	assert.Equal(t, 24, snap.VisibleCount)

	assert.False(t, c.RequestMore(), "in-flight step blocks new requests")
	assert.False(t, c.Signal(0))

	clock.Advance(50 * time.Millisecond)
	snap = c.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, 36, snap.VisibleCount)
}

func TestDelay_ResetDropsPendingStep(t *testing.T) {
	c, clock := newTestController(t, seq(100), WithDelay(50*time.Millisecond))

	require.True(t, c.RequestMore())
	require.Equal(t, 1, clock.Pending())

	c.Reset()
	assert.Equal(t, 0, clock.Pending())
	assert.Equal(t, StateIdle, c.Snapshot().State)

	clock.Advance(time.Second)
	assert.Equal(t, 24, c.Snapshot().VisibleCount)
}

func TestDelay_StaleTimerIgnoredAfterSetItems(t *testing.T) {
	c, clock := newTestController(t, seq(100), WithDelay(50*time.Millisecond))

	// Capture the timer callback and run it after the collection changed.
	require.True(t, c.RequestMore())
	var stale *fakeTimer
	clock.mu.Lock()
	stale = clock.timers[0]
	clock.mu.Unlock()

	c.SetItems(seq(200))
	stale.fn()

	snap := c.Snapshot()
	assert.Equal(t, 24, snap.VisibleCount)
	assert.Equal(t, 200, snap.Total)
	assert.Equal(t, StateIdle, snap.State)
}

func TestLoadHook_FailureReturnsToIdle(t *testing.T) {
	boom := errors.New("boom")
	var fail atomic.Bool
	fail.Store(true)

	c, clock := newTestController(t, seq(100),
		WithLoadHook(func(ctx context.Context, from, to int) error {
			if fail.Load() {
				return boom
			}
			return nil
		}),
	)

	assert.True(t, c.RequestMore())
	snap := c.Snapshot()
	assert.ErrorIs(t, snap.Err, boom)
	assert.Equal(t, StateIdle, snap.State)
	assert.False(t, snap.Loading)
	assert.Equal(t, 24, snap.VisibleCount)

	fail.Store(false)
	clock.Advance(DefaultMinInterval)
	assert.True(t, c.Signal(0))
	snap = c.Snapshot()
	assert.NoError(t, snap.Err)
	assert.Equal(t, 36, snap.VisibleCount)
}

func TestLoadHook_ReceivesBounds(t *testing.T) {
	var got [][2]int
	c, _ := newTestController(t, seq(30),
		WithLoadHook(func(ctx context.Context, from, to int) error {
			got = append(got, [2]int{from, to})
			return nil
		}),
	)

	c.RequestMore()
	assert.Equal(t, [][2]int{{24, 30}}, got)
}

func TestLoadHook_PanicIsRecorded(t *testing.T) {
	c, _ := newTestController(t, seq(100),
		WithLoadHook(func(ctx context.Context, from, to int) error {
			panic("kaboom")
		}),
	)

	assert.True(t, c.RequestMore())
	snap := c.Snapshot()
	require.Error(t, snap.Err)
	assert.Contains(t, snap.Err.Error(), "kaboom")
	assert.Equal(t, StateIdle, snap.State)
}

func TestLoadHook_ContextCancelledByReset(t *testing.T) {
	started := make(chan struct{})
	done := make(chan error, 1)

	c, _ := newTestController(t, seq(100),
		WithLoadHook(func(ctx context.Context, from, to int) error {
			close(started)
			<-ctx.Done()
			done <- ctx.Err()
			return ctx.Err()
		}),
	)

	go c.RequestMore()
	<-started
	c.Reset()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("hook context was not cancelled")
	}

	snap := c.Snapshot()
	assert.Equal(t, 24, snap.VisibleCount)
	assert.NoError(t, snap.Err, "a superseded step must not record its error")
}

func TestClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	var changes atomic.Int32
	c, err := New(seq(100),
		WithDelay(time.Hour),
		WithOnChange(func() { changes.Add(1) }),
	)
	require.NoError(t, err)

	require.True(t, c.RequestMore())
	before := changes.Load()

	c.Close()
	c.Close()

	assert.False(t, c.RequestMore())
	assert.False(t, c.Signal(0))
	c.Reset()
	c.SetItems(seq(5))

	snap := c.Snapshot()
	assert.Equal(t, StateClosed, snap.State)
	assert.False(t, snap.HasMore)
	assert.Equal(t, before, changes.Load())
}

func TestOnChange(t *testing.T) {
	var mu sync.Mutex
	var states []State

	var c *Controller[int]
	c, _ = newTestController(t, seq(100),
		WithOnChange(func() {
			mu.Lock()
			defer mu.Unlock()
			states = append(states, c.Snapshot().State)
		}),
	)

	c.RequestMore()
	c.Reset()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateLoading, StateIdle, StateIdle}, states)
}

func TestSentinel_ObserveReadsCurrentState(t *testing.T) {
	c, clock := newTestController(t, seq(100), WithMinInterval(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proximity := make(chan int)
	c.Sentinel().Observe(ctx, proximity)

	proximity <- 0
	require.Eventually(t, func() bool {
		return c.Snapshot().VisibleCount == 36
	}, time.Second, 5*time.Millisecond)

	// The collection shrinks after the subscription was made; the long-lived
	// subscriber must see the new size and stop growing.
	c.SetItems(seq(30))
	clock.Advance(time.Second)
	proximity <- 0
	require.Eventually(t, func() bool {
		return c.Snapshot().State == StateExhausted
	}, time.Second, 5*time.Millisecond)

	proximity <- 0
	proximity <- 0
	assert.Equal(t, 30, c.Snapshot().VisibleCount)
	close(proximity)
}

func TestSentinel_CloseEndsSubscription(t *testing.T) {
	defer goleak.VerifyNone(t)

	c, err := New(seq(100))
	require.NoError(t, err)

	proximity := make(chan int)
	c.Sentinel().Observe(context.Background(), proximity)
	c.Close()
}

func TestSnapshot_VisibleIsACopy(t *testing.T) {
	items := seq(50)
	c, _ := newTestController(t, items)

	snap := c.Snapshot()
	require.Len(t, snap.Visible, 24)
	snap.Visible[0] = -1
	items[1] = -2

	assert.Equal(t, 0, c.Snapshot().Visible[0])
	assert.Equal(t, -1, snap.Visible[0])
	assert.Equal(t, 1, snap.Visible[1])
}

func TestSentinel_NilSafe(t *testing.T) {
	var s *Sentinel
	assert.False(t, s.Report(0))
}

func TestConcurrentSignals_NoOvershoot(t *testing.T) {
	c, _ := newTestController(t, seq(250),
		WithMinInterval(0),
		WithIncrement(7),
	)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Signal(0)
				snap := c.Snapshot()
				if snap.VisibleCount > snap.Total {
					t.Errorf("visible %d > total %d", snap.VisibleCount, snap.Total)
				}
			}
		}()
	}
	wg.Wait()

	for c.RequestMore() {
	}
	snap := c.Snapshot()
	assert.Equal(t, 250, snap.VisibleCount)
	assert.Equal(t, StateExhausted, snap.State)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	c, clock := newTestController(t, seq(40), WithMetrics(m))

	c.Signal(10) // too far
	c.Signal(0)
	c.Signal(0) // debounced
	clock.Advance(time.Second)
	c.RequestMore()
	c.RequestMore() // exhausted
	c.Reset()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.steps.WithLabelValues(triggerSignal)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.steps.WithLabelValues(triggerManual)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues(reasonDistance)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues(reasonDebounce)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejected.WithLabelValues(reasonExhausted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resets))
	assert.Equal(t, 24.0, testutil.ToFloat64(m.visible))
}

func TestIntrospection(t *testing.T) {
	c, _ := newTestController(t, seq(50), WithMax(30))
	c.RequestMore()

	st, ok := c.State().(ControllerState)
	require.True(t, ok)
	assert.Equal(t, "exhausted", st.State)
	assert.Equal(t, 30, st.Visible)
	assert.Equal(t, 50, st.Total)
	assert.Equal(t, 30, st.Limit)
	assert.Equal(t, 1, st.Steps)
	assert.Equal(t, "reveal-controller", c.ComponentType())
}
