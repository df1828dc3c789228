package reveal

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestProperty_GrowthIsMonotonicAndCapped(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 400).Draw(rt, "n")
		initial := rapid.IntRange(0, 64).Draw(rt, "initial")
		increment := rapid.IntRange(1, 50).Draw(rt, "increment")

		clock := newFakeClock()
		c, err := New(seq(n),
			WithClock(clock),
			WithInitialVisible(initial),
			WithIncrement(increment),
		)
		if err != nil {
			rt.Fatalf("New: %v", err)
		}
		defer c.Close()

		want := min(initial, n)
		if got := c.Snapshot().VisibleCount; got != want {
			rt.Fatalf("initial visible = %d, want %d", got, want)
		}

		prev := want
		for steps := 0; ; steps++ {
			if steps > n+1 {
				rt.Fatalf("no convergence after %d steps", steps)
			}
			clock.Advance(DefaultMinInterval)
			ok := c.RequestMore()
			snap := c.Snapshot()
			if snap.VisibleCount < prev {
				rt.Fatalf("window shrank from %d to %d", prev, snap.VisibleCount)
			}
			if snap.VisibleCount > n {
				rt.Fatalf("window %d overshoots collection %d", snap.VisibleCount, n)
			}
			if ok && snap.VisibleCount-prev > increment {
				rt.Fatalf("step grew by %d > increment %d", snap.VisibleCount-prev, increment)
			}
			prev = snap.VisibleCount
			if !ok {
				break
			}
		}

		snap := c.Snapshot()
		if snap.VisibleCount != n || snap.HasMore || snap.State != StateExhausted {
			rt.Fatalf("final window %d/%d state %s hasMore %v", snap.VisibleCount, n, snap.State, snap.HasMore)
		}

		c.Reset()
		if got := c.Snapshot().VisibleCount; got != want {
			rt.Fatalf("after reset visible = %d, want %d", got, want)
		}
	})
}

func TestProperty_BurstWithinIntervalYieldsOneStep(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		interval := time.Duration(rapid.IntRange(1, 1000).Draw(rt, "interval_ms")) * time.Millisecond
		burst := rapid.IntRange(2, 20).Draw(rt, "burst")

		clock := newFakeClock()
		c, err := New(seq(1000), WithClock(clock), WithMinInterval(interval))
		if err != nil {
			rt.Fatalf("New: %v", err)
		}
		defer c.Close()

		honoured := 0
		for i := 0; i < burst; i++ {
			if c.Signal(0) {
				honoured++
			}
			gap := time.Duration(rapid.Int64Range(0, int64(interval)/int64(burst)).Draw(rt, "gap"))
			clock.Advance(gap)
		}
		if honoured != 1 {
			rt.Fatalf("%d signals inside %s honoured %d steps", burst, interval, honoured)
		}
	})
}
