// Package reveal implements progressive reveal of an in-memory collection.
//
// A Controller exposes a visible prefix of an ordered slice. The prefix starts
// at an initial size and grows by a fixed increment, either on demand
// (RequestMore) or when a viewer reports that its position is close to the end
// of the prefix (Signal, or a Sentinel subscription).
//
// Growth is guarded by an in-flight flag and a minimum interval between
// honoured requests, so bursts of proximity signals collapse into one step.
// The step itself can be deferred by a configurable delay and can run an
// optional hook whose failure is recorded on the controller instead of being
// returned to the caller.
//
// States:
//
//	Idle ──RequestMore──▶ Loading ──ok──▶ Idle | Exhausted
//	                         └──error──▶ Idle (Snapshot.Err set)
//	Exhausted ──Reset/SetItems──▶ Idle
//	any ──Close──▶ Closed
//
// Usage:
//
//	ctrl, err := reveal.New(cards,
//		reveal.WithInitialVisible(24),
//		reveal.WithIncrement(12),
//		reveal.WithMinInterval(300*time.Millisecond),
//	)
//	defer ctrl.Close()
//
//	// viewer moved; 2 rows left before the end of the window
//	ctrl.Signal(2)
//	snap := ctrl.Snapshot()
package reveal
