package reveal

import (
	"context"

	"github.com/aretw0/lifecycle"
)

// Sentinel is the opaque handle a viewer attaches to the end of the visible
// window. It forwards proximity reports to the controller that created it.
type Sentinel struct {
	signal func(distance int) bool
	done   <-chan struct{}
}

// Report forwards a single proximity value and reports whether it started a
// step.
func (s *Sentinel) Report(distance int) bool {
	if s == nil || s.signal == nil {
		return false
	}
	return s.signal(distance)
}

// Observe subscribes once to a stream of proximity values. The subscription
// lives until ctx is done, the stream is closed or the controller is closed;
// every value is evaluated against the controller state at delivery time.
func (s *Sentinel) Observe(ctx context.Context, proximity <-chan int) {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-s.done:
				return nil
			case d, ok := <-proximity:
				if !ok {
					return nil
				}
				s.Report(d)
			}
		}
	})
}
