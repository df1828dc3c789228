package fs

import (
	"sync"
	"time"

	"github.com/aretw0/binder/pkg/core"
)

// debouncer delays events per document ID and merges bursts into one.
type debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	pending map[string]*pendingEvent
	stopped bool
	wg      sync.WaitGroup
}

type pendingEvent struct {
	timer *time.Timer
	event core.Event
	fn    func(core.Event)
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:   delay,
		pending: make(map[string]*pendingEvent),
	}
}

// add schedules fn(e) after the delay. A later event for the same ID within
// the delay replaces the scheduled one and restarts the timer.
func (d *debouncer) add(e core.Event, fn func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if p, ok := d.pending[e.ID]; ok && p.timer.Stop() {
		p.event = coalesce(p.event, e)
		p.fn = fn
		p.timer.Reset(d.delay)
		return
	}

	p := &pendingEvent{event: e, fn: fn}
	d.wg.Add(1)
	p.timer = time.AfterFunc(d.delay, func() { d.fire(e.ID, p) })
	d.pending[e.ID] = p
}

func (d *debouncer) fire(id string, p *pendingEvent) {
	defer d.wg.Done()

	d.mu.Lock()
	if d.pending[id] == p {
		delete(d.pending, id)
	}
	event, fn := p.event, p.fn
	d.mu.Unlock()

	fn(event)
}

// stopAndWait drops pending events and waits for in-flight callbacks, up to
// timeout.
func (d *debouncer) stopAndWait(timeout time.Duration) bool {
	d.mu.Lock()
	d.stopped = true
	for id, p := range d.pending {
		if p.timer.Stop() {
			d.wg.Done()
		}
		delete(d.pending, id)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// coalesce merges two events for the same ID, keeping what a consumer needs
// to know about the net effect.
func coalesce(prev, next core.Event) core.Event {
	switch {
	case prev.Type == core.EventCreate && next.Type == core.EventModify:
		next.Type = core.EventCreate
	case prev.Type == core.EventDelete && next.Type == core.EventCreate:
		next.Type = core.EventModify
	}
	return next
}
