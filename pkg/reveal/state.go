package reveal

import "time"

// State is the lifecycle state of a Controller.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateExhausted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateExhausted:
		return "exhausted"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent view of the controller at one point in time.
type Snapshot[T any] struct {
	// Visible is a copy of the revealed prefix.
	Visible      []T
	VisibleCount int
	Total        int
	HasMore      bool
	Loading      bool
	State        State
	// Err is the failure of the most recent step, cleared by the next
	// successful step or by Reset.
	Err error
}

// rejection reasons, also used as metric labels.
const (
	reasonClosed    = "closed"
	reasonLoading   = "loading"
	reasonExhausted = "exhausted"
	reasonDebounce  = "debounce"
	reasonDistance  = "distance"
)

// Clock abstracts time so tests can drive the debounce and deferral.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the subset of *time.Timer the controller needs.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns the wall clock.
func SystemClock() Clock { return realClock{} }
