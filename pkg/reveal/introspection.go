package reveal

import (
	"github.com/aretw0/introspection"
)

// ControllerState exposes internal state for observability.
type ControllerState struct {
	State     string `json:"state"`
	Visible   int    `json:"visible"`
	Total     int    `json:"total"`
	Limit     int    `json:"limit"`
	Steps     int    `json:"steps"`
	Resets    int    `json:"resets"`
	LastError string `json:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (c *Controller[T]) State() any {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := ControllerState{
		State:   c.state.String(),
		Visible: c.visible,
		Total:   len(c.items),
		Limit:   c.limitLocked(),
		Steps:   c.steps,
		Resets:  c.resets,
	}
	if c.err != nil {
		st.LastError = c.err.Error()
	}
	return st
}

// ComponentType implements introspection.Component.
func (c *Controller[T]) ComponentType() string {
	return "reveal-controller"
}

var _ introspection.Introspectable = (*Controller[int])(nil)
var _ introspection.Component = (*Controller[int])(nil)
