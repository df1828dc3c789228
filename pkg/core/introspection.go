package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState is a point-in-time view of a Service.
type ServiceState struct {
	EventBufferSize int    `json:"event_buffer_size"`
	RepositoryType  string `json:"repository_type"`
	Watchable       bool   `json:"watchable"`
}

func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := ServiceState{
		EventBufferSize: s.eventBufferSize,
		RepositoryType:  "unknown",
	}
	if s.repo != nil {
		st.RepositoryType = "repository"
		if comp, ok := s.repo.(introspection.Component); ok {
			st.RepositoryType = comp.ComponentType()
		}
		_, st.Watchable = s.repo.(Watchable)
	}
	return st
}

func (s *Service) ComponentType() string {
	return "binder-service"
}

var (
	_ introspection.Introspectable = (*Service)(nil)
	_ introspection.Component      = (*Service)(nil)
)
