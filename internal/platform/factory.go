package platform

import (
	"github.com/aretw0/binder/pkg/core"
)

// New opens a binder and wraps it in a service.
//
//	svc, err := binder.New("./cards", binder.WithAutoInit(true))
func New(uri string, opts ...Option) (*core.Service, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	repo, err := initRepository(uri, o)
	if err != nil {
		return nil, err
	}

	size, _ := o.config["event_buffer"].(int)
	return core.NewService(repo,
		core.WithEventBuffer(size),
		core.WithServiceLogger(o.logger),
	), nil
}
