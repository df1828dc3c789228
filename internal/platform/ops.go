package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/binder/pkg/adapters/fs"
	"github.com/aretw0/binder/pkg/core"
)

// Init opens the binder at uri and prepares its storage. For the "fs"
// adapter uri is a directory path.
func Init(uri string, opts ...Option) (core.Repository, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return initRepository(uri, o)
}

func initRepository(uri string, o *options) (core.Repository, error) {
	if o.repository != nil {
		return o.repository, nil
	}

	var repo core.Repository
	var err error
	switch o.adapter {
	case "fs":
		repo, err = initFS(uri, o)
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	if err != nil {
		return nil, err
	}

	if err := repo.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

func initFS(path string, o *options) (core.Repository, error) {
	autoInit, _ := o.config["auto_init"].(bool)
	mustExist, _ := o.config["must_exist"].(bool)
	readOnly, _ := o.config["read_only"].(bool)
	strict, _ := o.config["strict"].(bool)
	systemDir, _ := o.config["system_dir"].(string)
	pattern, _ := o.config["pattern"].(string)
	idColumn, _ := o.config["id_column"].(string)
	defaultExt, _ := o.config["default_ext"].(string)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))

	if path == "" {
		path = "."
	}

	serializers := make(map[string]fs.Serializer, len(o.serializers))
	for ext, s := range o.serializers {
		serializer, ok := s.(fs.Serializer)
		if !ok {
			return nil, fmt.Errorf("serializer for %s must implement fs.Serializer", ext)
		}
		serializers[ext] = serializer
	}

	if readOnly && o.logger != nil {
		o.logger.Debug("opening binder read-only", "path", path)
	}

	return fs.NewRepository(fs.Config{
		Path:         path,
		MustExist:    mustExist || !autoInit,
		ReadOnly:     readOnly,
		Strict:       strict,
		Logger:       o.logger,
		SystemDir:    systemDir,
		Pattern:      pattern,
		IDColumn:     idColumn,
		DefaultExt:   defaultExt,
		ErrorHandler: errorHandler,
		Serializers:  serializers,
	}), nil
}
