// Package binder is the composition root of a trading-card binder.
//
// A binder is a directory of cards: one file per card (Markdown with YAML
// frontmatter, YAML or JSON) or one CSV set list per set. The package wires
// the filesystem adapter behind core.Service and exposes the catalog on top.
//
// Layers:
//
//   - pkg/core: documents, change events and the service.
//   - pkg/adapters/fs: the directory layout, an mtime cache and an fsnotify
//     watcher.
//   - pkg/catalog: cards decoded from documents, queries (search, filter,
//     sort).
//   - pkg/reveal: a progressive reveal controller that grows a visible prefix
//     of a list as a viewer approaches its end.
//   - pkg/browse: a catalog seen through a query and a reveal controller,
//     following changes on disk.
//
// Usage:
//
//	svc, err := binder.New("./cards",
//		binder.WithAutoInit(true),
//		binder.WithLogger(logger),
//	)
//
//	err = svc.SaveDocument(ctx, "base1/4", "Fire Spin", core.Metadata{
//		"name": "Charizard",
//		"hp":   120,
//	})
package binder
