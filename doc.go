// Package workflow provides a persistent workflow step engine for
// repository objects. It tracks, per object and version, the completion
// state of a named graph of processing steps defined by XML workflow
// templates, determines when dependent steps become eligible, flips them
// to queued exactly once under concurrent updates, and reports milestone
// and lifecycle history.
//
// Workflow is designed as a library, not a service. Import it, configure
// a store and a template directory, and drive it from whatever transport
// your application uses.
//
// # Quick Start
//
//	loader := template.NewLoader("config/workflows")
//	svc := engine.New(store, loader,
//	    engine.WithEnqueuer(enq),
//	)
//	err := svc.CreateWorkflow(ctx, "druid:bc123df4567", "accessionWF", 1, nil, "")
//
// # Architecture
//
// The engine follows a composable store pattern: the step package defines
// the persistence contract, and a single backend (store/memory,
// store/postgres) implements it. External collaborators — the worker
// queue, the search indexer, the notification publisher — are consumed
// through narrow interfaces in the scheduler package.
//
// All generated row IDs use TypeID — type-prefixed, K-sortable,
// UUIDv7-based identifiers. Object IDs (druids) are opaque caller-supplied
// strings.
package workflow
