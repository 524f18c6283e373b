// Package operations runs the analytics pipeline as a sequence of steps.
//
// The pipeline has five steps, executed in dependency order:
//
//	load -> clean -> validate -> features -> analyze
//
// Core Components:
//
// Manager: Resolves the requested steps from the Registry, runs them one at a
// time with a per-step timeout and retry policy, and writes a RunManifest
// describing the run to the reports directory.
//
// Step: A single unit of work. Validate may return ErrSkipStep to skip the
// step on purpose; dependents of a skipped step still run. A step whose
// dependency failed is blocked.
//
// Registry: Holds the registered steps and orders them topologically.
//
// RunState: Carries the artifacts of a run between steps (loaded and cleaned
// tables, validation result, master datasets, forecast, analyzer outcomes)
// and the files each step wrote. A step running alone reads what it needs
// from disk instead.
//
// Usage Example:
//
//	registry, err := operations.NewDefaultRegistry(operations.Deps{
//		Config: cfg,
//		Paths:  paths,
//		Logger: logger,
//	})
//	if err != nil {
//		return err
//	}
//	manager := operations.NewManager(registry, operations.ConfigFrom(cfg, paths), logger, metrics)
//	resp, err := manager.Execute(ctx, operations.Request{})
package operations
