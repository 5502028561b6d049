// Package services defines shared utilities consumed by the pipeline stages
// and the remote store integration.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, source paths, and stage names for
//     logging.
//   - Structured error markers plus the Wrap helper so callers can decide
//     whether a failure skips a derivative, skips a source, or aborts the run.
//
// Use these helpers when wiring new stage logic so failure handling stays
// uniform across the pipeline.
package services
