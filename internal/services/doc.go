// Package services defines shared utilities consumed by the pipeline stages
// and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp the session/driver unit, stage names, and the
//     run identifier for logging.
//   - Structured error markers plus the Wrap helper, and Classify, which maps
//     a unit failure to an Outcome.
//
// Use these helpers when wiring new stage logic so failure handling stays
// uniform across the pipeline.
package services
