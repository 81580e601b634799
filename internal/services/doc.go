// Package services defines shared utilities consumed by the conversion
// pipeline and the external engine adapter.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs and stage names for logging.
//   - Structured error markers plus the Wrap and Details helpers that let the
//     orchestrator classify failures without string matching.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
