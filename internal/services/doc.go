// Package services defines shared utilities consumed by the pipeline stages
// and the external tool wrappers.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and archive names for
//     logging.
//   - Structured error markers plus the Wrap helper that let the CLI decide
//     whether a failure aborts the run, exits with a tool's status, or is only
//     reported in the end-of-run summary.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
