// Package pipeline runs one soundunpack pass end to end: directory checks,
// archive extraction, mapping construction, conversion, and workspace cleanup.
//
// Run owns the workspace lock and the optional ledger for the duration of the
// pass. Cancellation of the context is not an error: the pass stops at the
// next safe point and the returned Outcome reports it as interrupted, leaving
// the workspace in place so the next run resumes from completed extractions.
package pipeline
