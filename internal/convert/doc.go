// Package convert turns extracted sources into playable output files.
//
// Each destination is produced through a staged sibling file: the format
// converter writes the stage, the post-processing tool fixes it in place, and
// only then is the stage renamed onto the destination. A failure removes the
// stage, so an existing destination is always a finished conversion and is
// skipped on later runs.
//
// The loop observes cancellation between files only. A file that has started
// converting runs to completion.
package convert
