// Package fileutil holds small filesystem helpers: streaming content digests,
// existence checks, and extension manipulation for destination paths.
package fileutil
