// Package ledger persists conversion runs and per-asset outcomes in SQLite.
//
// Each pipeline run gets a row in runs keyed by a UUID, and every conversion
// result is appended to assets. The ledger is append-only history; it is never
// consulted to decide whether a file needs converting (the destination file
// itself is the source of truth).
//
// The schema is embedded and versioned. A database written by an older
// version is rejected with ErrSchemaMismatch and has to be deleted.
package ledger
