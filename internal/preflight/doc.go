// Package preflight provides readiness checks for the filesystem paths and
// tools soundunpack depends on.
//
// These checks run in two contexts:
//   - The pipeline calls RunAll before extraction and logs failed checks as
//     warnings. Hard requirements (source archives, directory types) are
//     enforced separately as configuration errors.
//   - The CLI "soundunpack status" and "soundunpack deps" commands display
//     the individual results.
package preflight
