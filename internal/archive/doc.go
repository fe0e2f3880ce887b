// Package archive tracks extraction of the game's packed archives into the
// temporary workspace.
//
// Every archive extracts into its own directory named after the archive file.
// A marker file inside that directory is written only after the extraction
// tool exits successfully, so a directory without the marker is always the
// remains of an interrupted run: it is removed and extracted again. Failed or
// cancelled extractions delete the directory before the error propagates,
// which leaves each directory either absent or complete.
//
// Compatibility modes name the set of archives for one release of the data
// format. Built-in modes cover the known releases; configuration can add more.
package archive
