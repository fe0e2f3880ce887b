// Package main hosts the soundunpack CLI entrypoint and command graph.
//
// The root command runs a full pass: extract the game's audio archives,
// map sound bank records to logical destination paths, and convert every
// payload to Ogg Vorbis. Subcommands inspect the workspace (status), list the
// compatibility modes (modes), check external tools (deps), read the run
// ledger (catalog), remove abandoned staged outputs (clean), and scaffold a
// configuration file (config).
//
// Keep this package lean: behavior lives in the internal packages and the
// commands here only resolve configuration, wire dependencies, and render
// results.
package main
