// Package config loads, normalizes, and validates soundunpack configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the SOUNDUNPACK_TOOLS_DIR
// environment fallback. The Config type centralizes the source, destination,
// and temporary directories, the external tool locations, the compatibility
// mode selection, and logging knobs so the CLI and the pipeline discover them
// in one pass.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, resolved tool locations, and clear validation errors.
package config
