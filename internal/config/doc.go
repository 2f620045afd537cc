// Package config loads, normalizes, and validates ffmpegout configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours the FFMPEG_BINARY environment fallback. The Config
// type gathers the encoder binaries, the open-file detector tuning, and the
// logging setup so the CLI and preflight checks share one sanitized view.
package config
