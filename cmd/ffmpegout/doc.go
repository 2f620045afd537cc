// Package main hosts the ffmpegout CLI.
//
// The cobra command tree exposes the open-file conflict detector to operators
// and encode scripts: "check" runs the full pre-write validation for an output
// job and exits non-zero when the output is held open by the host application,
// "scan" and "tree" show what the detector sees, and "config" scaffolds and
// validates configuration.
package main
