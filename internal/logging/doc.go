// Package logging assembles the slog loggers used by ffmpegout.
//
// It owns the console and JSON handlers, routes output to stdout and the log
// directory, stamps every record with the invocation's session id, and applies
// per-component level overrides from configuration. Helpers here keep warning
// records uniform: event type, a hint about the cause, and the user-facing
// impact.
package logging
