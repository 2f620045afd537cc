package logging

import (
	"context"
	"log/slog"
)

// FieldSessionID identifies one CLI invocation across all of its records.
const FieldSessionID = "session_id"

// sessionIDHandler appends the session identifier to every record.
type sessionIDHandler struct {
	base      slog.Handler
	sessionID string
}

func newSessionIDHandler(base slog.Handler, sessionID string) slog.Handler {
	if base == nil {
		return NoopHandler{}
	}
	return &sessionIDHandler{base: base, sessionID: sessionID}
}

func (h *sessionIDHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *sessionIDHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(slog.String(FieldSessionID, h.sessionID))
	return h.base.Handle(ctx, record)
}

func (h *sessionIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return newSessionIDHandler(h.base.WithAttrs(attrs), h.sessionID)
}

func (h *sessionIDHandler) WithGroup(name string) slog.Handler {
	return newSessionIDHandler(h.base.WithGroup(name), h.sessionID)
}
