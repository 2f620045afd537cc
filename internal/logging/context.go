package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent names the subsystem emitting a record.
	FieldComponent = "component"
	// FieldScanID identifies one open-file scan.
	FieldScanID = "scan_id"
	// FieldRootPID is the process whose tree was scanned.
	FieldRootPID = "root_pid"
	// FieldCandidate is the output path being checked.
	FieldCandidate = "candidate"
	// FieldJobID identifies the encode job a preflight run belongs to.
	FieldJobID = "job_id"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests a next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
)

type jobIDKey struct{}

// WithJobID returns a context carrying the encode job identifier.
func WithJobID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, jobIDKey{}, id)
}

// JobIDFromContext returns the job identifier stored by WithJobID.
func JobIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(jobIDKey{}).(string)
	return id, ok && id != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if id, ok := JobIDFromContext(ctx); ok {
		return []slog.Attr{slog.String(FieldJobID, id)}
	}
	return nil
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
