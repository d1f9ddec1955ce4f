package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldArchiveID is the standardized structured logging key for archive identifiers.
	FieldArchiveID = "archive_id"
	// FieldStage is the standardized structured logging key for pipeline stage names.
	FieldStage = "stage"
	// FieldCategory is the standardized structured logging key for failure categories.
	FieldCategory = "category"
	// FieldRunID is the standardized structured logging key for batch run identifiers.
	FieldRunID = "run_id"
	// FieldRequestID is the standardized structured logging key for per-item correlation identifiers.
	FieldRequestID = "request_id"
)

type contextKey string

const (
	archiveIDKey contextKey = "archive_id"
	stageKey     contextKey = "stage"
	requestIDKey contextKey = "request_id"
)

// WithArchiveID attaches an archive identifier to the context for logging.
func WithArchiveID(ctx context.Context, archiveID string) context.Context {
	return context.WithValue(ctx, archiveIDKey, archiveID)
}

// WithStage attaches a pipeline stage name to the context for logging.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// WithRequestID attaches a per-item correlation identifier to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := ctx.Value(archiveIDKey).(string); ok && id != "" {
		fields = append(fields, slog.String(FieldArchiveID, id))
	}
	if stage, ok := ctx.Value(stageKey).(string); ok && stage != "" {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if rid, ok := ctx.Value(requestIDKey).(string); ok && rid != "" {
		fields = append(fields, slog.String(FieldRequestID, rid))
	}
	return fields
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
	return logger.With(attrsToArgs(fields)...)
}
