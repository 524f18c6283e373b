package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type contextKey string

const (
	// TraceIDContextKey holds the request or run trace ID
	TraceIDContextKey contextKey = "trace_id"
	// RunIDContextKey holds the pipeline run ID
	RunIDContextKey contextKey = "run_id"
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDContextKey)
}

func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDContextKey, runID)
}

func GetRunID(ctx context.Context) string {
	return stringValue(ctx, RunIDContextKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(key).(string)
	return s
}

// GenerateRunID returns a fresh UUIDv4 for a pipeline run
func GenerateRunID() string {
	return uuid.NewString()
}

// EnsureTraceID returns ctx unchanged when it already carries a trace ID
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, uuid.NewString())
}

// contextAttrs lists the IDs present in ctx as log attributes
func contextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if id := GetTraceID(ctx); id != "" {
		attrs = append(attrs, slog.String(string(TraceIDContextKey), id))
	}
	if id := GetRunID(ctx); id != "" {
		attrs = append(attrs, slog.String(string(RunIDContextKey), id))
	}
	return attrs
}
