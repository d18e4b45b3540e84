package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

// Context keys for request-scoped values
const (
	LoggerKey    contextKey = "logger"
	RequestIDKey contextKey = "request_id"
	ActorIDKey   contextKey = "actor_id"
	ActorNameKey contextKey = "actor_name"
)

// WithContext attaches logger to ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext returns the logger attached to ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores requestID in ctx and attaches a logger carrying it
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	logger = logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, logger), logger
}

// WithActor stores the acting user in ctx. An empty id marks the system
// actor and only the name is recorded.
func WithActor(ctx context.Context, logger *zap.Logger, actorID, actorName string) (context.Context, *zap.Logger) {
	if actorID != "" {
		ctx = context.WithValue(ctx, ActorIDKey, actorID)
		logger = logger.With(zap.String("actor_id", actorID))
	}
	ctx = context.WithValue(ctx, ActorNameKey, actorName)
	logger = logger.With(zap.String("actor_name", actorName))
	return WithContext(ctx, logger), logger
}

func stringValue(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// GetRequestID returns the request id stored in ctx
func GetRequestID(ctx context.Context) string { return stringValue(ctx, RequestIDKey) }

// GetActorID returns the actor id stored in ctx
func GetActorID(ctx context.Context) string { return stringValue(ctx, ActorIDKey) }

// GetActorName returns the actor name stored in ctx
func GetActorName(ctx context.Context) string { return stringValue(ctx, ActorNameKey) }

// GetTraceID returns the id of the active trace, or "" without a valid span
func GetTraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// GetSpanID returns the id of the active span, or "" without a valid span
func GetSpanID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc.SpanID().String()
	}
	return ""
}

// Scoped returns base enriched with the trace, request and actor found in
// ctx. Services hold a process-wide logger and call Scoped per operation so
// their entries correlate with the HTTP request that caused them.
func Scoped(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	fields := make([]zap.Field, 0, 5)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if v := GetRequestID(ctx); v != "" {
		fields = append(fields, zap.String("request_id", v))
	}
	if v := GetActorID(ctx); v != "" {
		fields = append(fields, zap.String("actor_id", v))
	}
	if v := GetActorName(ctx); v != "" {
		fields = append(fields, zap.String("actor_name", v))
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}
