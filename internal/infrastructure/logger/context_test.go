package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	t.Run("returns attached logger", func(t *testing.T) {
		l := zap.NewExample()
		assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
	})

	t.Run("missing or wrong type yields nop", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
		ctx := context.WithValue(context.Background(), LoggerKey, "not a logger")
		FromContext(ctx).Info("must not panic")
	})
}

func TestContextEnrichment(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	l := zap.New(core)

	ctx := context.Background()
	ctx, l = WithRequestID(ctx, l, "req-1")
	ctx, l = WithActor(ctx, l, "7f1d3c7e-0000-4000-8000-000000000001", "Store Keeper")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "7f1d3c7e-0000-4000-8000-000000000001", GetActorID(ctx))
	assert.Equal(t, "Store Keeper", GetActorName(ctx))
	assert.Same(t, l, FromContext(ctx))

	l.Info("adjusted")
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "Store Keeper", fields["actor_name"])
}

func TestWithActor_System(t *testing.T) {
	ctx, _ := WithActor(context.Background(), zap.NewNop(), "", "system")
	assert.Empty(t, GetActorID(ctx))
	assert.Equal(t, "system", GetActorName(ctx))
}

func TestContextGetters_Empty(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetActorID(ctx))
	assert.Empty(t, GetActorName(ctx))
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))
}

func startRecordedSpan(t *testing.T) (context.Context, trace.Span) {
	t.Helper()
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp.Tracer("test").Start(context.Background(), "op")
}

func TestScoped(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)

	ctx, span := startRecordedSpan(t)
	defer span.End()
	ctx = context.WithValue(ctx, RequestIDKey, "req-9")
	ctx = context.WithValue(ctx, ActorIDKey, "actor-9")

	Scoped(ctx, zap.New(core)).With(zap.String("order_id", "o-1")).Info("released")

	require.Equal(t, 1, recorded.Len())
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "actor-9", fields["actor_id"])
	assert.Equal(t, "o-1", fields["order_id"])
	assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
	assert.NotContains(t, fields, "actor_name")
}

func TestScoped_Bare(t *testing.T) {
	base := zap.NewExample()
	assert.Same(t, base, Scoped(context.Background(), base))
	assert.NotPanics(t, func() { Scoped(context.Background(), nil).Info("nothing") })
}
