package unitofwork

import (
	"context"
	"time"

	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
)

// Operation tracks one service call for tracing and metrics
type Operation struct {
	name    string
	span    trace.Span
	started time.Time
	metrics *telemetry.EngineMetrics
}

// Begin starts a span named "<service>.<method>"
func Begin(ctx context.Context, metrics *telemetry.EngineMetrics, service, method string) (context.Context, *Operation) {
	ctx, span := telemetry.StartServiceSpan(ctx, service, method)
	return ctx, &Operation{
		name:    service + "." + method,
		span:    span,
		started: time.Now(),
		metrics: metrics,
	}
}

// Span returns the operation span for attributes
func (o *Operation) Span() trace.Span {
	return o.span
}

// End closes the span and records the outcome, classified by error kind
func (o *Operation) End(ctx context.Context, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(shared.KindOf(err))
		telemetry.RecordError(o.span, err)
		telemetry.SetAttributes(o.span, "error.kind", outcome, "error.retryable", shared.IsRetryable(err))
	}
	o.metrics.RecordOperation(ctx, o.name, outcome, time.Since(o.started))
	o.span.End()
}
