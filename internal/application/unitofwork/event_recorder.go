package unitofwork

import (
	"context"

	"github.com/erp/stockengine/internal/domain/audit"
	"github.com/erp/stockengine/internal/domain/shared"
	"go.uber.org/zap"
)

// EventRecorder collects domain events during a unit of work so they can be
// published after the transaction commits. Events of a rolled back unit of
// work are simply dropped with the recorder.
type EventRecorder struct {
	events []shared.DomainEvent
}

// NewEventRecorder creates an empty recorder
func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

// Collect takes and clears the pending events of each aggregate
func (r *EventRecorder) Collect(aggregates ...shared.AggregateRoot) {
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		r.events = append(r.events, agg.GetDomainEvents()...)
		agg.ClearDomainEvents()
	}
}

// Add appends events that do not belong to an aggregate
func (r *EventRecorder) Add(events ...shared.DomainEvent) {
	for _, e := range events {
		if e != nil {
			r.events = append(r.events, e)
		}
	}
}

// AddChange appends an audit change event. Updated returns nil when nothing
// changed, so nil is skipped here.
func (r *EventRecorder) AddChange(e *audit.ChangeEvent) {
	if e != nil {
		r.events = append(r.events, e)
	}
}

// Events returns the collected events in order
func (r *EventRecorder) Events() []shared.DomainEvent {
	return r.events
}

// Reset drops everything collected so far
func (r *EventRecorder) Reset() {
	r.events = nil
}

// Publish hands the events to publisher. Publishing failures are logged and
// never fail the operation that already committed.
func (r *EventRecorder) Publish(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger) {
	if publisher == nil || len(r.events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, r.events...); err != nil && logger != nil {
		logger.Warn("Failed to publish domain events",
			zap.Int("count", len(r.events)),
			zap.Error(err),
		)
	}
	r.events = nil
}
