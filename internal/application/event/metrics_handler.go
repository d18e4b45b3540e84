// Package event holds event bus subscribers that are not tied to one
// bounded context.
package event

import (
	"context"

	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/erp/stockengine/internal/domain/production"
	"github.com/erp/stockengine/internal/domain/purchasing"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/telemetry"
)

// MetricsHandler feeds committed stock movements and order transitions
// into the engine metrics.
type MetricsHandler struct {
	metrics *telemetry.EngineMetrics
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(metrics *telemetry.EngineMetrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// EventTypes returns the event types this handler is interested in
func (h *MetricsHandler) EventTypes() []string {
	return []string{
		inventory.EventTypeStockMoved,
		production.EventTypeOrderStatusChanged,
		purchasing.EventTypeOrderStatusChanged,
	}
}

// Handle records one event. Unknown events are ignored.
func (h *MetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *inventory.StockMovedEvent:
		h.metrics.RecordStockMovement(ctx, string(e.AccountKind), string(e.Direction), string(e.ReferenceKind), e.Quantity)
	case *production.OrderStatusChangedEvent:
		h.metrics.RecordTransition(ctx, production.AggregateTypeProductionOrder, string(e.From), string(e.To))
	case *purchasing.OrderStatusChangedEvent:
		h.metrics.RecordTransition(ctx, purchasing.AggregateTypePurchaseOrder, string(e.From), string(e.To))
	}
	return nil
}

var _ shared.EventHandler = (*MetricsHandler)(nil)
