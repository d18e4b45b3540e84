package production

import (
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventTypeOrderStatusChanged is raised on creation and every transition
const EventTypeOrderStatusChanged = "production.status_changed"

// OrderStatusChangedEvent records a production order transition.
// From is empty for a newly created order.
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	ProductID   uuid.UUID       `json:"product_id"`
	From        OrderStatus     `json:"from,omitempty"`
	To          OrderStatus     `json:"to"`
	PlannedQty  decimal.Decimal `json:"planned_qty"`
	ProducedQty decimal.Decimal `json:"produced_qty"`
	ActorID     *uuid.UUID      `json:"actor_id,omitempty"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *ProductionOrder, from, to OrderStatus, actor shared.Actor) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeProductionOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		ProductID:       o.ProductID,
		From:            from,
		To:              to,
		PlannedQty:      o.PlannedQty,
		ProducedQty:     o.ProducedQty,
		ActorID:         actor.IDPtr(),
	}
}
