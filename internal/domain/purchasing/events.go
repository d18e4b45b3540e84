package purchasing

import (
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
)

// EventTypeOrderStatusChanged is raised on creation and every status change
const EventTypeOrderStatusChanged = "purchasing.status_changed"

// OrderStatusChangedEvent records a purchase order status change.
// From is empty for a newly created order.
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID   `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	VendorID    uuid.UUID   `json:"vendor_id"`
	From        OrderStatus `json:"from,omitempty"`
	To          OrderStatus `json:"to"`
	ActorID     *uuid.UUID  `json:"actor_id,omitempty"`
}

// NewOrderStatusChangedEvent creates a new OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *PurchaseOrder, from, to OrderStatus, actor shared.Actor) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypePurchaseOrder, o.ID),
		OrderID:         o.ID,
		OrderNumber:     o.OrderNumber,
		VendorID:        o.VendorID,
		From:            from,
		To:              to,
		ActorID:         actor.IDPtr(),
	}
}
