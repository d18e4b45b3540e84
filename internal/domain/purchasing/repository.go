package purchasing

import (
	"context"

	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderRepository defines persistence for purchase orders
type OrderRepository interface {
	// FindByID loads an order with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindAll lists orders newest first. Zero values skip a criterion.
	FindAll(ctx context.Context, filter shared.Filter, status OrderStatus, vendorID uuid.UUID) ([]PurchaseOrder, int64, error)

	// LockByID takes an exclusive row lock on the order and loads its lines
	LockByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// Create inserts the order and its lines
	Create(ctx context.Context, order *PurchaseOrder) error

	// Save updates the order header and the received quantity of each line
	Save(ctx context.Context, order *PurchaseOrder) error

	// GenerateOrderNumber returns the next PO-YYYY-NNNNN number
	GenerateOrderNumber(ctx context.Context) (string, error)
}
