package production

import (
	"context"

	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderRepository defines persistence for production orders.
// Consumption lines are written once by Create and never updated.
type OrderRepository interface {
	// FindByID loads an order with its consumption lines
	FindByID(ctx context.Context, id uuid.UUID) (*ProductionOrder, error)

	// FindAll lists orders newest first, optionally restricted to one status
	FindAll(ctx context.Context, filter shared.Filter, status OrderStatus) ([]ProductionOrder, int64, error)

	// LockByID takes an exclusive row lock on the order and loads its lines
	LockByID(ctx context.Context, id uuid.UUID) (*ProductionOrder, error)

	// Create inserts the order and its consumption lines
	Create(ctx context.Context, order *ProductionOrder) error

	// Save updates the order header
	Save(ctx context.Context, order *ProductionOrder) error

	// GenerateOrderNumber returns the next MO-YYYY-NNNNN number
	GenerateOrderNumber(ctx context.Context) (string, error)
}
