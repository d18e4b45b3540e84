package catalog

import (
	"context"

	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository defines persistence for finished products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, int64, error)
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
	Save(ctx context.Context, product *Product) error
}

// BOMRepository defines persistence for bills of materials
type BOMRepository interface {
	// FindByProduct returns the current lines of a product with material
	// name and unit filled in
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]BOMLine, error)

	// ReplaceForProduct swaps all lines of a product in one statement batch
	ReplaceForProduct(ctx context.Context, productID uuid.UUID, lines []BOMLine) error
}
