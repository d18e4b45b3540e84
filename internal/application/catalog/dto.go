package catalog

import (
	"time"

	"github.com/erp/stockengine/internal/domain/catalog"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	SKU  string `json:"sku" binding:"required,min=1,max=50"`
	Name string `json:"name" binding:"required,min=1,max=150"`
}

// UpdateProductRequest renames a product
type UpdateProductRequest struct {
	Name string `json:"name" binding:"required,min=1,max=150"`
}

// BOMLineInput is one material of a bill of materials
type BOMLineInput struct {
	AccountID  uuid.UUID       `json:"account_id" binding:"required"`
	QtyPerUnit decimal.Decimal `json:"qty_per_unit" binding:"required"`
}

// ReplaceBOMRequest replaces every line of a product's bill of materials
type ReplaceBOMRequest struct {
	Lines []BOMLineInput `json:"lines" binding:"required,min=1,dive"`
}

// ProductListFilter represents filter options for product list
type ProductListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToFilter converts the list filter to a domain filter
func (f ProductListFilter) ToFilter() shared.Filter {
	return shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
	}.Normalized()
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID        uuid.UUID `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// BOMLineResponse represents one BOM line
type BOMLineResponse struct {
	ID           uuid.UUID       `json:"id"`
	AccountID    uuid.UUID       `json:"account_id"`
	MaterialName string          `json:"material_name"`
	Unit         string          `json:"unit"`
	QtyPerUnit   decimal.Decimal `json:"qty_per_unit"`
}

// BOMResponse represents a product's bill of materials
type BOMResponse struct {
	ProductID uuid.UUID         `json:"product_id"`
	SKU       string            `json:"sku"`
	Name      string            `json:"name"`
	Lines     []BOMLineResponse `json:"lines"`
}

// ToProductResponse converts a domain product to a response
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Version:   p.Version,
	}
}

// ToBOMResponse converts a product and its lines to a response
func ToBOMResponse(p *catalog.Product, lines []catalog.BOMLine) BOMResponse {
	out := BOMResponse{
		ProductID: p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Lines:     make([]BOMLineResponse, len(lines)),
	}
	for i, l := range lines {
		out.Lines[i] = BOMLineResponse{
			ID:           l.ID,
			AccountID:    l.AccountID,
			MaterialName: l.MaterialName,
			Unit:         l.Unit,
			QtyPerUnit:   l.QtyPerUnit,
		}
	}
	return out
}
