package production

import (
	"time"

	"github.com/erp/stockengine/internal/domain/production"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest represents a request to create a production order
type CreateOrderRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	Mode      string          `json:"mode" binding:"omitempty,oneof=immediate rm_request"`
	Notes     string          `json:"notes" binding:"max=255"`
}

// SetStatusRequest moves an order to a new status. ProducedQty and ScrapQty
// are read only when Status is COMPLETED.
type SetStatusRequest struct {
	Status      string           `json:"status" binding:"required"`
	ProducedQty *decimal.Decimal `json:"produced_qty"`
	ScrapQty    *decimal.Decimal `json:"scrap_qty"`
}

// CompleteRequest records the production outcome
type CompleteRequest struct {
	ProducedQty decimal.Decimal `json:"produced_qty" binding:"required"`
	ScrapQty    decimal.Decimal `json:"scrap_qty"`
}

// OrderListFilter represents filter options for production order list
type OrderListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToFilter converts the list filter to a domain filter
func (f OrderListFilter) ToFilter() shared.Filter {
	return shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
	}.Normalized()
}

// ConsumptionLineResponse represents one material requirement of an order
type ConsumptionLineResponse struct {
	ID           uuid.UUID       `json:"id"`
	AccountID    uuid.UUID       `json:"account_id"`
	MaterialName string          `json:"material_name"`
	Unit         string          `json:"unit"`
	RequiredQty  decimal.Decimal `json:"required_qty"`
}

// OrderResponse represents a production order in API responses
type OrderResponse struct {
	ID                  uuid.UUID                 `json:"id"`
	OrderNumber         string                    `json:"order_number"`
	ProductID           uuid.UUID                 `json:"product_id"`
	ProductName         string                    `json:"product_name"`
	Quantity            decimal.Decimal           `json:"quantity"`
	PlannedQty          decimal.Decimal           `json:"planned_qty"`
	ProducedQty         decimal.Decimal           `json:"produced_qty"`
	ScrapQty            decimal.Decimal           `json:"scrap_qty"`
	Variance            decimal.Decimal           `json:"variance"`
	RawMaterialReleased bool                      `json:"raw_material_released"`
	Status              string                    `json:"status"`
	StatusLabel         string                    `json:"status_label"`
	Notes               string                    `json:"notes,omitempty"`
	CreatedByName       string                    `json:"created_by"`
	ReleasedByName      string                    `json:"released_by,omitempty"`
	ReleasedAt          *time.Time                `json:"released_at,omitempty"`
	CompletedByName     string                    `json:"completed_by,omitempty"`
	CompletedAt         *time.Time                `json:"completed_at,omitempty"`
	CancelledByName     string                    `json:"cancelled_by,omitempty"`
	CancelledAt         *time.Time                `json:"cancelled_at,omitempty"`
	Lines               []ConsumptionLineResponse `json:"lines"`
	CreatedAt           time.Time                 `json:"created_at"`
	UpdatedAt           time.Time                 `json:"updated_at"`
	Version             int                       `json:"version"`
}

// ToOrderResponse converts a domain order to a response
func ToOrderResponse(o *production.ProductionOrder) OrderResponse {
	resp := OrderResponse{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		ProductID:           o.ProductID,
		ProductName:         o.ProductName,
		Quantity:            o.Quantity,
		PlannedQty:          o.PlannedQty,
		ProducedQty:         o.ProducedQty,
		ScrapQty:            o.ScrapQty,
		Variance:            o.Variance(),
		RawMaterialReleased: o.RawMaterialReleased,
		Status:              string(o.Status),
		StatusLabel:         o.Status.Label(),
		Notes:               o.Notes,
		CreatedByName:       o.CreatedByName,
		ReleasedByName:      o.ReleasedByName,
		ReleasedAt:          o.ReleasedAt,
		CompletedByName:     o.CompletedByName,
		CompletedAt:         o.CompletedAt,
		CancelledByName:     o.CancelledByName,
		CancelledAt:         o.CancelledAt,
		Lines:               make([]ConsumptionLineResponse, len(o.Lines)),
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
		Version:             o.Version,
	}
	for i, l := range o.Lines {
		resp.Lines[i] = ConsumptionLineResponse{
			ID:           l.ID,
			AccountID:    l.AccountID,
			MaterialName: l.MaterialName,
			Unit:         l.Unit,
			RequiredQty:  l.RequiredQty,
		}
	}
	return resp
}
