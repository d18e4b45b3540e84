package purchasing

import (
	"time"

	"github.com/erp/stockengine/internal/domain/purchasing"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineRequest is one requested material and quantity
type LineRequest struct {
	AccountID uuid.UUID       `json:"account_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
}

// CreateGroupedRequest creates one purchase order per vendor. With VendorID
// set every line goes onto that vendor's order.
type CreateGroupedRequest struct {
	VendorID  *uuid.UUID    `json:"vendor_id"`
	OrderDate time.Time     `json:"order_date"`
	Notes     string        `json:"notes" binding:"max=255"`
	Lines     []LineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ReceiveRequest maps line ids to quantities. An empty map receives every
// pending quantity.
type ReceiveRequest struct {
	Lines map[uuid.UUID]decimal.Decimal `json:"lines"`
}

// OrderListFilter represents filter options for purchase order list
type OrderListFilter struct {
	Search   string     `form:"search"`
	Status   string     `form:"status"`
	VendorID *uuid.UUID `form:"vendor_id"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
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

// OrderLineResponse represents one purchase order line
type OrderLineResponse struct {
	ID           uuid.UUID       `json:"id"`
	AccountID    uuid.UUID       `json:"account_id"`
	MaterialName string          `json:"material_name"`
	Unit         string          `json:"unit"`
	OrderedQty   decimal.Decimal `json:"ordered_qty"`
	ReceivedQty  decimal.Decimal `json:"received_qty"`
	PendingQty   decimal.Decimal `json:"pending_qty"`
}

// OrderResponse represents a purchase order in API responses
type OrderResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrderNumber     string              `json:"order_number"`
	VendorID        uuid.UUID           `json:"vendor_id"`
	VendorName      string              `json:"vendor_name"`
	OrderDate       time.Time           `json:"order_date"`
	Status          string              `json:"status"`
	Notes           string              `json:"notes,omitempty"`
	TotalPending    decimal.Decimal     `json:"total_pending"`
	CreatedByName   string              `json:"created_by"`
	ReceivedByName  string              `json:"received_by,omitempty"`
	ReceivedAt      *time.Time          `json:"received_at,omitempty"`
	CancelledByName string              `json:"cancelled_by,omitempty"`
	CancelledAt     *time.Time          `json:"cancelled_at,omitempty"`
	Lines           []OrderLineResponse `json:"lines"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Version         int                 `json:"version"`
}

// ToOrderResponse converts a domain order to a response
func ToOrderResponse(o *purchasing.PurchaseOrder) OrderResponse {
	resp := OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		VendorID:        o.VendorID,
		VendorName:      o.VendorName,
		OrderDate:       o.OrderDate,
		Status:          string(o.Status),
		Notes:           o.Notes,
		TotalPending:    o.TotalPending(),
		CreatedByName:   o.CreatedByName,
		ReceivedByName:  o.ReceivedByName,
		ReceivedAt:      o.ReceivedAt,
		CancelledByName: o.CancelledByName,
		CancelledAt:     o.CancelledAt,
		Lines:           make([]OrderLineResponse, len(o.Lines)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Version:         o.Version,
	}
	for i := range o.Lines {
		l := &o.Lines[i]
		resp.Lines[i] = OrderLineResponse{
			ID:           l.ID,
			AccountID:    l.AccountID,
			MaterialName: l.MaterialName,
			Unit:         l.Unit,
			OrderedQty:   l.OrderedQty,
			ReceivedQty:  l.ReceivedQty,
			PendingQty:   l.Pending(),
		}
	}
	return resp
}
