package stock

import (
	"time"

	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegisterMaterialRequest registers a raw material or MRO item
type RegisterMaterialRequest struct {
	Kind              string          `json:"kind" binding:"required,oneof=RAW_MATERIAL MRO"`
	ItemID            string          `json:"item_id" binding:"required,max=50"`
	Code              string          `json:"code" binding:"omitempty,max=50"`
	Name              string          `json:"name" binding:"required,max=150"`
	Category          string          `json:"category" binding:"omitempty,max=100"`
	Colour            string          `json:"colour" binding:"omitempty,max=50"`
	ColourCode        string          `json:"colour_code" binding:"omitempty,max=30"`
	Unit              string          `json:"unit" binding:"required,max=20"`
	Location          string          `json:"location" binding:"omitempty,max=100"`
	CostPerUnit       decimal.Decimal `json:"cost_per_unit"`
	ReorderThreshold  decimal.Decimal `json:"reorder_threshold"`
	OpeningStock      decimal.Decimal `json:"opening_stock"`
	VendorID          uuid.UUID       `json:"vendor_id" binding:"required"`
	AdditionalVendors []uuid.UUID     `json:"additional_vendor_ids"`
}

// UpdateMaterialRequest replaces the details of a raw material or MRO item.
// Kind and balance cannot change here.
type UpdateMaterialRequest struct {
	ItemID            string          `json:"item_id" binding:"required,max=50"`
	Code              string          `json:"code" binding:"omitempty,max=50"`
	Name              string          `json:"name" binding:"required,max=150"`
	Category          string          `json:"category" binding:"omitempty,max=100"`
	Colour            string          `json:"colour" binding:"omitempty,max=50"`
	ColourCode        string          `json:"colour_code" binding:"omitempty,max=30"`
	Unit              string          `json:"unit" binding:"required,max=20"`
	Location          string          `json:"location" binding:"omitempty,max=100"`
	CostPerUnit       decimal.Decimal `json:"cost_per_unit"`
	ReorderThreshold  decimal.Decimal `json:"reorder_threshold"`
	VendorID          uuid.UUID       `json:"vendor_id" binding:"required"`
	AdditionalVendors []uuid.UUID     `json:"additional_vendor_ids"`
}

// AdjustStockRequest is a manual correction of one account
type AdjustStockRequest struct {
	AccountID uuid.UUID       `json:"-"`
	Delta     decimal.Decimal `json:"delta" binding:"required"`
	Reason    string          `json:"reason" binding:"omitempty,max=255"`
}

// AccountListFilter filters account lists
type AccountListFilter struct {
	Search   string `form:"search"`
	Kind     string `form:"kind" binding:"omitempty,oneof=RAW_MATERIAL MRO FINISHED_GOOD"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// LedgerListFilter selects ledger entries by account, by reference or by date range
type LedgerListFilter struct {
	AccountID     *uuid.UUID `form:"account_id"`
	ReferenceKind string     `form:"reference_kind"`
	ReferenceID   *uuid.UUID `form:"reference_id"`
	From          *time.Time `form:"from" time_format:"2006-01-02"`
	To            *time.Time `form:"to" time_format:"2006-01-02"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// AccountResponse represents a material account in API responses
type AccountResponse struct {
	ID                uuid.UUID       `json:"id"`
	Kind              string          `json:"kind"`
	ItemID            string          `json:"item_id"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	DisplayName       string          `json:"display_name"`
	Category          string          `json:"category,omitempty"`
	Colour            string          `json:"colour,omitempty"`
	ColourCode        string          `json:"colour_code,omitempty"`
	Unit              string          `json:"unit"`
	Location          string          `json:"location,omitempty"`
	CostPerUnit       decimal.Decimal `json:"cost_per_unit"`
	Balance           decimal.Decimal `json:"balance"`
	ReorderThreshold  decimal.Decimal `json:"reorder_threshold"`
	IsLowStock        bool            `json:"is_low_stock"`
	VendorID          *uuid.UUID      `json:"vendor_id,omitempty"`
	ProductID         *uuid.UUID      `json:"product_id,omitempty"`
	AdditionalVendors []uuid.UUID     `json:"additional_vendor_ids,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// LedgerEntryResponse represents one ledger entry
type LedgerEntryResponse struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     uuid.UUID       `json:"account_id"`
	AccountKind   string          `json:"account_kind"`
	Direction     string          `json:"direction"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Reason        string          `json:"reason"`
	ReferenceKind string          `json:"reference_kind"`
	ReferenceID   *uuid.UUID      `json:"reference_id,omitempty"`
	ActorID       *uuid.UUID      `json:"actor_id,omitempty"`
	ActorName     string          `json:"actor_name"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToAccountResponse converts a domain account to a response
func ToAccountResponse(a *inventory.MaterialAccount) AccountResponse {
	return AccountResponse{
		ID:               a.ID,
		Kind:             string(a.Kind),
		ItemID:           a.ItemID,
		Code:             a.Code,
		Name:             a.Name,
		DisplayName:      a.DisplayName(),
		Category:         a.Category,
		Colour:           a.Colour,
		ColourCode:       a.ColourCode,
		Unit:             a.Unit,
		Location:         a.Location,
		CostPerUnit:      a.CostPerUnit,
		Balance:          a.Balance,
		ReorderThreshold: a.ReorderThreshold,
		IsLowStock:       a.IsLowStock(),
		VendorID:         a.VendorID,
		ProductID:        a.ProductID,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
		Version:          a.Version,
	}
}

// ToAccountResponses converts a slice of accounts
func ToAccountResponses(accounts []inventory.MaterialAccount) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i := range accounts {
		out[i] = ToAccountResponse(&accounts[i])
	}
	return out
}

// ToLedgerEntryResponse converts a ledger entry to a response
func ToLedgerEntryResponse(e *inventory.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:            e.ID,
		AccountID:     e.AccountID,
		AccountKind:   string(e.AccountKind),
		Direction:     string(e.Direction),
		Quantity:      e.Quantity,
		Unit:          e.Unit,
		BalanceAfter:  e.BalanceAfter,
		Reason:        e.Reason,
		ReferenceKind: string(e.ReferenceKind),
		ReferenceID:   e.ReferenceID,
		ActorID:       e.ActorID,
		ActorName:     e.ActorName,
		CreatedAt:     e.CreatedAt,
	}
}

// ToLedgerEntryResponses converts a slice of ledger entries
func ToLedgerEntryResponses(entries []inventory.LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		out[i] = ToLedgerEntryResponse(&entries[i])
	}
	return out
}

// ToFilter converts the list filter to a domain filter
func (f AccountListFilter) ToFilter() shared.Filter {
	return shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
	}.Normalized()
}

// ToFilter converts the ledger filter to a domain filter
func (f LedgerListFilter) ToFilter() shared.Filter {
	return shared.Filter{Page: f.Page, PageSize: f.PageSize}.Normalized()
}
