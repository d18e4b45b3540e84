package inventory

import (
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeStockMoved          = "stock.moved"
	EventTypeStockBelowThreshold = "stock.below_threshold"
)

// StockMovedEvent is raised once per ledger entry
type StockMovedEvent struct {
	shared.BaseDomainEvent
	AccountID     uuid.UUID       `json:"account_id"`
	AccountKind   AccountKind     `json:"account_kind"`
	LedgerEntryID uuid.UUID       `json:"ledger_entry_id"`
	Direction     Direction       `json:"direction"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	ReferenceKind ReferenceKind   `json:"reference_kind"`
	ReferenceID   *uuid.UUID      `json:"reference_id,omitempty"`
	ActorID       *uuid.UUID      `json:"actor_id,omitempty"`
}

// NewStockMovedEvent creates a new StockMovedEvent
func NewStockMovedEvent(account *MaterialAccount, entry *LedgerEntry, balanceBefore decimal.Decimal) *StockMovedEvent {
	return &StockMovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockMoved, AggregateTypeMaterialAccount, account.ID),
		AccountID:       account.ID,
		AccountKind:     account.Kind,
		LedgerEntryID:   entry.ID,
		Direction:       entry.Direction,
		Quantity:        entry.Quantity,
		Unit:            entry.Unit,
		BalanceBefore:   balanceBefore,
		BalanceAfter:    entry.BalanceAfter,
		ReferenceKind:   entry.ReferenceKind,
		ReferenceID:     entry.ReferenceID,
		ActorID:         entry.ActorID,
	}
}

// StockBelowThresholdEvent is raised when a balance drops to or below the reorder threshold
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	AccountID        uuid.UUID       `json:"account_id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Balance          decimal.Decimal `json:"balance"`
	ReorderThreshold decimal.Decimal `json:"reorder_threshold"`
	VendorID         *uuid.UUID      `json:"vendor_id,omitempty"`
}

// NewStockBelowThresholdEvent creates a new StockBelowThresholdEvent
func NewStockBelowThresholdEvent(account *MaterialAccount) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, AggregateTypeMaterialAccount, account.ID),
		AccountID:        account.ID,
		Code:             account.Code,
		Name:             account.Name,
		Balance:          account.Balance,
		ReorderThreshold: account.ReorderThreshold,
		VendorID:         account.VendorID,
	}
}
