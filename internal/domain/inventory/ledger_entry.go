package inventory

import (
	"strings"
	"time"

	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction of a ledger movement
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
	// DirectionAdjust is accepted when reading older ledgers. The engine
	// itself records manual corrections as IN or OUT by sign.
	DirectionAdjust Direction = "ADJUST"
)

// String returns the string representation of Direction
func (d Direction) String() string {
	return string(d)
}

// IsValid returns true if the direction is valid
func (d Direction) IsValid() bool {
	switch d {
	case DirectionIn, DirectionOut, DirectionAdjust:
		return true
	}
	return false
}

// DirectionFor returns IN for a positive delta and OUT otherwise
func DirectionFor(delta decimal.Decimal) Direction {
	if delta.IsPositive() {
		return DirectionIn
	}
	return DirectionOut
}

// ReferenceKind names what caused a movement
type ReferenceKind string

const (
	ReferenceProductionOrder  ReferenceKind = "production_order"
	ReferencePurchaseOrder    ReferenceKind = "purchase_order"
	ReferenceOpeningStock     ReferenceKind = "opening_stock"
	ReferenceManualAdjustment ReferenceKind = "manual_adjustment"
)

// String returns the string representation of ReferenceKind
func (k ReferenceKind) String() string {
	return string(k)
}

// IsValid returns true if the reference kind is valid
func (k ReferenceKind) IsValid() bool {
	switch k {
	case ReferenceProductionOrder, ReferencePurchaseOrder, ReferenceOpeningStock, ReferenceManualAdjustment:
		return true
	}
	return false
}

// Reference points a ledger entry at the document that caused it
type Reference struct {
	Kind ReferenceKind
	ID   *uuid.UUID
}

// ProductionOrderRef references a production order
func ProductionOrderRef(id uuid.UUID) Reference {
	return Reference{Kind: ReferenceProductionOrder, ID: &id}
}

// PurchaseOrderRef references a purchase order
func PurchaseOrderRef(id uuid.UUID) Reference {
	return Reference{Kind: ReferencePurchaseOrder, ID: &id}
}

// OpeningStockRef references the account that was opened with stock
func OpeningStockRef(accountID uuid.UUID) Reference {
	return Reference{Kind: ReferenceOpeningStock, ID: &accountID}
}

// ManualAdjustmentRef references a manual correction
func ManualAdjustmentRef() Reference {
	return Reference{Kind: ReferenceManualAdjustment}
}

// LedgerEntry is the immutable record of one balance change.
// Corrections are made with new entries, never by editing old ones.
type LedgerEntry struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	AccountKind   AccountKind
	Direction     Direction
	Quantity      decimal.Decimal // always positive
	Unit          string
	BalanceAfter  decimal.Decimal
	Reason        string
	ReferenceKind ReferenceKind
	ReferenceID   *uuid.UUID
	ActorID       *uuid.UUID
	ActorName     string
	CreatedAt     time.Time
}

// NewLedgerEntry validates and builds a ledger entry for account
func NewLedgerEntry(
	account *MaterialAccount,
	direction Direction,
	quantity decimal.Decimal,
	balanceAfter decimal.Decimal,
	reason string,
	ref Reference,
	actor shared.Actor,
) (*LedgerEntry, error) {
	if account == nil || account.ID == uuid.Nil {
		return nil, shared.NewValidationError("Ledger entry requires a material account.")
	}
	if !direction.IsValid() {
		return nil, shared.NewValidationError("Invalid ledger direction.")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Ledger quantity must be greater than zero.")
	}
	if !ref.Kind.IsValid() {
		return nil, shared.NewValidationError("Invalid ledger reference kind.")
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > 255 {
		reason = reason[:255]
	}

	return &LedgerEntry{
		ID:            uuid.New(),
		AccountID:     account.ID,
		AccountKind:   account.Kind,
		Direction:     direction,
		Quantity:      quantity,
		Unit:          account.Unit,
		BalanceAfter:  balanceAfter,
		Reason:        reason,
		ReferenceKind: ref.Kind,
		ReferenceID:   ref.ID,
		ActorID:       actor.IDPtr(),
		ActorName:     actor.Label(),
		CreatedAt:     time.Now(),
	}, nil
}

// SignedQuantity returns the quantity with the sign of the balance change.
// ADJUST entries carry no sign and report zero.
func (e *LedgerEntry) SignedQuantity() decimal.Decimal {
	switch e.Direction {
	case DirectionIn:
		return e.Quantity
	case DirectionOut:
		return e.Quantity.Neg()
	default:
		return decimal.Zero
	}
}
