package inventory

import (
	"fmt"
	"strings"

	"github.com/erp/stockengine/internal/domain/audit"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuantityScale is the number of decimal places every stored quantity keeps
const QuantityScale int32 = 3

// RoundQuantity rounds q to QuantityScale places, half to even
func RoundQuantity(q decimal.Decimal) decimal.Decimal {
	return q.RoundBank(QuantityScale)
}

// AggregateTypeMaterialAccount is the aggregate type for stock accounts
const AggregateTypeMaterialAccount = "MaterialAccount"

// AccountKind distinguishes what an account stocks
type AccountKind string

const (
	AccountKindRawMaterial  AccountKind = "RAW_MATERIAL"
	AccountKindMRO          AccountKind = "MRO"
	AccountKindFinishedGood AccountKind = "FINISHED_GOOD"
)

// String returns the string representation of AccountKind
func (k AccountKind) String() string {
	return string(k)
}

// IsValid returns true if the kind is valid
func (k AccountKind) IsValid() bool {
	switch k {
	case AccountKindRawMaterial, AccountKindMRO, AccountKindFinishedGood:
		return true
	}
	return false
}

// IsPurchasable reports whether the account can appear on a purchase order
func (k AccountKind) IsPurchasable() bool {
	return k == AccountKindRawMaterial || k == AccountKindMRO
}

// MaterialAccount owns the stock balance of one stocked item: a raw material
// variant, an MRO item or a finished product.
//
// Balance is changed only through Post. Every successful Post returns exactly
// one LedgerEntry that the caller must persist in the same transaction.
type MaterialAccount struct {
	shared.BaseAggregateRoot
	Kind             AccountKind
	ItemID           string // RM ID, MRO ID or product SKU
	Code             string
	Name             string
	Category         string
	Colour           string
	ColourCode       string
	Unit             string
	Location         string
	CostPerUnit      decimal.Decimal
	Balance          decimal.Decimal
	ReorderThreshold decimal.Decimal
	VendorID         *uuid.UUID
	ProductID        *uuid.UUID
}

// MaterialSpec carries the descriptive fields of a new raw material or MRO item
type MaterialSpec struct {
	Kind             AccountKind
	ItemID           string
	Code             string
	Name             string
	Category         string
	Colour           string
	ColourCode       string
	Unit             string
	Location         string
	CostPerUnit      decimal.Decimal
	ReorderThreshold decimal.Decimal
	VendorID         uuid.UUID
}

// NewMaterialAccount validates spec and creates an account with zero balance.
// Opening stock is posted separately so that it gets its own ledger entry.
func NewMaterialAccount(spec MaterialSpec) (*MaterialAccount, error) {
	if !spec.Kind.IsPurchasable() {
		return nil, shared.NewValidationError("Material kind must be RAW_MATERIAL or MRO.")
	}
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, shared.NewValidationError("Name is required.")
	}
	if len(name) > 150 {
		return nil, shared.NewValidationError("Name cannot exceed 150 characters.")
	}
	unit := strings.TrimSpace(spec.Unit)
	if unit == "" {
		return nil, shared.NewValidationError("Unit is required.")
	}
	if spec.VendorID == uuid.Nil {
		return nil, shared.NewValidationError("Vendor is required.")
	}
	if spec.CostPerUnit.IsNegative() {
		return nil, shared.NewValidationError("Cost per unit cannot be negative.")
	}
	if spec.ReorderThreshold.IsNegative() {
		return nil, shared.NewValidationError("Reorder level cannot be negative.")
	}

	itemID := strings.ToUpper(strings.TrimSpace(spec.ItemID))
	colourCode := strings.ToUpper(strings.TrimSpace(spec.ColourCode))
	code := strings.ToUpper(strings.TrimSpace(spec.Code))

	switch spec.Kind {
	case AccountKindRawMaterial:
		if itemID == "" {
			return nil, shared.NewValidationError("RM ID is required.")
		}
		if colourCode == "" {
			return nil, shared.NewValidationError("Colour code is required.")
		}
		if code == "" {
			code = itemID + "-" + colourCode
		}
	case AccountKindMRO:
		if itemID == "" {
			return nil, shared.NewValidationError("MRO ID is required.")
		}
		if code == "" {
			code = itemID
		}
		colourCode = ""
	}

	vendorID := spec.VendorID
	return &MaterialAccount{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              spec.Kind,
		ItemID:            itemID,
		Code:              code,
		Name:              name,
		Category:          strings.TrimSpace(spec.Category),
		Colour:            strings.TrimSpace(spec.Colour),
		ColourCode:        colourCode,
		Unit:              unit,
		Location:          strings.TrimSpace(spec.Location),
		CostPerUnit:       spec.CostPerUnit.Round(QuantityScale),
		Balance:           decimal.Zero,
		ReorderThreshold:  RoundQuantity(spec.ReorderThreshold),
		VendorID:          &vendorID,
	}, nil
}

// NewFinishedGoodsAccount creates the stock account of a finished product
func NewFinishedGoodsAccount(productID uuid.UUID, sku, name string) (*MaterialAccount, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("Product is required.")
	}
	pid := productID
	sku = strings.ToUpper(strings.TrimSpace(sku))
	return &MaterialAccount{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Kind:              AccountKindFinishedGood,
		ItemID:            sku,
		Code:              "FG-" + sku,
		Name:              strings.TrimSpace(name),
		Unit:              "pieces",
		Balance:           decimal.Zero,
		ReorderThreshold:  decimal.Zero,
		ProductID:         &pid,
	}, nil
}

// DisplayName renders "Name (ItemID)" falling back to the code
func (a *MaterialAccount) DisplayName() string {
	identifier := a.ItemID
	if identifier == "" {
		identifier = a.Code
	}
	return fmt.Sprintf("%s (%s)", a.Name, identifier)
}

// IsLowStock returns true when the balance is at or below the reorder threshold
func (a *MaterialAccount) IsLowStock() bool {
	return a.Balance.LessThanOrEqual(a.ReorderThreshold)
}

// Post applies delta to the balance and returns the ledger entry recording it.
// The account must have been locked by the caller's unit of work.
func (a *MaterialAccount) Post(delta decimal.Decimal, reason string, ref Reference, actor shared.Actor) (*LedgerEntry, error) {
	return a.post(delta, reason, ref, actor, "Insufficient stock.")
}

// PostAdjustment is the manual correction path. It shares Post's mechanics
// and sign rule and always references manual_adjustment.
func (a *MaterialAccount) PostAdjustment(delta decimal.Decimal, reason string, actor shared.Actor) (*LedgerEntry, error) {
	if strings.TrimSpace(reason) == "" {
		reason = "Manual adjustment"
	}
	ref := ManualAdjustmentRef()
	id := a.ID
	ref.ID = &id
	return a.post(delta, reason, ref, actor, "Stock cannot become negative.")
}

func (a *MaterialAccount) post(delta decimal.Decimal, reason string, ref Reference, actor shared.Actor, shortPrefix string) (*LedgerEntry, error) {
	delta = RoundQuantity(delta)
	if delta.IsZero() {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Adjustment quantity cannot be zero.")
	}

	newBalance := a.Balance.Add(delta)
	if newBalance.IsNegative() {
		return nil, NewInsufficientStockError(shortPrefix, []Shortage{{
			AccountID: a.ID,
			Name:      a.Name,
			Unit:      a.Unit,
			Required:  delta.Neg(),
			Available: a.Balance,
		}})
	}

	entry, err := NewLedgerEntry(a, DirectionFor(delta), delta.Abs(), newBalance, reason, ref, actor)
	if err != nil {
		return nil, err
	}

	wasLow := a.IsLowStock()
	oldBalance := a.Balance
	a.Balance = newBalance
	a.IncrementVersion()

	a.AddDomainEvent(NewStockMovedEvent(a, entry, oldBalance))
	if !wasLow && a.IsLowStock() && a.Kind != AccountKindFinishedGood {
		a.AddDomainEvent(NewStockBelowThresholdEvent(a))
	}
	return entry, nil
}

// UpdateDetails replaces the descriptive fields of a raw material or MRO item.
// Balance is untouched.
func (a *MaterialAccount) UpdateDetails(spec MaterialSpec) error {
	spec.Kind = a.Kind
	updated, err := NewMaterialAccount(spec)
	if err != nil {
		return err
	}
	a.ItemID = updated.ItemID
	a.Code = updated.Code
	a.Name = updated.Name
	a.Category = updated.Category
	a.Colour = updated.Colour
	a.ColourCode = updated.ColourCode
	a.Unit = updated.Unit
	a.Location = updated.Location
	a.CostPerUnit = updated.CostPerUnit
	a.ReorderThreshold = updated.ReorderThreshold
	a.VendorID = updated.VendorID
	a.IncrementVersion()
	return nil
}

// AuditSnapshot returns the audited fields of the account
func (a *MaterialAccount) AuditSnapshot() audit.Fields {
	f := audit.Fields{
		"kind":          string(a.Kind),
		"item_id":       a.ItemID,
		"code":          a.Code,
		"name":          a.Name,
		"unit":          a.Unit,
		"current_stock": a.Balance.StringFixed(QuantityScale),
		"reorder_level": a.ReorderThreshold.StringFixed(QuantityScale),
	}
	if a.ColourCode != "" {
		f["colour_code"] = a.ColourCode
	}
	if a.VendorID != nil {
		f["vendor_id"] = a.VendorID.String()
	}
	if a.ProductID != nil {
		f["product_id"] = a.ProductID.String()
	}
	return f
}

// MaterialVendor links a raw material to an additional supplier
type MaterialVendor struct {
	AccountID uuid.UUID
	VendorID  uuid.UUID
}

// SuppliedBy reports whether vendorID is the primary or an additional vendor
func (a *MaterialAccount) SuppliedBy(vendorID uuid.UUID, additional []uuid.UUID) bool {
	if a.VendorID != nil && *a.VendorID == vendorID {
		return true
	}
	for _, id := range additional {
		if id == vendorID {
			return true
		}
	}
	return false
}

// AdditionalVendors deduplicates ids and drops the primary vendor
func AdditionalVendors(primary uuid.UUID, ids []uuid.UUID) []uuid.UUID {
	seen := map[uuid.UUID]bool{primary: true}
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
