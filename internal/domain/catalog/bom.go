package catalog

import (
	"github.com/erp/stockengine/internal/domain/audit"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// minQtyPerUnit is the smallest quantity a stored decimal(18,3) can hold
var minQtyPerUnit = decimal.New(1, -3)

// BOMLine is the per-unit requirement of one material for one product
type BOMLine struct {
	ID           uuid.UUID
	ProductID    uuid.UUID
	AccountID    uuid.UUID
	MaterialName string
	Unit         string
	QtyPerUnit   decimal.Decimal
}

// NewBOMLine validates and creates a BOM line
func NewBOMLine(productID, accountID uuid.UUID, qtyPerUnit decimal.Decimal) (*BOMLine, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("Product is required.")
	}
	if accountID == uuid.Nil {
		return nil, shared.NewValidationError("Material is required.")
	}
	if qtyPerUnit.LessThan(minQtyPerUnit) {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Quantity per unit must be at least 0.001.")
	}
	return &BOMLine{
		ID:         uuid.New(),
		ProductID:  productID,
		AccountID:  accountID,
		QtyPerUnit: qtyPerUnit,
	}, nil
}

// ValidateBOM rejects lines that repeat a material or belong to another product
func ValidateBOM(productID uuid.UUID, lines []BOMLine) error {
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, l := range lines {
		if l.ProductID != productID {
			return shared.NewValidationError("BOM line belongs to another product.")
		}
		if seen[l.AccountID] {
			return shared.NewValidationError("Each material can appear only once in a bill of materials.")
		}
		seen[l.AccountID] = true
	}
	return nil
}

// BOMSnapshot renders lines as audited fields keyed by material id
func BOMSnapshot(lines []BOMLine) audit.Fields {
	f := make(audit.Fields, len(lines))
	for _, l := range lines {
		f[l.AccountID.String()] = l.QtyPerUnit.StringFixed(3)
	}
	return f
}
