package production

import (
	"bytes"
	"sort"

	"github.com/erp/stockengine/internal/domain/catalog"
	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Requirement is the quantity of one material a production order needs
type Requirement struct {
	AccountID    uuid.UUID
	MaterialName string
	Unit         string
	Quantity     decimal.Decimal
}

// ErrNoBillOfMaterials is returned when a product has no BOM lines
var ErrNoBillOfMaterials = shared.NewDomainError(shared.CodeNoBillOfMaterials, "No BOM defined for selected product.")

// ResolveRequirements multiplies every BOM line of product by quantity.
// Each requirement is rounded to three places, half to even, and the result
// is sorted by material id so callers can lock accounts in the same order.
// The result must be snapshotted into consumption lines right away.
func ResolveRequirements(product *catalog.Product, lines []catalog.BOMLine, quantity decimal.Decimal) ([]Requirement, error) {
	if product == nil {
		return nil, shared.NewNotFoundError("Product")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError(ErrNoBillOfMaterials.Code, ErrNoBillOfMaterials.Message)
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Quantity must be greater than zero.")
	}

	byAccount := make(map[uuid.UUID]int, len(lines))
	reqs := make([]Requirement, 0, len(lines))
	for _, line := range lines {
		if line.ProductID != product.ID {
			return nil, shared.NewValidationError("BOM line belongs to another product.")
		}
		required := inventory.RoundQuantity(line.QtyPerUnit.Mul(quantity))
		if i, ok := byAccount[line.AccountID]; ok {
			reqs[i].Quantity = reqs[i].Quantity.Add(required)
			continue
		}
		byAccount[line.AccountID] = len(reqs)
		reqs = append(reqs, Requirement{
			AccountID:    line.AccountID,
			MaterialName: line.MaterialName,
			Unit:         line.Unit,
			Quantity:     required,
		})
	}

	sort.Slice(reqs, func(i, j int) bool {
		return bytes.Compare(reqs[i].AccountID[:], reqs[j].AccountID[:]) < 0
	})
	return reqs, nil
}
