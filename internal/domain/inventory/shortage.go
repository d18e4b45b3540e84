package inventory

import (
	"fmt"

	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shortage describes one account that cannot cover a requested quantity
type Shortage struct {
	AccountID uuid.UUID       `json:"account_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Required  decimal.Decimal `json:"required"`
	Available decimal.Decimal `json:"available"`
}

// String renders "<name>: required <r> <unit>, available <a>"
func (s Shortage) String() string {
	return fmt.Sprintf("%s: required %s %s, available %s",
		s.Name,
		s.Required.StringFixed(QuantityScale),
		s.Unit,
		s.Available.StringFixed(QuantityScale),
	)
}

// Demand is a quantity to be drawn from one account
type Demand struct {
	AccountID uuid.UUID
	Quantity  decimal.Decimal
}

// FindShortages checks every demand against the locked accounts and returns
// all shortfalls in demand order. Demands on the same account are summed.
// A demand whose account is missing from accounts yields a NotFound error.
func FindShortages(accounts map[uuid.UUID]*MaterialAccount, demands []Demand) ([]Shortage, error) {
	totals := make(map[uuid.UUID]decimal.Decimal, len(demands))
	order := make([]uuid.UUID, 0, len(demands))
	for _, d := range demands {
		if _, ok := accounts[d.AccountID]; !ok {
			return nil, shared.NewNotFoundError("Material " + d.AccountID.String())
		}
		if _, seen := totals[d.AccountID]; !seen {
			order = append(order, d.AccountID)
		}
		totals[d.AccountID] = totals[d.AccountID].Add(d.Quantity)
	}

	var shortages []Shortage
	for _, id := range order {
		account := accounts[id]
		if account.Balance.LessThan(totals[id]) {
			shortages = append(shortages, Shortage{
				AccountID: id,
				Name:      account.Name,
				Unit:      account.Unit,
				Required:  totals[id],
				Available: account.Balance,
			})
		}
	}
	return shortages, nil
}

// NewInsufficientStockError lists every shortage after prefix
func NewInsufficientStockError(prefix string, shortages []Shortage) *shared.DomainError {
	details := make([]string, len(shortages))
	for i, s := range shortages {
		details[i] = s.String()
	}
	return shared.NewDomainErrorWithDetails(shared.CodeInsufficientStock, prefix, details)
}
