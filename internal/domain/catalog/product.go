package catalog

import (
	"fmt"
	"strings"

	"github.com/erp/stockengine/internal/domain/audit"
	"github.com/erp/stockengine/internal/domain/shared"
)

// Product is a finished good that production orders make
type Product struct {
	shared.BaseAggregateRoot
	SKU  string
	Name string
}

// NewProduct creates a new product
func NewProduct(sku, name string) (*Product, error) {
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               strings.ToUpper(strings.TrimSpace(sku)),
		Name:              strings.TrimSpace(name),
	}, nil
}

// Rename updates the product's name
func (p *Product) Rename(name string) error {
	if err := validateProductName(name); err != nil {
		return err
	}
	p.Name = strings.TrimSpace(name)
	p.IncrementVersion()
	return nil
}

// String renders "Name (SKU)"
func (p *Product) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.SKU)
}

// AuditSnapshot returns the audited fields of the product
func (p *Product) AuditSnapshot() audit.Fields {
	return audit.Fields{"sku": p.SKU, "name": p.Name}
}

func validateSKU(sku string) error {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return shared.NewValidationError("SKU is required.")
	}
	if len(sku) > 50 {
		return shared.NewValidationError("SKU cannot exceed 50 characters.")
	}
	return nil
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("Product name is required.")
	}
	if len(name) > 150 {
		return shared.NewValidationError("Product name cannot exceed 150 characters.")
	}
	return nil
}
