package models

import (
	"github.com/erp/stockengine/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product aggregate root.
type ProductModel struct {
	AggregateModel
	SKU  string `gorm:"column:sku;type:varchar(50);not null;uniqueIndex"`
	Name string `gorm:"type:varchar(150);not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		SKU:               m.SKU,
		Name:              m.Name,
	}
}

// ProductModelFromDomain creates a new persistence model from a domain Product.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{SKU: p.SKU, Name: p.Name}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

// BOMLineModel is the persistence model for one BOM line
type BOMLineModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_bom_product_account,priority:1"`
	AccountID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_bom_product_account,priority:2"`
	QtyPerUnit decimal.Decimal `gorm:"type:decimal(18,3);not null"`

	Account *MaterialAccountModel `gorm:"foreignKey:AccountID;references:ID"`
}

// TableName returns the table name for GORM
func (BOMLineModel) TableName() string {
	return "bom_lines"
}

// ToDomain converts the persistence model to a domain BOMLine.
// Material name and unit come from the preloaded account.
func (m *BOMLineModel) ToDomain() catalog.BOMLine {
	line := catalog.BOMLine{
		ID:         m.ID,
		ProductID:  m.ProductID,
		AccountID:  m.AccountID,
		QtyPerUnit: m.QtyPerUnit,
	}
	if m.Account != nil {
		line.MaterialName = m.Account.Name
		line.Unit = m.Account.Unit
	}
	return line
}

// BOMLineModelFromDomain creates a new persistence model from a domain BOMLine.
func BOMLineModelFromDomain(l *catalog.BOMLine) *BOMLineModel {
	return &BOMLineModel{
		ID:         l.ID,
		ProductID:  l.ProductID,
		AccountID:  l.AccountID,
		QtyPerUnit: l.QtyPerUnit,
	}
}
