package models

import (
	"time"

	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaterialAccountModel is the persistence model for the MaterialAccount aggregate root.
type MaterialAccountModel struct {
	AggregateModel
	Kind             inventory.AccountKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_material_account_kind_code,priority:1"`
	ItemID           string                `gorm:"type:varchar(50);not null;index"`
	Code             string                `gorm:"type:varchar(60);not null;uniqueIndex:idx_material_account_kind_code,priority:2"`
	Name             string                `gorm:"type:varchar(150);not null"`
	Category         string                `gorm:"type:varchar(100)"`
	Colour           string                `gorm:"type:varchar(50)"`
	ColourCode       string                `gorm:"type:varchar(30)"`
	Unit             string                `gorm:"type:varchar(20);not null"`
	Location         string                `gorm:"type:varchar(100)"`
	CostPerUnit      decimal.Decimal       `gorm:"type:decimal(18,3);not null;default:0"`
	Balance          decimal.Decimal       `gorm:"type:decimal(18,3);not null;default:0"`
	ReorderThreshold decimal.Decimal       `gorm:"type:decimal(18,3);not null;default:0"`
	VendorID         *uuid.UUID            `gorm:"type:uuid;index"`
	ProductID        *uuid.UUID            `gorm:"type:uuid;uniqueIndex"`
}

// TableName returns the table name for GORM
func (MaterialAccountModel) TableName() string {
	return "material_accounts"
}

// ToDomain converts the persistence model to a domain MaterialAccount.
func (m *MaterialAccountModel) ToDomain() *inventory.MaterialAccount {
	return &inventory.MaterialAccount{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Kind:              m.Kind,
		ItemID:            m.ItemID,
		Code:              m.Code,
		Name:              m.Name,
		Category:          m.Category,
		Colour:            m.Colour,
		ColourCode:        m.ColourCode,
		Unit:              m.Unit,
		Location:          m.Location,
		CostPerUnit:       m.CostPerUnit,
		Balance:           m.Balance,
		ReorderThreshold:  m.ReorderThreshold,
		VendorID:          m.VendorID,
		ProductID:         m.ProductID,
	}
}

// FromDomain populates the persistence model from a domain MaterialAccount.
func (m *MaterialAccountModel) FromDomain(a *inventory.MaterialAccount) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.Kind = a.Kind
	m.ItemID = a.ItemID
	m.Code = a.Code
	m.Name = a.Name
	m.Category = a.Category
	m.Colour = a.Colour
	m.ColourCode = a.ColourCode
	m.Unit = a.Unit
	m.Location = a.Location
	m.CostPerUnit = a.CostPerUnit
	m.Balance = a.Balance
	m.ReorderThreshold = a.ReorderThreshold
	m.VendorID = a.VendorID
	m.ProductID = a.ProductID
}

// MaterialAccountModelFromDomain creates a new persistence model from a domain MaterialAccount.
func MaterialAccountModelFromDomain(a *inventory.MaterialAccount) *MaterialAccountModel {
	m := &MaterialAccountModel{}
	m.FromDomain(a)
	return m
}

// MaterialVendorModel links a raw material to an additional vendor
type MaterialVendorModel struct {
	AccountID uuid.UUID `gorm:"type:uuid;primaryKey"`
	VendorID  uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

// TableName returns the table name for GORM
func (MaterialVendorModel) TableName() string {
	return "material_vendors"
}

// LedgerEntryModel is the persistence model for a ledger entry. Rows are
// inserted only.
type LedgerEntryModel struct {
	ID            uuid.UUID               `gorm:"type:uuid;primary_key"`
	AccountID     uuid.UUID               `gorm:"type:uuid;not null;index:idx_ledger_account_created,priority:1"`
	AccountKind   inventory.AccountKind   `gorm:"type:varchar(20);not null"`
	Direction     inventory.Direction     `gorm:"type:varchar(10);not null"`
	Quantity      decimal.Decimal         `gorm:"type:decimal(18,3);not null"`
	Unit          string                  `gorm:"type:varchar(20);not null"`
	BalanceAfter  decimal.Decimal         `gorm:"type:decimal(18,3);not null"`
	Reason        string                  `gorm:"type:varchar(255)"`
	ReferenceKind inventory.ReferenceKind `gorm:"type:varchar(30);not null;index:idx_ledger_reference,priority:1"`
	ReferenceID   *uuid.UUID              `gorm:"type:uuid;index:idx_ledger_reference,priority:2"`
	ActorID       *uuid.UUID              `gorm:"type:uuid"`
	ActorName     string                  `gorm:"type:varchar(150)"`
	CreatedAt     time.Time               `gorm:"not null;index:idx_ledger_account_created,priority:2;index"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry.
func (m *LedgerEntryModel) ToDomain() *inventory.LedgerEntry {
	return &inventory.LedgerEntry{
		ID:            m.ID,
		AccountID:     m.AccountID,
		AccountKind:   m.AccountKind,
		Direction:     m.Direction,
		Quantity:      m.Quantity,
		Unit:          m.Unit,
		BalanceAfter:  m.BalanceAfter,
		Reason:        m.Reason,
		ReferenceKind: m.ReferenceKind,
		ReferenceID:   m.ReferenceID,
		ActorID:       m.ActorID,
		ActorName:     m.ActorName,
		CreatedAt:     m.CreatedAt,
	}
}

// LedgerEntryModelFromDomain creates a new persistence model from a domain LedgerEntry.
func LedgerEntryModelFromDomain(e *inventory.LedgerEntry) *LedgerEntryModel {
	return &LedgerEntryModel{
		ID:            e.ID,
		AccountID:     e.AccountID,
		AccountKind:   e.AccountKind,
		Direction:     e.Direction,
		Quantity:      e.Quantity,
		Unit:          e.Unit,
		BalanceAfter:  e.BalanceAfter,
		Reason:        e.Reason,
		ReferenceKind: e.ReferenceKind,
		ReferenceID:   e.ReferenceID,
		ActorID:       e.ActorID,
		ActorName:     e.ActorName,
		CreatedAt:     e.CreatedAt,
	}
}
