package models

import (
	"time"

	"github.com/erp/stockengine/internal/domain/purchasing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root.
type PurchaseOrderModel struct {
	AggregateModel
	OrderNumber string                 `gorm:"type:varchar(30);not null;uniqueIndex"`
	VendorID    uuid.UUID              `gorm:"type:uuid;not null;index"`
	VendorName  string                 `gorm:"type:varchar(200);not null"`
	OrderDate   time.Time              `gorm:"not null"`
	Status      purchasing.OrderStatus `gorm:"type:varchar(30);not null;index"`
	Notes       string                 `gorm:"type:text"`

	CreatedByID     *uuid.UUID `gorm:"type:uuid"`
	CreatedByName   string     `gorm:"type:varchar(150)"`
	ReceivedByID    *uuid.UUID `gorm:"type:uuid"`
	ReceivedByName  string     `gorm:"type:varchar(150)"`
	ReceivedAt      *time.Time
	CancelledByID   *uuid.UUID `gorm:"type:uuid"`
	CancelledByName string     `gorm:"type:varchar(150)"`
	CancelledAt     *time.Time

	Lines []PurchaseOrderLineModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder.
func (m *PurchaseOrderModel) ToDomain() *purchasing.PurchaseOrder {
	o := &purchasing.PurchaseOrder{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		VendorID:          m.VendorID,
		VendorName:        m.VendorName,
		OrderDate:         m.OrderDate,
		Status:            m.Status,
		Notes:             m.Notes,
		CreatedByID:       m.CreatedByID,
		CreatedByName:     m.CreatedByName,
		ReceivedByID:      m.ReceivedByID,
		ReceivedByName:    m.ReceivedByName,
		ReceivedAt:        m.ReceivedAt,
		CancelledByID:     m.CancelledByID,
		CancelledByName:   m.CancelledByName,
		CancelledAt:       m.CancelledAt,
		Lines:             make([]purchasing.PurchaseOrderLine, 0, len(m.Lines)),
	}
	for i := range m.Lines {
		o.Lines = append(o.Lines, m.Lines[i].ToDomain())
	}
	return o
}

// FromDomain populates the header columns from a domain PurchaseOrder.
func (m *PurchaseOrderModel) FromDomain(o *purchasing.PurchaseOrder) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.VendorID = o.VendorID
	m.VendorName = o.VendorName
	m.OrderDate = o.OrderDate
	m.Status = o.Status
	m.Notes = o.Notes
	m.CreatedByID = o.CreatedByID
	m.CreatedByName = o.CreatedByName
	m.ReceivedByID = o.ReceivedByID
	m.ReceivedByName = o.ReceivedByName
	m.ReceivedAt = o.ReceivedAt
	m.CancelledByID = o.CancelledByID
	m.CancelledByName = o.CancelledByName
	m.CancelledAt = o.CancelledAt
}

// PurchaseOrderModelFromDomain creates a persistence model including lines.
func PurchaseOrderModelFromDomain(o *purchasing.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{}
	m.FromDomain(o)
	m.Lines = make([]PurchaseOrderLineModel, 0, len(o.Lines))
	for i := range o.Lines {
		m.Lines = append(m.Lines, PurchaseOrderLineModelFromDomain(&o.Lines[i]))
	}
	return m
}

// PurchaseOrderLineModel is the persistence model for a purchase order line
type PurchaseOrderLineModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	MaterialName string          `gorm:"type:varchar(150);not null"`
	Unit         string          `gorm:"type:varchar(20);not null"`
	OrderedQty   decimal.Decimal `gorm:"type:decimal(18,3);not null"`
	ReceivedQty  decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0"`
}

// TableName returns the table name for GORM
func (PurchaseOrderLineModel) TableName() string {
	return "purchase_order_lines"
}

// ToDomain converts the persistence model to a domain PurchaseOrderLine.
func (m *PurchaseOrderLineModel) ToDomain() purchasing.PurchaseOrderLine {
	return purchasing.PurchaseOrderLine{
		ID:           m.ID,
		OrderID:      m.OrderID,
		AccountID:    m.AccountID,
		MaterialName: m.MaterialName,
		Unit:         m.Unit,
		OrderedQty:   m.OrderedQty,
		ReceivedQty:  m.ReceivedQty,
	}
}

// PurchaseOrderLineModelFromDomain creates a persistence model from a domain line.
func PurchaseOrderLineModelFromDomain(l *purchasing.PurchaseOrderLine) PurchaseOrderLineModel {
	return PurchaseOrderLineModel{
		ID:           l.ID,
		OrderID:      l.OrderID,
		AccountID:    l.AccountID,
		MaterialName: l.MaterialName,
		Unit:         l.Unit,
		OrderedQty:   l.OrderedQty,
		ReceivedQty:  l.ReceivedQty,
	}
}
