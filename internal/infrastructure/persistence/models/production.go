package models

import (
	"time"

	"github.com/erp/stockengine/internal/domain/production"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductionOrderModel is the persistence model for the ProductionOrder aggregate root.
type ProductionOrderModel struct {
	AggregateModel
	OrderNumber         string                 `gorm:"type:varchar(30);not null;uniqueIndex"`
	ProductID           uuid.UUID              `gorm:"type:uuid;not null;index"`
	ProductName         string                 `gorm:"type:varchar(150);not null"`
	Quantity            decimal.Decimal        `gorm:"type:decimal(18,3);not null"`
	PlannedQty          decimal.Decimal        `gorm:"type:decimal(18,3);not null"`
	ProducedQty         decimal.Decimal        `gorm:"type:decimal(18,3);not null;default:0"`
	ScrapQty            decimal.Decimal        `gorm:"type:decimal(18,3);not null;default:0"`
	RawMaterialReleased bool                   `gorm:"not null;default:false"`
	Status              production.OrderStatus `gorm:"type:varchar(30);not null;index"`
	Notes               string                 `gorm:"type:text"`

	CreatedByID     *uuid.UUID `gorm:"type:uuid"`
	CreatedByName   string     `gorm:"type:varchar(150)"`
	ReleasedByID    *uuid.UUID `gorm:"type:uuid"`
	ReleasedByName  string     `gorm:"type:varchar(150)"`
	ReleasedAt      *time.Time
	CompletedByID   *uuid.UUID `gorm:"type:uuid"`
	CompletedByName string     `gorm:"type:varchar(150)"`
	CompletedAt     *time.Time
	CancelledByID   *uuid.UUID `gorm:"type:uuid"`
	CancelledByName string     `gorm:"type:varchar(150)"`
	CancelledAt     *time.Time

	Lines []ConsumptionLineModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (ProductionOrderModel) TableName() string {
	return "production_orders"
}

// ToDomain converts the persistence model to a domain ProductionOrder.
func (m *ProductionOrderModel) ToDomain() *production.ProductionOrder {
	o := &production.ProductionOrder{
		BaseAggregateRoot:   m.ToDomainAggregateRoot(),
		OrderNumber:         m.OrderNumber,
		ProductID:           m.ProductID,
		ProductName:         m.ProductName,
		Quantity:            m.Quantity,
		PlannedQty:          m.PlannedQty,
		ProducedQty:         m.ProducedQty,
		ScrapQty:            m.ScrapQty,
		RawMaterialReleased: m.RawMaterialReleased,
		Status:              m.Status,
		Notes:               m.Notes,
		CreatedByID:         m.CreatedByID,
		CreatedByName:       m.CreatedByName,
		ReleasedByID:        m.ReleasedByID,
		ReleasedByName:      m.ReleasedByName,
		ReleasedAt:          m.ReleasedAt,
		CompletedByID:       m.CompletedByID,
		CompletedByName:     m.CompletedByName,
		CompletedAt:         m.CompletedAt,
		CancelledByID:       m.CancelledByID,
		CancelledByName:     m.CancelledByName,
		CancelledAt:         m.CancelledAt,
		Lines:               make([]production.ConsumptionLine, 0, len(m.Lines)),
	}
	for i := range m.Lines {
		o.Lines = append(o.Lines, m.Lines[i].ToDomain())
	}
	return o
}

// FromDomain populates the header columns from a domain ProductionOrder.
// Lines are handled separately since they are immutable after creation.
func (m *ProductionOrderModel) FromDomain(o *production.ProductionOrder) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.ProductID = o.ProductID
	m.ProductName = o.ProductName
	m.Quantity = o.Quantity
	m.PlannedQty = o.PlannedQty
	m.ProducedQty = o.ProducedQty
	m.ScrapQty = o.ScrapQty
	m.RawMaterialReleased = o.RawMaterialReleased
	m.Status = o.Status
	m.Notes = o.Notes
	m.CreatedByID = o.CreatedByID
	m.CreatedByName = o.CreatedByName
	m.ReleasedByID = o.ReleasedByID
	m.ReleasedByName = o.ReleasedByName
	m.ReleasedAt = o.ReleasedAt
	m.CompletedByID = o.CompletedByID
	m.CompletedByName = o.CompletedByName
	m.CompletedAt = o.CompletedAt
	m.CancelledByID = o.CancelledByID
	m.CancelledByName = o.CancelledByName
	m.CancelledAt = o.CancelledAt
}

// ProductionOrderModelFromDomain creates a persistence model including lines.
func ProductionOrderModelFromDomain(o *production.ProductionOrder) *ProductionOrderModel {
	m := &ProductionOrderModel{}
	m.FromDomain(o)
	m.Lines = make([]ConsumptionLineModel, 0, len(o.Lines))
	for i := range o.Lines {
		m.Lines = append(m.Lines, ConsumptionLineModelFromDomain(&o.Lines[i]))
	}
	return m
}

// ConsumptionLineModel is the persistence model for a consumption snapshot line
type ConsumptionLineModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	MaterialName string          `gorm:"type:varchar(150);not null"`
	Unit         string          `gorm:"type:varchar(20);not null"`
	RequiredQty  decimal.Decimal `gorm:"type:decimal(18,3);not null"`
}

// TableName returns the table name for GORM
func (ConsumptionLineModel) TableName() string {
	return "production_consumption_lines"
}

// ToDomain converts the persistence model to a domain ConsumptionLine.
func (m *ConsumptionLineModel) ToDomain() production.ConsumptionLine {
	return production.ConsumptionLine{
		ID:           m.ID,
		OrderID:      m.OrderID,
		AccountID:    m.AccountID,
		MaterialName: m.MaterialName,
		Unit:         m.Unit,
		RequiredQty:  m.RequiredQty,
	}
}

// ConsumptionLineModelFromDomain creates a persistence model from a domain line.
func ConsumptionLineModelFromDomain(l *production.ConsumptionLine) ConsumptionLineModel {
	return ConsumptionLineModel{
		ID:           l.ID,
		OrderID:      l.OrderID,
		AccountID:    l.AccountID,
		MaterialName: l.MaterialName,
		Unit:         l.Unit,
		RequiredQty:  l.RequiredQty,
	}
}
