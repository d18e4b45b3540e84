package models

import (
	"time"

	"github.com/erp/stockengine/internal/domain/audit"
	"github.com/google/uuid"
)

// AuditLogModel stores one committed change event. Rows are inserted only.
type AuditLogModel struct {
	ID        uuid.UUID                    `gorm:"type:uuid;primary_key"`
	EventID   uuid.UUID                    `gorm:"type:uuid;not null;uniqueIndex"`
	AppLabel  string                       `gorm:"type:varchar(50);not null"`
	Entity    audit.EntityKind             `gorm:"type:varchar(50);not null;index:idx_audit_entity,priority:1"`
	EntityID  uuid.UUID                    `gorm:"type:uuid;not null;index:idx_audit_entity,priority:2"`
	Action    audit.Action                 `gorm:"type:varchar(20);not null"`
	Changes   map[string]audit.FieldChange `gorm:"type:text;serializer:json;not null"`
	ActorID   *uuid.UUID                   `gorm:"type:uuid;index"`
	ActorName string                       `gorm:"type:varchar(150)"`
	CreatedAt time.Time                    `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// AuditLogModelFromEvent creates a persistence model from a change event
func AuditLogModelFromEvent(e *audit.ChangeEvent) *AuditLogModel {
	return &AuditLogModel{
		ID:        uuid.New(),
		EventID:   e.EventID(),
		AppLabel:  e.Entity.AppLabel(),
		Entity:    e.Entity,
		EntityID:  e.EntityID,
		Action:    e.Action,
		Changes:   e.Changes,
		ActorID:   e.ActorID,
		ActorName: e.ActorName,
		CreatedAt: e.OccurredAt(),
	}
}

// ToDomain rebuilds the change event. The event id and timestamp are kept.
func (m *AuditLogModel) ToDomain() *audit.ChangeEvent {
	e := &audit.ChangeEvent{
		Entity:    m.Entity,
		EntityID:  m.EntityID,
		Action:    m.Action,
		Changes:   m.Changes,
		ActorID:   m.ActorID,
		ActorName: m.ActorName,
	}
	e.ID = m.EventID
	e.Type = audit.EventTypeEntityChanged
	e.Timestamp = m.CreatedAt
	e.AggID = m.EntityID
	e.AggType = string(m.Entity)
	return e
}

// AllModels lists every model the engine persists, in dependency order.
// Used by AutoMigrate in tests and the sqlite dev mode.
func AllModels() []any {
	return []any{
		&PartnerModel{},
		&ProductModel{},
		&MaterialAccountModel{},
		&MaterialVendorModel{},
		&LedgerEntryModel{},
		&BOMLineModel{},
		&ProductionOrderModel{},
		&ConsumptionLineModel{},
		&PurchaseOrderModel{},
		&PurchaseOrderLineModel{},
		&AuditLogModel{},
		&OrderSequenceModel{},
	}
}
