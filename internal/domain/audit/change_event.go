// Package audit defines the structured change events emitted by every
// mutating engine operation. Sinks subscribe to them through the event bus.
package audit

import (
	"sort"

	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
)

// EventTypeEntityChanged is the event type of ChangeEvent
const EventTypeEntityChanged = "audit.entity_changed"

// Action is the kind of change recorded
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// EntityKind names the changed entity; it doubles as the audit model name.
type EntityKind string

const (
	EntityMaterialAccount EntityKind = "material_account"
	EntityProduct         EntityKind = "product"
	EntityBOM             EntityKind = "bill_of_materials"
	EntityPartner         EntityKind = "partner"
	EntityProductionOrder EntityKind = "production_order"
	EntityPurchaseOrder   EntityKind = "purchase_order"
)

// AppLabel returns the bounded context the entity belongs to
func (k EntityKind) AppLabel() string {
	switch k {
	case EntityMaterialAccount:
		return "inventory"
	case EntityProduct, EntityBOM:
		return "catalog"
	case EntityPartner:
		return "partner"
	case EntityProductionOrder:
		return "production"
	case EntityPurchaseOrder:
		return "purchasing"
	default:
		return "engine"
	}
}

// Fields is a flat, string-valued snapshot of an entity
type Fields map[string]string

// FieldChange records one field's old and new value
type FieldChange struct {
	From *string `json:"from"`
	To   *string `json:"to"`
}

// ChangeEvent is emitted after a committed mutation
type ChangeEvent struct {
	shared.BaseDomainEvent
	Entity    EntityKind             `json:"entity"`
	EntityID  uuid.UUID              `json:"entity_id"`
	Action    Action                 `json:"action"`
	Changes   map[string]FieldChange `json:"changes"`
	ActorID   *uuid.UUID             `json:"actor_id,omitempty"`
	ActorName string                 `json:"actor_name"`
}

// NewChangeEvent creates a change event. Changes may be empty for deletes.
func NewChangeEvent(entity EntityKind, entityID uuid.UUID, action Action, changes map[string]FieldChange, actor shared.Actor) *ChangeEvent {
	if changes == nil {
		changes = map[string]FieldChange{}
	}
	return &ChangeEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntityChanged, string(entity), entityID),
		Entity:          entity,
		EntityID:        entityID,
		Action:          action,
		Changes:         changes,
		ActorID:         actor.IDPtr(),
		ActorName:       actor.Label(),
	}
}

// Created builds a create event listing every field of after
func Created(entity EntityKind, entityID uuid.UUID, after Fields, actor shared.Actor) *ChangeEvent {
	return NewChangeEvent(entity, entityID, ActionCreate, Diff(nil, after), actor)
}

// Updated builds an update event, or returns nil when nothing changed
func Updated(entity EntityKind, entityID uuid.UUID, before, after Fields, actor shared.Actor) *ChangeEvent {
	changes := Diff(before, after)
	if len(changes) == 0 {
		return nil
	}
	return NewChangeEvent(entity, entityID, ActionUpdate, changes, actor)
}

// Diff compares two snapshots. A nil before means every field is new.
func Diff(before, after Fields) map[string]FieldChange {
	changes := make(map[string]FieldChange)
	for key, newVal := range after {
		oldVal, existed := before[key]
		if existed && oldVal == newVal {
			continue
		}
		to := newVal
		change := FieldChange{To: &to}
		if existed {
			from := oldVal
			change.From = &from
		}
		changes[key] = change
	}
	for key, oldVal := range before {
		if _, ok := after[key]; ok {
			continue
		}
		from := oldVal
		changes[key] = FieldChange{From: &from}
	}
	return changes
}

// ChangedFields returns the sorted names of changed fields
func (e *ChangeEvent) ChangedFields() []string {
	names := make([]string, 0, len(e.Changes))
	for k := range e.Changes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Snapshotter is implemented by aggregates that can be audited
type Snapshotter interface {
	AuditSnapshot() Fields
}
