package persistence

import (
	"context"

	"github.com/erp/stockengine/internal/domain/audit"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuditLogHandler writes every change event to audit_logs.
// Redelivered events are ignored through the unique event id.
type AuditLogHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAuditLogHandler creates a new AuditLogHandler
func NewAuditLogHandler(db *gorm.DB, logger *zap.Logger) *AuditLogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLogHandler{db: db, logger: logger}
}

// EventTypes implements shared.EventHandler
func (h *AuditLogHandler) EventTypes() []string {
	return []string{audit.EventTypeEntityChanged}
}

// Handle implements shared.EventHandler
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	change, ok := event.(*audit.ChangeEvent)
	if !ok {
		return nil
	}
	model := models.AuditLogModelFromEvent(change)
	if err := h.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(model).Error; err != nil {
		h.logger.Error("Failed to write audit log",
			zap.String("entity", string(change.Entity)),
			zap.String("entity_id", change.EntityID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// FindByEntity returns the audit trail of one entity, oldest first
func (h *AuditLogHandler) FindByEntity(ctx context.Context, entity audit.EntityKind, entityID uuid.UUID) ([]*audit.ChangeEvent, error) {
	var rows []models.AuditLogModel
	if err := h.db.WithContext(ctx).
		Where("entity = ? AND entity_id = ?", entity, entityID).
		Order("created_at, id").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	events := make([]*audit.ChangeEvent, len(rows))
	for i := range rows {
		events[i] = rows[i].ToDomain()
	}
	return events, nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
