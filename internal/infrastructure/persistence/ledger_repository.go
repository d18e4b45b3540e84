package persistence

import (
	"context"
	"time"

	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedgerRepository implements inventory.LedgerRepository using GORM.
// Entries are inserted only.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Append inserts entries in order
func (r *GormLedgerRepository) Append(ctx context.Context, entries ...*inventory.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.LedgerEntryModel, len(entries))
	for i, e := range entries {
		rows[i] = models.LedgerEntryModelFromDomain(e)
	}
	return translateError(r.db.WithContext(ctx).Create(rows).Error)
}

// FindByAccount lists the entries of one account, newest first
func (r *GormLedgerRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]inventory.LedgerEntry, int64, error) {
	return r.list(r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Where("account_id = ?", accountID), filter)
}

// FindByReference lists the entries caused by one document, newest first
func (r *GormLedgerRepository) FindByReference(ctx context.Context, kind inventory.ReferenceKind, referenceID uuid.UUID, filter shared.Filter) ([]inventory.LedgerEntry, int64, error) {
	return r.list(r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Where("reference_kind = ? AND reference_id = ?", kind, referenceID), filter)
}

// FindByDateRange lists entries created in [from, to), newest first
func (r *GormLedgerRepository) FindByDateRange(ctx context.Context, from, to time.Time, filter shared.Filter) ([]inventory.LedgerEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).
		Where("created_at >= ? AND created_at < ?", from, to)
	for key, value := range filter.Filters {
		switch key {
		case "account_kind":
			query = query.Where("account_kind = ?", value)
		case "direction":
			query = query.Where("direction = ?", value)
		case "reference_kind":
			query = query.Where("reference_kind = ?", value)
		}
	}
	return r.list(query, filter)
}

// list pages through entries newest first. Entries written in one
// transaction share a timestamp, so id breaks ties deterministically.
func (r *GormLedgerRepository) list(query *gorm.DB, filter shared.Filter) ([]inventory.LedgerEntry, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	f := filter.Normalized()
	var rows []models.LedgerEntryModel
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Offset(f.Offset()).
		Limit(f.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	entries := make([]inventory.LedgerEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, total, nil
}

var _ inventory.LedgerRepository = (*GormLedgerRepository)(nil)
