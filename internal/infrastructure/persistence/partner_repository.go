package persistence

import (
	"context"

	"github.com/erp/stockengine/internal/domain/partner"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPartnerRepository implements partner.PartnerRepository using GORM
type GormPartnerRepository struct {
	db *gorm.DB
}

// NewGormPartnerRepository creates a new GormPartnerRepository
func NewGormPartnerRepository(db *gorm.DB) *GormPartnerRepository {
	return &GormPartnerRepository{db: db}
}

// FindByID finds a partner by its ID
func (r *GormPartnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Partner, error) {
	var model models.PartnerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds several partners keyed by id
func (r *GormPartnerRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*partner.Partner, error) {
	result := make(map[uuid.UUID]*partner.Partner, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.PartnerModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	for i := range rows {
		result[rows[i].ID] = rows[i].ToDomain()
	}
	return result, nil
}

// FindAll lists partners. SUPPLIER and BUYER include BOTH; an empty type lists all.
func (r *GormPartnerRepository) FindAll(ctx context.Context, filter shared.Filter, partnerType partner.PartnerType) ([]partner.Partner, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PartnerModel{})
	switch partnerType {
	case partner.PartnerTypeSupplier, partner.PartnerTypeBuyer:
		query = query.Where("type IN ?", []partner.PartnerType{partnerType, partner.PartnerTypeBoth})
	case partner.PartnerTypeBoth:
		query = query.Where("type = ?", partnerType)
	}
	query = searchLike(query, filter.Search, "name", "email", "phone")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	var rows []models.PartnerModel
	if err := paginate(query, filter, PartnerSortFields).Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	partners := make([]partner.Partner, len(rows))
	for i := range rows {
		partners[i] = *rows[i].ToDomain()
	}
	return partners, total, nil
}

// Save creates or updates a partner
func (r *GormPartnerRepository) Save(ctx context.Context, p *partner.Partner) error {
	model := models.PartnerModelFromDomain(p)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return translateError(err)
	}
	p.CreatedAt = model.CreatedAt
	p.UpdatedAt = model.UpdatedAt
	return nil
}

var _ partner.PartnerRepository = (*GormPartnerRepository)(nil)
