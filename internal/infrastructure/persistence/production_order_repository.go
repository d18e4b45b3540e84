package persistence

import (
	"context"
	"time"

	"github.com/erp/stockengine/internal/domain/production"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductionOrderRepository implements production.OrderRepository using GORM
type GormProductionOrderRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormProductionOrderRepository creates a new GormProductionOrderRepository
func NewGormProductionOrderRepository(db *gorm.DB) *GormProductionOrderRepository {
	return &GormProductionOrderRepository{db: db, now: time.Now}
}

// FindByID loads an order with its consumption lines
func (r *GormProductionOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*production.ProductionOrder, error) {
	var model models.ProductionOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", orderLines).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists orders, optionally restricted to one status.
// Supported filter keys: product_id.
func (r *GormProductionOrderRepository) FindAll(ctx context.Context, filter shared.Filter, status production.OrderStatus) ([]production.ProductionOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductionOrderModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if productID, ok := filter.Filters["product_id"]; ok {
		query = query.Where("product_id = ?", productID)
	}
	query = searchLike(query, filter.Search, "order_number", "product_name")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	var rows []models.ProductionOrderModel
	if err := paginate(query, filter, ProductionOrderSortFields).
		Preload("Lines", orderLines).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	orders := make([]production.ProductionOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

// LockByID locks the order row, then loads its lines
func (r *GormProductionOrderRepository) LockByID(ctx context.Context, id uuid.UUID) (*production.ProductionOrder, error) {
	db := r.db.WithContext(ctx)
	var model models.ProductionOrderModel
	if err := db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	if err := orderLines(db.Where("order_id = ?", id)).Find(&model.Lines).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Create inserts the order and its consumption lines
func (r *GormProductionOrderRepository) Create(ctx context.Context, order *production.ProductionOrder) error {
	model := models.ProductionOrderModelFromDomain(order)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	order.CreatedAt = model.CreatedAt
	order.UpdatedAt = model.UpdatedAt
	return nil
}

// Save updates the order header. Lines are never rewritten.
func (r *GormProductionOrderRepository) Save(ctx context.Context, order *production.ProductionOrder) error {
	model := &models.ProductionOrderModel{}
	model.FromDomain(order)
	result := r.db.WithContext(ctx).Omit(clause.Associations).Select("*").Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Production order")
	}
	order.UpdatedAt = model.UpdatedAt
	return nil
}

// GenerateOrderNumber returns the next MO-YYYY-NNNNN number
func (r *GormProductionOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	return nextOrderNumber(ctx, r.db, &models.ProductionOrderModel{}, "MO", r.now())
}

var _ production.OrderRepository = (*GormProductionOrderRepository)(nil)
