package persistence

import (
	"context"
	"time"

	"github.com/erp/stockengine/internal/domain/purchasing"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseOrderRepository implements purchasing.OrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db, now: time.Now}
}

// FindByID loads an order with its lines
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*purchasing.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).Preload("Lines", orderLines).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists orders. A zero status or vendor id skips that criterion.
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter shared.Filter, status purchasing.OrderStatus, vendorID uuid.UUID) ([]purchasing.PurchaseOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if vendorID != uuid.Nil {
		query = query.Where("vendor_id = ?", vendorID)
	}
	if from, ok := filter.Filters["from"].(time.Time); ok {
		query = query.Where("order_date >= ?", from)
	}
	if to, ok := filter.Filters["to"].(time.Time); ok {
		query = query.Where("order_date <= ?", to)
	}
	query = searchLike(query, filter.Search, "order_number", "vendor_name")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	var rows []models.PurchaseOrderModel
	if err := paginate(query, filter, PurchaseOrderSortFields).Preload("Lines", orderLines).Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	orders := make([]purchasing.PurchaseOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

// LockByID locks the order row, then loads its lines
func (r *GormPurchaseOrderRepository) LockByID(ctx context.Context, id uuid.UUID) (*purchasing.PurchaseOrder, error) {
	db := r.db.WithContext(ctx)
	var model models.PurchaseOrderModel
	if err := db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	if err := orderLines(db.Where("order_id = ?", id)).Find(&model.Lines).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Create inserts the order and its lines
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, order *purchasing.PurchaseOrder) error {
	model := models.PurchaseOrderModelFromDomain(order)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	order.CreatedAt = model.CreatedAt
	order.UpdatedAt = model.UpdatedAt
	return nil
}

// Save updates the header and the received quantity of every line
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *purchasing.PurchaseOrder) error {
	db := r.db.WithContext(ctx)
	model := &models.PurchaseOrderModel{}
	model.FromDomain(order)
	result := db.Omit(clause.Associations).Select("*").Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("Purchase order")
	}
	for _, line := range order.Lines {
		if err := db.Model(&models.PurchaseOrderLineModel{}).
			Where("id = ? AND order_id = ?", line.ID, order.ID).
			Update("received_qty", line.ReceivedQty).Error; err != nil {
			return translateError(err)
		}
	}
	order.UpdatedAt = model.UpdatedAt
	return nil
}

// GenerateOrderNumber returns the next PO-YYYY-NNNNN number
func (r *GormPurchaseOrderRepository) GenerateOrderNumber(ctx context.Context) (string, error) {
	return nextOrderNumber(ctx, r.db, &models.PurchaseOrderModel{}, "PO", r.now())
}

var _ purchasing.OrderRepository = (*GormPurchaseOrderRepository)(nil)
