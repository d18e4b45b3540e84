package persistence

import (
	"context"
	"slices"
	"strings"

	"github.com/erp/stockengine/internal/domain/catalog"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists products, searching sku and name
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, int64, error) {
	query := searchLike(r.db.WithContext(ctx).Model(&models.ProductModel{}), filter.Search, "sku", "name")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	var rows []models.ProductModel
	if err := paginate(query, filter, ProductSortFields).Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, total, nil
}

// ExistsBySKU checks whether a SKU is taken
func (r *GormProductRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("sku = ?", strings.ToUpper(strings.TrimSpace(sku))).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return translateError(err)
	}
	product.CreatedAt = model.CreatedAt
	product.UpdatedAt = model.UpdatedAt
	return nil
}

// GormBOMRepository implements catalog.BOMRepository using GORM
type GormBOMRepository struct {
	db *gorm.DB
}

// NewGormBOMRepository creates a new GormBOMRepository
func NewGormBOMRepository(db *gorm.DB) *GormBOMRepository {
	return &GormBOMRepository{db: db}
}

// FindByProduct returns the lines of a product ordered by material name
func (r *GormBOMRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]catalog.BOMLine, error) {
	var rows []models.BOMLineModel
	if err := r.db.WithContext(ctx).
		Preload("Account").
		Where("product_id = ?", productID).
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	lines := make([]catalog.BOMLine, len(rows))
	for i := range rows {
		lines[i] = rows[i].ToDomain()
	}
	sortBOMLines(lines)
	return lines, nil
}

// ReplaceForProduct deletes the current lines and inserts the new ones.
// Callers run it inside a transaction.
func (r *GormBOMRepository) ReplaceForProduct(ctx context.Context, productID uuid.UUID, lines []catalog.BOMLine) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("product_id = ?", productID).Delete(&models.BOMLineModel{}).Error; err != nil {
		return translateError(err)
	}
	if len(lines) == 0 {
		return nil
	}
	rows := make([]*models.BOMLineModel, len(lines))
	for i := range lines {
		rows[i] = models.BOMLineModelFromDomain(&lines[i])
		rows[i].ProductID = productID
	}
	return translateError(db.Omit("Account").Create(rows).Error)
}

func sortBOMLines(lines []catalog.BOMLine) {
	slices.SortStableFunc(lines, func(a, b catalog.BOMLine) int {
		return strings.Compare(a.MaterialName, b.MaterialName)
	})
}

var (
	_ catalog.ProductRepository = (*GormProductRepository)(nil)
	_ catalog.BOMRepository     = (*GormBOMRepository)(nil)
)
