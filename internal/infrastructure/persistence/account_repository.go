package persistence

import (
	"bytes"
	"context"
	"slices"
	"strings"

	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAccountRepository implements inventory.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByID finds an account by its ID without locking
func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.MaterialAccount, error) {
	var model models.MaterialAccountModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs finds several accounts keyed by id. Missing ids are absent from the map.
func (r *GormAccountRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*inventory.MaterialAccount, error) {
	result := make(map[uuid.UUID]*inventory.MaterialAccount, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.MaterialAccountModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	for i := range rows {
		result[rows[i].ID] = rows[i].ToDomain()
	}
	return result, nil
}

// FindByCode finds an account by its code within a kind
func (r *GormAccountRepository) FindByCode(ctx context.Context, kind inventory.AccountKind, code string) (*inventory.MaterialAccount, error) {
	var model models.MaterialAccountModel
	if err := r.db.WithContext(ctx).
		Where("kind = ? AND code = ?", kind, strings.TrimSpace(code)).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists accounts. An empty kind lists every kind.
// Supported filter keys: category, vendor_id.
func (r *GormAccountRepository) FindAll(ctx context.Context, filter shared.Filter, kind inventory.AccountKind) ([]inventory.MaterialAccount, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MaterialAccountModel{})
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	query = r.applyFilter(query, filter)
	return r.list(query, filter)
}

// FindBelowThreshold lists raw material and MRO accounts at or below their reorder threshold
func (r *GormAccountRepository) FindBelowThreshold(ctx context.Context, filter shared.Filter) ([]inventory.MaterialAccount, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MaterialAccountModel{}).
		Where("kind <> ?", inventory.AccountKindFinishedGood).
		Where("balance <= reorder_threshold")
	query = r.applyFilter(query, filter)
	return r.list(query, filter)
}

func (r *GormAccountRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = searchLike(query, filter.Search, "code", "name", "item_id")
	for key, value := range filter.Filters {
		switch key {
		case "category":
			query = query.Where("category = ?", value)
		case "vendor_id":
			query = query.Where("vendor_id = ?", value)
		}
	}
	return query
}

func (r *GormAccountRepository) list(query *gorm.DB, filter shared.Filter) ([]inventory.MaterialAccount, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	var rows []models.MaterialAccountModel
	if err := paginate(query, filter, MaterialAccountSortFields).Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}
	accounts := make([]inventory.MaterialAccount, len(rows))
	for i := range rows {
		accounts[i] = *rows[i].ToDomain()
	}
	return accounts, total, nil
}

// LockByIDs takes FOR UPDATE locks on every id in ascending id order.
// Duplicate ids are locked once. A missing id is NotFound.
func (r *GormAccountRepository) LockByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*inventory.MaterialAccount, error) {
	ordered := uniqueSorted(ids)
	result := make(map[uuid.UUID]*inventory.MaterialAccount, len(ordered))
	if len(ordered) == 0 {
		return result, nil
	}

	var rows []models.MaterialAccountModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("id IN ?", ordered).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	if len(rows) != len(ordered) {
		return nil, shared.NewNotFoundError("Material account")
	}
	for i := range rows {
		result[rows[i].ID] = rows[i].ToDomain()
	}
	return result, nil
}

// LockByProduct locks the finished goods account of a product
func (r *GormAccountRepository) LockByProduct(ctx context.Context, productID uuid.UUID) (*inventory.MaterialAccount, error) {
	var model models.MaterialAccountModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("kind = ? AND product_id = ?", inventory.AccountKindFinishedGood, productID).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates an account
func (r *GormAccountRepository) Save(ctx context.Context, account *inventory.MaterialAccount) error {
	model := models.MaterialAccountModelFromDomain(account)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return translateError(err)
	}
	account.CreatedAt = model.CreatedAt
	account.UpdatedAt = model.UpdatedAt
	return nil
}

// ExistsByCode checks whether a code is taken within a kind, ignoring excludeID
func (r *GormAccountRepository) ExistsByCode(ctx context.Context, kind inventory.AccountKind, code string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.MaterialAccountModel{}).
		Where("kind = ? AND code = ?", kind, strings.TrimSpace(code))
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// ExistsByVariant checks whether a raw material (item id, colour code) pair is taken
func (r *GormAccountRepository) ExistsByVariant(ctx context.Context, itemID, colourCode string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.MaterialAccountModel{}).
		Where("kind = ? AND item_id = ? AND colour_code = ?",
			inventory.AccountKindRawMaterial, strings.TrimSpace(itemID), strings.TrimSpace(colourCode))
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// ReplaceVendors sets the additional vendors of a raw material
func (r *GormAccountRepository) ReplaceVendors(ctx context.Context, accountID uuid.UUID, vendorIDs []uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("account_id = ?", accountID).Delete(&models.MaterialVendorModel{}).Error; err != nil {
		return translateError(err)
	}
	ids := uniqueSorted(vendorIDs)
	if len(ids) == 0 {
		return nil
	}
	rows := make([]models.MaterialVendorModel, len(ids))
	for i, id := range ids {
		rows[i] = models.MaterialVendorModel{AccountID: accountID, VendorID: id}
	}
	return translateError(db.Create(&rows).Error)
}

// FindVendorIDs returns the additional vendors of each account
func (r *GormAccountRepository) FindVendorIDs(ctx context.Context, accountIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	result := make(map[uuid.UUID][]uuid.UUID, len(accountIDs))
	if len(accountIDs) == 0 {
		return result, nil
	}
	var rows []models.MaterialVendorModel
	if err := r.db.WithContext(ctx).
		Where("account_id IN ?", accountIDs).
		Order("account_id, vendor_id").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	for _, row := range rows {
		result[row.AccountID] = append(result[row.AccountID], row.VendorID)
	}
	return result, nil
}

// uniqueSorted returns ids deduplicated in ascending byte order, the order
// every writer takes account locks in.
func uniqueSorted(ids []uuid.UUID) []uuid.UUID {
	out := slices.Clone(ids)
	slices.SortFunc(out, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return slices.Compact(out)
}

// Ensure GormAccountRepository implements the interface
var _ inventory.AccountRepository = (*GormAccountRepository)(nil)
