package persistence

import (
	"github.com/erp/stockengine/internal/application/unitofwork"
	"github.com/erp/stockengine/internal/domain/catalog"
	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/erp/stockengine/internal/domain/partner"
	"github.com/erp/stockengine/internal/domain/production"
	"github.com/erp/stockengine/internal/domain/purchasing"
	"gorm.io/gorm"
)

// gormRepositories binds every repository to one *gorm.DB, which is either
// the pool or an open transaction.
type gormRepositories struct {
	db *gorm.DB
}

// NewRepositories returns repositories running on db outside any transaction
func NewRepositories(db *gorm.DB) unitofwork.Repositories {
	return &gormRepositories{db: db}
}

func (r *gormRepositories) Accounts() inventory.AccountRepository {
	return NewGormAccountRepository(r.db)
}

func (r *gormRepositories) Ledger() inventory.LedgerRepository {
	return NewGormLedgerRepository(r.db)
}

func (r *gormRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.db)
}

func (r *gormRepositories) BOMs() catalog.BOMRepository {
	return NewGormBOMRepository(r.db)
}

func (r *gormRepositories) Partners() partner.PartnerRepository {
	return NewGormPartnerRepository(r.db)
}

func (r *gormRepositories) ProductionOrders() production.OrderRepository {
	return NewGormProductionOrderRepository(r.db)
}

func (r *gormRepositories) PurchaseOrders() purchasing.OrderRepository {
	return NewGormPurchaseOrderRepository(r.db)
}
