// Package unitofwork holds the pieces every engine service shares: the
// transaction scope, the post-commit event recorder and the order locker.
package unitofwork

import (
	"context"

	"github.com/erp/stockengine/internal/domain/catalog"
	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/erp/stockengine/internal/domain/partner"
	"github.com/erp/stockengine/internal/domain/production"
	"github.com/erp/stockengine/internal/domain/purchasing"
)

// TransactionScope runs a unit of work in one database transaction.
// If fn returns an error, the transaction is rolled back and nothing
// becomes observable.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories gives access to every repository. Inside Execute they all
// share the same transaction; outside they run on the plain connection.
type Repositories interface {
	Accounts() inventory.AccountRepository
	Ledger() inventory.LedgerRepository
	Products() catalog.ProductRepository
	BOMs() catalog.BOMRepository
	Partners() partner.PartnerRepository
	ProductionOrders() production.OrderRepository
	PurchaseOrders() purchasing.OrderRepository
}
