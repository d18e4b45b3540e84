package inventory

import (
	"context"
	"time"

	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountRepository defines persistence for material accounts
type AccountRepository interface {
	// FindByID finds an account by its ID without locking
	FindByID(ctx context.Context, id uuid.UUID) (*MaterialAccount, error)

	// FindByIDs finds several accounts without locking, keyed by id
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*MaterialAccount, error)

	// FindByCode finds a raw material or MRO item by its code
	FindByCode(ctx context.Context, kind AccountKind, code string) (*MaterialAccount, error)

	// FindAll lists accounts, optionally restricted to one kind
	FindAll(ctx context.Context, filter shared.Filter, kind AccountKind) ([]MaterialAccount, int64, error)

	// FindBelowThreshold lists accounts whose balance is at or below the reorder threshold
	FindBelowThreshold(ctx context.Context, filter shared.Filter) ([]MaterialAccount, int64, error)

	// LockByIDs takes exclusive row locks on every id in ascending id order
	// and returns the locked accounts keyed by id. A missing id is NotFound.
	LockByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*MaterialAccount, error)

	// LockByProduct locks the finished goods account of a product.
	// Returns shared.ErrNotFound when the product has none yet.
	LockByProduct(ctx context.Context, productID uuid.UUID) (*MaterialAccount, error)

	// Save creates or updates an account
	Save(ctx context.Context, account *MaterialAccount) error

	// ExistsByCode checks whether a code is taken within a kind.
	// excludeID skips the account being updated.
	ExistsByCode(ctx context.Context, kind AccountKind, code string, excludeID *uuid.UUID) (bool, error)

	// ExistsByVariant checks whether a raw material (item id, colour code) pair is taken
	ExistsByVariant(ctx context.Context, itemID, colourCode string, excludeID *uuid.UUID) (bool, error)

	// ReplaceVendors sets the additional vendors of a raw material
	ReplaceVendors(ctx context.Context, accountID uuid.UUID, vendorIDs []uuid.UUID) error

	// FindVendorIDs returns the additional vendors of each account
	FindVendorIDs(ctx context.Context, accountIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
}

// LedgerRepository defines the append-only store of ledger entries.
// There is no update or delete.
type LedgerRepository interface {
	// Append inserts entries in order
	Append(ctx context.Context, entries ...*LedgerEntry) error

	// FindByAccount lists the entries of one account, newest first
	FindByAccount(ctx context.Context, accountID uuid.UUID, filter shared.Filter) ([]LedgerEntry, int64, error)

	// FindByReference lists the entries caused by one document, newest first
	FindByReference(ctx context.Context, kind ReferenceKind, referenceID uuid.UUID, filter shared.Filter) ([]LedgerEntry, int64, error)

	// FindByDateRange lists entries created in [from, to), newest first
	FindByDateRange(ctx context.Context, from, to time.Time, filter shared.Filter) ([]LedgerEntry, int64, error)
}
