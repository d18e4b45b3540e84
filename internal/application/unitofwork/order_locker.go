package unitofwork

import (
	"context"

	"github.com/google/uuid"
)

// Lock kinds used as part of distributed lock keys
const (
	LockKindProductionOrder = "production_order"
	LockKindPurchaseOrder   = "purchase_order"
	LockKindAccount         = "material_account"
)

// OrderLocker serialises mutations of one order across processes before the
// database transaction starts. Row locks stay the source of truth; a locker
// only shortens the time requests spend queued on them.
type OrderLocker interface {
	// Acquire returns a release func, or a ConcurrencyError when the lock is held elsewhere
	Acquire(ctx context.Context, kind string, id uuid.UUID) (release func(), err error)
}

// NoopOrderLocker never blocks
type NoopOrderLocker struct{}

// Acquire returns immediately
func (NoopOrderLocker) Acquire(context.Context, string, uuid.UUID) (func(), error) {
	return func() {}, nil
}

var _ OrderLocker = NoopOrderLocker{}
