package unitofwork

import (
	"bytes"
	"context"
	"sort"

	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/google/uuid"
)

// PersistMovements saves every account touched by entries, in ascending id
// order, and appends the entries. Accounts that did not move are not written.
func PersistMovements(
	ctx context.Context,
	repos Repositories,
	accounts map[uuid.UUID]*inventory.MaterialAccount,
	entries []*inventory.LedgerEntry,
) error {
	if len(entries) == 0 {
		return nil
	}
	touched := make(map[uuid.UUID]bool, len(entries))
	for _, e := range entries {
		touched[e.AccountID] = true
	}
	for _, account := range SortedAccounts(accounts) {
		if !touched[account.ID] {
			continue
		}
		if err := repos.Accounts().Save(ctx, account); err != nil {
			return err
		}
	}
	return repos.Ledger().Append(ctx, entries...)
}

// SortedAccounts returns the accounts of m in ascending id order
func SortedAccounts(m map[uuid.UUID]*inventory.MaterialAccount) []*inventory.MaterialAccount {
	out := make([]*inventory.MaterialAccount, 0, len(m))
	for _, a := range m {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out
}

// CollectAccounts records the pending events of every account in id order
func (r *EventRecorder) CollectAccounts(accounts map[uuid.UUID]*inventory.MaterialAccount) {
	for _, a := range SortedAccounts(accounts) {
		r.Collect(a)
	}
}
