package stock_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/stockengine/internal/application/stock"
	"github.com/erp/stockengine/internal/application/unitofwork"
	"github.com/erp/stockengine/internal/domain/audit"
	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/cache"
	"github.com/erp/stockengine/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RegisterMaterial(t *testing.T) {
	h := testutil.NewHarness(t)
	ctx := context.Background()
	vendor := h.Vendor(t, "Mills")

	t.Run("opening stock goes through the ledger", func(t *testing.T) {
		h.Events.Reset()
		resp, err := h.Stock.RegisterMaterial(ctx, stock.RegisterMaterialRequest{
			Kind:             "RAW_MATERIAL",
			ItemID:           "RM-1",
			Name:             "Cotton",
			ColourCode:       "RED",
			Unit:             "m",
			ReorderThreshold: decimal.NewFromInt(5),
			OpeningStock:     decimal.RequireFromString("12.3456"),
			VendorID:         vendor,
		}, testutil.TestActor())
		require.NoError(t, err)
		assert.True(t, testutil.Dec("12.346").Equal(resp.Balance))

		entries := h.Ledger(t, resp.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, inventory.ReferenceOpeningStock, entries[0].ReferenceKind)
		assert.True(t, testutil.Dec("12.346").Equal(entries[0].BalanceAfter))

		assert.Len(t, h.Events.OfType(inventory.EventTypeStockMoved), 1)
		assert.Len(t, h.Events.OfType(audit.EventTypeEntityChanged), 1)
	})

	t.Run("zero opening stock writes no entry", func(t *testing.T) {
		resp, err := h.Stock.RegisterMaterial(ctx, stock.RegisterMaterialRequest{
			Kind: "MRO", ItemID: "MRO-1", Name: "Needles", Unit: "pc", VendorID: vendor,
		}, testutil.TestActor())
		require.NoError(t, err)
		assert.True(t, resp.Balance.IsZero())
		assert.Empty(t, h.Ledger(t, resp.ID))
	})

	t.Run("negative opening stock", func(t *testing.T) {
		_, err := h.Stock.RegisterMaterial(ctx, stock.RegisterMaterialRequest{
			Kind: "RAW_MATERIAL", ItemID: "RM-9", Name: "X", Unit: "m", VendorID: vendor,
			OpeningStock: decimal.NewFromInt(-1),
		}, testutil.TestActor())
		testutil.RequireErrorCode(t, err, shared.CodeInvalidQuantity)
	})

	t.Run("mro cannot have additional vendors", func(t *testing.T) {
		other := h.Vendor(t, "Other")
		_, err := h.Stock.RegisterMaterial(ctx, stock.RegisterMaterialRequest{
			Kind: "MRO", ItemID: "MRO-2", Name: "Oil", Unit: "l", VendorID: vendor,
			AdditionalVendors: []uuid.UUID{other},
		}, testutil.TestActor())
		assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	})

	t.Run("raw material keeps additional vendors", func(t *testing.T) {
		other := h.Vendor(t, "Second mill")
		resp, err := h.Stock.RegisterMaterial(ctx, stock.RegisterMaterialRequest{
			Kind: "RAW_MATERIAL", ItemID: "RM-2", ColourCode: "BLU", Name: "Denim", Unit: "m", VendorID: vendor,
			AdditionalVendors: []uuid.UUID{other, vendor, other},
		}, testutil.TestActor())
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{other}, resp.AdditionalVendors)

		got, err := h.Stock.Get(ctx, resp.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{other}, got.AdditionalVendors)
	})
}

func TestService_AdjustStock(t *testing.T) {
	h := testutil.NewHarness(t)
	ctx := context.Background()
	cotton := h.RawMaterial(t, h.Vendor(t, "Mills"), "RM-1", "RED", "10")
	h.Events.Reset()

	resp, err := h.Stock.AdjustStock(ctx, stock.AdjustStockRequest{
		AccountID: cotton,
		Delta:     decimal.RequireFromString("-6"),
	}, testutil.TestActor())
	require.NoError(t, err)
	assert.True(t, testutil.Dec("4").Equal(resp.Balance))
	assert.True(t, resp.IsLowStock)
	assert.Len(t, h.Events.OfType(inventory.EventTypeStockBelowThreshold), 1)

	t.Run("staying low does not repeat the alert", func(t *testing.T) {
		h.Events.Reset()
		_, err := h.Stock.AdjustStock(ctx, stock.AdjustStockRequest{AccountID: cotton, Delta: decimal.NewFromInt(-1)}, testutil.TestActor())
		require.NoError(t, err)
		assert.Empty(t, h.Events.OfType(inventory.EventTypeStockBelowThreshold))
	})

	t.Run("balance never goes negative", func(t *testing.T) {
		_, err := h.Stock.AdjustStock(ctx, stock.AdjustStockRequest{AccountID: cotton, Delta: decimal.NewFromInt(-4)}, testutil.TestActor())
		require.Error(t, err)
		assert.Equal(t, shared.KindInsufficientStock, shared.KindOf(err))
		assert.True(t, testutil.Dec("3").Equal(h.Balance(t, cotton)))
	})

	t.Run("rounds below the third place to zero", func(t *testing.T) {
		_, err := h.Stock.AdjustStock(ctx, stock.AdjustStockRequest{AccountID: cotton, Delta: decimal.RequireFromString("0.0004")}, testutil.TestActor())
		testutil.RequireErrorCode(t, err, shared.CodeInvalidQuantity)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := h.Stock.AdjustStock(ctx, stock.AdjustStockRequest{AccountID: uuid.New(), Delta: decimal.NewFromInt(1)}, testutil.TestActor())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	entries := h.Ledger(t, cotton)
	require.Len(t, entries, 3)
	running := decimal.Zero
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Direction == inventory.DirectionOut {
			running = running.Sub(e.Quantity)
		} else {
			running = running.Add(e.Quantity)
		}
		assert.True(t, running.Equal(e.BalanceAfter), "entry %d balance_after", i)
	}
	assert.True(t, running.Equal(h.Balance(t, cotton)))
}

func TestService_ListLedger(t *testing.T) {
	h := testutil.NewHarness(t)
	ctx := context.Background()
	cotton := h.RawMaterial(t, h.Vendor(t, "Mills"), "RM-1", "RED", "10")
	_, err := h.Stock.AdjustStock(ctx, stock.AdjustStockRequest{AccountID: cotton, Delta: decimal.NewFromInt(2)}, testutil.TestActor())
	require.NoError(t, err)

	t.Run("by account", func(t *testing.T) {
		entries, total, err := h.Stock.ListLedger(ctx, stock.LedgerListFilter{AccountID: &cotton})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, entries, 2)
	})

	t.Run("by reference", func(t *testing.T) {
		entries, _, err := h.Stock.ListLedger(ctx, stock.LedgerListFilter{
			ReferenceKind: string(inventory.ReferenceManualAdjustment),
			ReferenceID:   &cotton,
		})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "IN", entries[0].Direction)
	})

	t.Run("by date range", func(t *testing.T) {
		today := time.Now().UTC().Truncate(24 * time.Hour)
		entries, _, err := h.Stock.ListLedger(ctx, stock.LedgerListFilter{From: &today, To: &today})
		require.NoError(t, err)
		assert.Len(t, entries, 2)

		yesterday := today.AddDate(0, 0, -1)
		entries, _, err = h.Stock.ListLedger(ctx, stock.LedgerListFilter{From: &yesterday, To: &yesterday})
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("requires a selector", func(t *testing.T) {
		_, _, err := h.Stock.ListLedger(ctx, stock.LedgerListFilter{})
		assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	})
}

func TestService_ListLowStock(t *testing.T) {
	h := testutil.NewHarness(t)
	vendor := h.Vendor(t, "Mills")
	atThreshold := h.RawMaterial(t, vendor, "RM-1", "A", "5")
	h.RawMaterial(t, vendor, "RM-2", "B", "5.001")

	accounts, total, err := h.Stock.ListLowStock(context.Background(), stock.AccountListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, accounts, 1)
	assert.Equal(t, atThreshold, accounts[0].ID)
}

func TestService_ConcurrentAdjustmentsNeverOverdraw(t *testing.T) {
	h := testutil.NewHarness(t)
	cotton := h.RawMaterial(t, h.Vendor(t, "Mills"), "RM-1", "RED", "5")

	const workers = 12
	var (
		wg       sync.WaitGroup
		accepted atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Stock.AdjustStock(context.Background(), stock.AdjustStockRequest{
				AccountID: cotton,
				Delta:     decimal.NewFromInt(-1),
			}, testutil.TestActor())
			if err == nil {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), accepted.Load())
	assert.True(t, h.Balance(t, cotton).IsZero())
	assert.Len(t, h.Ledger(t, cotton), 6)
}

func TestService_AdjustStockQueuesBehindHeldAccount(t *testing.T) {
	h := testutil.NewHarness(t)
	cotton := h.RawMaterial(t, h.Vendor(t, "Mills"), "RM-1", "RED", "5")
	locker := cache.NewInMemoryOrderLocker(2 * time.Second)
	h.Stock.SetLocker(locker)

	release, err := locker.Acquire(context.Background(), unitofwork.LockKindAccount, cotton)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := h.Stock.AdjustStock(context.Background(), stock.AdjustStockRequest{
			AccountID: cotton,
			Delta:     decimal.NewFromInt(-2),
		}, testutil.TestActor())
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("adjustment finished while the account was held: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	release()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("adjustment did not resume after release")
	}
	assert.True(t, testutil.Dec("3").Equal(h.Balance(t, cotton)))

}

func TestService_AdjustStockTimesOutOnHeldAccount(t *testing.T) {
	h := testutil.NewHarness(t)
	cotton := h.RawMaterial(t, h.Vendor(t, "Mills"), "RM-1", "RED", "5")
	locker := cache.NewInMemoryOrderLocker(30 * time.Millisecond)
	h.Stock.SetLocker(locker)

	release, err := locker.Acquire(context.Background(), unitofwork.LockKindAccount, cotton)
	require.NoError(t, err)
	defer release()

	_, err = h.Stock.AdjustStock(context.Background(), stock.AdjustStockRequest{
		AccountID: cotton,
		Delta:     decimal.NewFromInt(-1),
	}, testutil.TestActor())
	testutil.RequireErrorCode(t, err, shared.CodeConcurrencyConflict)
	assert.True(t, shared.IsRetryable(err))
	assert.True(t, testutil.Dec("5").Equal(h.Balance(t, cotton)))
}

func TestService_UpdateMaterial(t *testing.T) {
	h := testutil.NewHarness(t)
	ctx := context.Background()
	vendor := h.Vendor(t, "Mills")
	second := h.Vendor(t, "Second mill")
	third := h.Vendor(t, "Third mill")
	cotton := h.RawMaterial(t, vendor, "RM-1", "RED", "12")

	update := func(id uuid.UUID, req stock.UpdateMaterialRequest) (*stock.AccountResponse, error) {
		return h.Stock.UpdateMaterial(ctx, id, req, testutil.TestActor())
	}

	t.Run("re-derives code and replaces vendors", func(t *testing.T) {
		h.Events.Reset()
		resp, err := update(cotton, stock.UpdateMaterialRequest{
			ItemID: " rm-1 ", ColourCode: "crm", Name: "Cotton twill", Unit: "m",
			CostPerUnit: decimal.NewFromInt(4), ReorderThreshold: decimal.NewFromInt(20),
			VendorID: second, AdditionalVendors: []uuid.UUID{third, second},
		})
		require.NoError(t, err)
		assert.Equal(t, "RM-1-CRM", resp.Code)
		assert.Equal(t, "Cotton twill", resp.Name)
		assert.Equal(t, []uuid.UUID{third}, resp.AdditionalVendors)
		assert.True(t, testutil.Dec("12").Equal(resp.Balance))
		assert.True(t, resp.IsLowStock)

		got, err := h.Stock.Get(ctx, cotton)
		require.NoError(t, err)
		assert.Equal(t, second, *got.VendorID)
		assert.Equal(t, []uuid.UUID{third}, got.AdditionalVendors)

		assert.Len(t, h.Ledger(t, cotton), 1, "details update posts no ledger entry")
		assert.Empty(t, h.Events.OfType(inventory.EventTypeStockMoved))
		changes := h.Events.OfType(audit.EventTypeEntityChanged)
		require.Len(t, changes, 1)
		change := changes[0].(*audit.ChangeEvent)
		assert.Equal(t, audit.ActionUpdate, change.Action)
		assert.Contains(t, change.Changes, "code")
		assert.Contains(t, change.Changes, "additional_vendors")
		assert.NotContains(t, change.Changes, "current_stock")
	})

	t.Run("clearing additional vendors", func(t *testing.T) {
		resp, err := update(cotton, stock.UpdateMaterialRequest{
			ItemID: "RM-1", ColourCode: "CRM", Name: "Cotton twill", Unit: "m", VendorID: second,
		})
		require.NoError(t, err)
		assert.Empty(t, resp.AdditionalVendors)

		got, err := h.Stock.Get(ctx, cotton)
		require.NoError(t, err)
		assert.Empty(t, got.AdditionalVendors)
	})

	t.Run("variant taken by another material conflicts", func(t *testing.T) {
		h.RawMaterial(t, vendor, "RM-2", "BLU", "0")
		_, err := update(cotton, stock.UpdateMaterialRequest{
			ItemID: "RM-2", ColourCode: "BLU", Name: "Cotton", Unit: "m", VendorID: vendor,
		})
		testutil.RequireErrorCode(t, err, shared.CodeAlreadyExists)

		got, err := h.Stock.Get(ctx, cotton)
		require.NoError(t, err)
		assert.Equal(t, "RM-1-CRM", got.Code)
	})

	t.Run("vendor must be a supplier", func(t *testing.T) {
		buyer := h.Partner(t, "Boutique", "CUSTOMER")
		_, err := update(cotton, stock.UpdateMaterialRequest{
			ItemID: "RM-1", ColourCode: "CRM", Name: "Cotton", Unit: "m", VendorID: buyer,
		})
		assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	})

	t.Run("mro rejects additional vendors", func(t *testing.T) {
		mro, err := h.Stock.RegisterMaterial(ctx, stock.RegisterMaterialRequest{
			Kind: "MRO", ItemID: "MRO-1", Name: "Needles", Unit: "pc", VendorID: vendor,
		}, testutil.TestActor())
		require.NoError(t, err)

		_, err = update(mro.ID, stock.UpdateMaterialRequest{
			ItemID: "MRO-1", Name: "Needles", Unit: "pc", VendorID: vendor,
			AdditionalVendors: []uuid.UUID{second},
		})
		assert.Equal(t, shared.KindValidation, shared.KindOf(err))

		resp, err := update(mro.ID, stock.UpdateMaterialRequest{
			ItemID: "MRO-1", Name: "Sewing needles", Unit: "box", VendorID: second,
		})
		require.NoError(t, err)
		assert.Equal(t, "Sewing needles", resp.Name)
		assert.Equal(t, "MRO", resp.Kind)
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := update(uuid.New(), stock.UpdateMaterialRequest{
			ItemID: "RM-1", ColourCode: "CRM", Name: "Cotton", Unit: "m", VendorID: vendor,
		})
		assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
	})
}
