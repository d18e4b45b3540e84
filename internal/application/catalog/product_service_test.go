package catalog_test

import (
	"context"
	"testing"

	"github.com/erp/stockengine/internal/application/catalog"
	"github.com/erp/stockengine/internal/application/stock"
	"github.com/erp/stockengine/internal/domain/audit"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductService_Create(t *testing.T) {
	h := testutil.NewHarness(t)
	ctx := context.Background()

	p, err := h.Products.Create(ctx, catalog.CreateProductRequest{SKU: " jkt-1 ", Name: "Jacket"}, testutil.TestActor())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.ID)

	_, err = h.Products.Create(ctx, catalog.CreateProductRequest{SKU: p.SKU, Name: "Again"}, testutil.TestActor())
	testutil.RequireErrorCode(t, err, shared.CodeAlreadyExists)

	_, err = h.Products.Create(ctx, catalog.CreateProductRequest{SKU: "X", Name: "  "}, testutil.TestActor())
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))

	changes := h.Events.OfType(audit.EventTypeEntityChanged)
	require.Len(t, changes, 1)
	assert.Equal(t, p.ID, changes[0].AggregateID())
}

func TestProductService_Update(t *testing.T) {
	h := testutil.NewHarness(t)
	ctx := context.Background()
	id := h.Product(t, "JKT-1", nil)

	p, err := h.Products.Update(ctx, id, catalog.UpdateProductRequest{Name: "Rain jacket"}, testutil.TestActor())
	require.NoError(t, err)
	assert.Equal(t, "Rain jacket", p.Name)

	_, err = h.Products.Update(ctx, uuid.New(), catalog.UpdateProductRequest{Name: "X"}, testutil.TestActor())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestProductService_ReplaceBOM(t *testing.T) {
	h := testutil.NewHarness(t)
	ctx := context.Background()
	vendor := h.Vendor(t, "Mills")
	cotton := h.RawMaterial(t, vendor, "RM-1", "RED", "0")
	product := h.Product(t, "JKT-1", nil)

	t.Run("quantities are rounded", func(t *testing.T) {
		bom, err := h.Products.ReplaceBOM(ctx, product, catalog.ReplaceBOMRequest{
			Lines: []catalog.BOMLineInput{{AccountID: cotton, QtyPerUnit: decimal.RequireFromString("1.2345")}},
		}, testutil.TestActor())
		require.NoError(t, err)
		require.Len(t, bom.Lines, 1)
		assert.True(t, testutil.Dec("1.234").Equal(bom.Lines[0].QtyPerUnit))
	})

	t.Run("only raw materials", func(t *testing.T) {
		mro, err := h.Stock.RegisterMaterial(ctx, stock.RegisterMaterialRequest{
			Kind: "MRO", ItemID: "MRO-1", Name: "Oil", Unit: "l", VendorID: vendor,
		}, testutil.TestActor())
		require.NoError(t, err)

		_, err = h.Products.ReplaceBOM(ctx, product, catalog.ReplaceBOMRequest{
			Lines: []catalog.BOMLineInput{{AccountID: mro.ID, QtyPerUnit: decimal.NewFromInt(1)}},
		}, testutil.TestActor())
		assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	})

	t.Run("positive quantities", func(t *testing.T) {
		_, err := h.Products.ReplaceBOM(ctx, product, catalog.ReplaceBOMRequest{
			Lines: []catalog.BOMLineInput{{AccountID: cotton, QtyPerUnit: decimal.Zero}},
		}, testutil.TestActor())
		require.Error(t, err)
		assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	})

	t.Run("failed replace keeps the old bom", func(t *testing.T) {
		_, err := h.Products.ReplaceBOM(ctx, product, catalog.ReplaceBOMRequest{
			Lines: []catalog.BOMLineInput{
				{AccountID: cotton, QtyPerUnit: decimal.NewFromInt(2)},
				{AccountID: uuid.New(), QtyPerUnit: decimal.NewFromInt(1)},
			},
		}, testutil.TestActor())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		bom, err := h.Products.GetBOM(ctx, product)
		require.NoError(t, err)
		require.Len(t, bom.Lines, 1)
		assert.True(t, testutil.Dec("1.234").Equal(bom.Lines[0].QtyPerUnit))
	})
}
