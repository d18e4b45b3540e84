package handler_test

import (
	"net/http"
	"testing"

	"github.com/erp/stockengine/internal/application/stock"
	"github.com/erp/stockengine/internal/interfaces/http/dto"
	"github.com/erp/stockengine/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterialHandler_Register(t *testing.T) {
	h, api := newAPI(t)
	vendor := h.Vendor(t, "Mills Ltd")

	t.Run("creates account with opening stock", func(t *testing.T) {
		w := testutil.Do(t, api, testutil.Request{
			Method: http.MethodPost,
			Path:   "/api/v1/materials",
			Body: map[string]any{
				"kind":              "RAW_MATERIAL",
				"item_id":           "RM-100",
				"name":              "Cotton",
				"colour":            "Red",
				"colour_code":       "R1",
				"unit":              "m",
				"reorder_threshold": "10",
				"opening_stock":     "25.5",
				"vendor_id":         vendor,
			},
			Headers: asOperator(),
		})

		account := testutil.RequireSuccess[stock.AccountResponse](t, w, http.StatusCreated)
		assert.Equal(t, "RAW_MATERIAL", account.Kind)
		assert.True(t, testutil.Dec("25.5").Equal(account.Balance))
		assert.False(t, account.IsLowStock)

		entries := h.Ledger(t, account.ID)
		require.Len(t, entries, 1)
		assert.Equal(t, "Priya", entries[0].ActorName)
	})

	t.Run("duplicate variant conflicts", func(t *testing.T) {
		w := testutil.Do(t, api, testutil.Request{
			Method: http.MethodPost,
			Path:   "/api/v1/materials",
			Body: map[string]any{
				"kind": "RAW_MATERIAL", "item_id": "RM-100", "colour_code": "R1",
				"name": "Cotton again", "unit": "m", "vendor_id": vendor,
			},
		})
		testutil.AssertErrorResponse(t, w, http.StatusConflict, dto.ErrCodeAlreadyExists)
	})

	t.Run("missing fields are reported per field", func(t *testing.T) {
		w := testutil.Do(t, api, testutil.Request{
			Method: http.MethodPost,
			Path:   "/api/v1/materials",
			Body:   map[string]any{"kind": "RAW_MATERIAL"},
		})
		info := testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
		var fields []string
		for _, f := range info.Fields {
			fields = append(fields, f.Field)
		}
		assert.Contains(t, fields, "name")
		assert.Contains(t, fields, "vendor_id")
	})

	t.Run("unknown vendor is not found", func(t *testing.T) {
		w := testutil.Do(t, api, testutil.Request{
			Method: http.MethodPost,
			Path:   "/api/v1/materials",
			Body: map[string]any{
				"kind": "MRO", "item_id": "MRO-1", "name": "Needle", "unit": "pc", "vendor_id": uuid.New(),
			},
		})
		testutil.AssertErrorResponse(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
	})
}

func TestMaterialHandler_GetByID(t *testing.T) {
	h, api := newAPI(t)
	cotton := h.RawMaterial(t, h.Vendor(t, "Mills"), "RM-1", "BLU", "3")

	w := testutil.Do(t, api, testutil.Request{Path: "/api/v1/materials/" + cotton.String()})
	account := testutil.RequireSuccess[stock.AccountResponse](t, w, http.StatusOK)
	assert.Equal(t, cotton, account.ID)
	assert.True(t, account.IsLowStock)

	w = testutil.Do(t, api, testutil.Request{Path: "/api/v1/materials/not-a-uuid"})
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)

	w = testutil.Do(t, api, testutil.Request{Path: "/api/v1/materials/" + uuid.NewString()})
	testutil.AssertErrorResponse(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
}

func TestMaterialHandler_Adjust(t *testing.T) {
	h, api := newAPI(t)
	cotton := h.RawMaterial(t, h.Vendor(t, "Mills"), "RM-1", "BLU", "10")
	path := "/api/v1/materials/" + cotton.String() + "/adjust"

	w := testutil.Do(t, api, testutil.Request{
		Method:  http.MethodPost,
		Path:    path,
		Body:    map[string]any{"delta": "-4.25", "reason": "damaged roll"},
		Headers: asOperator(),
	})
	account := testutil.RequireSuccess[stock.AccountResponse](t, w, http.StatusOK)
	assert.True(t, testutil.Dec("5.75").Equal(account.Balance))

	t.Run("cannot go negative", func(t *testing.T) {
		w := testutil.Do(t, api, testutil.Request{
			Method: http.MethodPost,
			Path:   path,
			Body:   map[string]any{"delta": "-6"},
		})
		info := testutil.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock)
		require.Len(t, info.Details, 1)
		assert.Contains(t, info.Details[0], "available 5.750")
		assert.True(t, testutil.Dec("5.75").Equal(h.Balance(t, cotton)))
	})

	t.Run("zero delta is rejected", func(t *testing.T) {
		w := testutil.Do(t, api, testutil.Request{
			Method: http.MethodPost,
			Path:   path,
			Body:   map[string]any{"delta": "0"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMaterialHandler_ListLowStock(t *testing.T) {
	h, api := newAPI(t)
	vendor := h.Vendor(t, "Mills")
	low := h.RawMaterial(t, vendor, "RM-1", "A", "2")
	h.RawMaterial(t, vendor, "RM-2", "B", "50")

	w := testutil.Do(t, api, testutil.Request{Path: "/api/v1/materials/low-stock"})
	env := testutil.Decode[[]stock.AccountResponse](t, w)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, env.Data, 1)
	assert.Equal(t, low, env.Data[0].ID)
	assert.Equal(t, int64(1), env.Meta.Total)

	w = testutil.Do(t, api, testutil.Request{Path: "/api/v1/materials?page_size=1"})
	env = testutil.Decode[[]stock.AccountResponse](t, w)
	assert.Len(t, env.Data, 1)
	assert.Equal(t, int64(2), env.Meta.Total)
	assert.Equal(t, 2, env.Meta.TotalPages)
}

func TestMaterialHandler_Ledger(t *testing.T) {
	h, api := newAPI(t)
	cotton := h.RawMaterial(t, h.Vendor(t, "Mills"), "RM-1", "A", "8")

	t.Run("by account", func(t *testing.T) {
		w := testutil.Do(t, api, testutil.Request{Path: "/api/v1/ledger?account_id=" + cotton.String()})
		entries := testutil.RequireSuccess[[]stock.LedgerEntryResponse](t, w, http.StatusOK)
		require.Len(t, entries, 1)
		assert.Equal(t, "opening_stock", entries[0].ReferenceKind)
		assert.Equal(t, "IN", entries[0].Direction)
	})

	t.Run("by date range includes the end date", func(t *testing.T) {
		today := entriesDay(t, h, cotton)
		w := testutil.Do(t, api, testutil.Request{Path: "/api/v1/ledger?from=" + today + "&to=" + today})
		entries := testutil.RequireSuccess[[]stock.LedgerEntryResponse](t, w, http.StatusOK)
		assert.Len(t, entries, 1)
	})

	t.Run("reference kind needs an id", func(t *testing.T) {
		w := testutil.Do(t, api, testutil.Request{Path: "/api/v1/ledger?reference_kind=purchase_order"})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})

	t.Run("a selector is required", func(t *testing.T) {
		w := testutil.Do(t, api, testutil.Request{Path: "/api/v1/ledger"})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})

	t.Run("malformed parameters", func(t *testing.T) {
		w := testutil.Do(t, api, testutil.Request{Path: "/api/v1/ledger?from=16/10/2026"})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)

		w = testutil.Do(t, api, testutil.Request{Path: "/api/v1/ledger?account_id=42"})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeBadRequest)
	})
}

func entriesDay(t *testing.T, h *testutil.Harness, accountID uuid.UUID) string {
	t.Helper()
	entries := h.Ledger(t, accountID)
	require.NotEmpty(t, entries)
	return entries[0].CreatedAt.UTC().Format("2006-01-02")
}

func TestMaterialHandler_Update(t *testing.T) {
	h, api := newAPI(t)
	vendor := h.Vendor(t, "Mills Ltd")
	other := h.Vendor(t, "Weavers")
	cotton := h.RawMaterial(t, vendor, "RM-100", "R1", "8")
	path := "/api/v1/materials/" + cotton.String()

	t.Run("updates details and keeps the balance", func(t *testing.T) {
		w := testutil.Do(t, api, testutil.Request{
			Method: http.MethodPut,
			Path:   path,
			Body: map[string]any{
				"item_id":               "RM-100",
				"colour_code":           "r2",
				"name":                  "Cotton poplin",
				"unit":                  "m",
				"vendor_id":             vendor,
				"additional_vendor_ids": []uuid.UUID{other},
			},
			Headers: asOperator(),
		})
		account := testutil.RequireSuccess[stock.AccountResponse](t, w, http.StatusOK)
		assert.Equal(t, "RM-100-R2", account.Code)
		assert.Equal(t, []uuid.UUID{other}, account.AdditionalVendors)
		assert.True(t, testutil.Dec("8").Equal(account.Balance))
		assert.Len(t, h.Ledger(t, cotton), 1)
	})

	t.Run("missing name is a validation error", func(t *testing.T) {
		w := testutil.Do(t, api, testutil.Request{
			Method: http.MethodPut,
			Path:   path,
			Body:   map[string]any{"item_id": "RM-100", "unit": "m", "vendor_id": vendor},
		})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})

	t.Run("unknown account", func(t *testing.T) {
		w := testutil.Do(t, api, testutil.Request{
			Method: http.MethodPut,
			Path:   "/api/v1/materials/" + uuid.NewString(),
			Body:   map[string]any{"item_id": "RM-1", "colour_code": "X", "name": "X", "unit": "m", "vendor_id": vendor},
		})
		testutil.AssertErrorResponse(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
	})
}
