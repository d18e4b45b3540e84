package handler_test

import (
	"net/http"
	"testing"

	"github.com/erp/stockengine/internal/application/purchasing"
	"github.com/erp/stockengine/internal/interfaces/http/dto"
	"github.com/erp/stockengine/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseOrderHandler_CreateGroupsByVendor(t *testing.T) {
	h, api := newAPI(t)
	mills := h.Vendor(t, "Mills")
	zips := h.Vendor(t, "Zips")
	cotton := h.RawMaterial(t, mills, "RM-1", "RED", "0")
	lining := h.RawMaterial(t, mills, "RM-2", "RED", "0")
	zip := h.RawMaterial(t, zips, "RM-3", "BLK", "0")

	w := testutil.Do(t, api, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/v1/purchase-orders",
		Body: map[string]any{
			"lines": []map[string]any{
				{"account_id": cotton, "quantity": "10"},
				{"account_id": zip, "quantity": "50"},
				{"account_id": lining, "quantity": "4"},
			},
		},
		Headers: asOperator(),
	})
	orders := testutil.RequireSuccess[[]purchasing.OrderResponse](t, w, http.StatusCreated)
	require.Len(t, orders, 2)

	lines := map[uuid.UUID]int{}
	for _, o := range orders {
		assert.Equal(t, "OPEN", o.Status)
		assert.Equal(t, "Priya", o.CreatedByName)
		lines[o.VendorID] = len(o.Lines)
	}
	assert.Equal(t, map[uuid.UUID]int{mills: 2, zips: 1}, lines)
	assert.Negative(t, compareUUID(orders[0].VendorID, orders[1].VendorID))

	w = testutil.Do(t, api, testutil.Request{Path: "/api/v1/purchase-orders?vendor_id=" + zips.String()})
	env := testutil.Decode[[]purchasing.OrderResponse](t, w)
	require.Len(t, env.Data, 1)
	assert.Equal(t, zips, env.Data[0].VendorID)
}

func TestPurchaseOrderHandler_Receive(t *testing.T) {
	h, api := newAPI(t)
	cotton := h.RawMaterial(t, h.Vendor(t, "Mills"), "RM-1", "RED", "2")

	w := testutil.Do(t, api, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/v1/purchase-orders",
		Body:   map[string]any{"lines": []map[string]any{{"account_id": cotton, "quantity": "10"}}},
	})
	orders := testutil.RequireSuccess[[]purchasing.OrderResponse](t, w, http.StatusCreated)
	require.Len(t, orders, 1)
	order := orders[0]
	lineID := order.Lines[0].ID
	receive := "/api/v1/purchase-orders/" + order.ID.String() + "/receive"

	t.Run("more than pending is rejected", func(t *testing.T) {
		w := testutil.Do(t, api, testutil.Request{
			Method: http.MethodPost,
			Path:   receive,
			Body:   map[string]any{"lines": map[string]string{lineID.String(): "10.5"}},
		})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeInvalidQuantity)
	})

	w = testutil.Do(t, api, testutil.Request{
		Method: http.MethodPost,
		Path:   receive,
		Body:   map[string]any{"lines": map[string]string{lineID.String(): "3.5"}},
	})
	order = testutil.RequireSuccess[purchasing.OrderResponse](t, w, http.StatusOK)
	assert.Equal(t, "PARTIALLY_RECEIVED", order.Status)
	assert.True(t, testutil.Dec("6.5").Equal(order.TotalPending))
	assert.True(t, testutil.Dec("5.5").Equal(h.Balance(t, cotton)))

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodPost, Path: receive})
	order = testutil.RequireSuccess[purchasing.OrderResponse](t, w, http.StatusOK)
	assert.Equal(t, "RECEIVED", order.Status)
	assert.True(t, order.TotalPending.IsZero())
	assert.True(t, testutil.Dec("12").Equal(h.Balance(t, cotton)))

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodPost, Path: receive})
	testutil.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, dto.ErrCodeInvalidTransition)

	w = testutil.Do(t, api, testutil.Request{Path: "/api/v1/ledger?reference_kind=purchase_order&reference_id=" + order.ID.String()})
	entries := testutil.Decode[[]map[string]any](t, w)
	assert.Len(t, entries.Data, 2)
}

func TestPurchaseOrderHandler_CancelAndReopen(t *testing.T) {
	h, api := newAPI(t)
	cotton := h.RawMaterial(t, h.Vendor(t, "Mills"), "RM-1", "RED", "0")

	w := testutil.Do(t, api, testutil.Request{
		Method: http.MethodPost,
		Path:   "/api/v1/purchase-orders",
		Body:   map[string]any{"lines": []map[string]any{{"account_id": cotton, "quantity": "8"}}},
	})
	order := testutil.RequireSuccess[[]purchasing.OrderResponse](t, w, http.StatusCreated)[0]
	base := "/api/v1/purchase-orders/" + order.ID.String()

	w = testutil.Do(t, api, testutil.Request{
		Method: http.MethodPost,
		Path:   base + "/receive",
		Body:   map[string]any{"lines": map[string]string{order.Lines[0].ID.String(): "3"}},
	})
	testutil.RequireSuccess[purchasing.OrderResponse](t, w, http.StatusOK)

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodPost, Path: base + "/cancel", Headers: asOperator()})
	order = testutil.RequireSuccess[purchasing.OrderResponse](t, w, http.StatusOK)
	assert.Equal(t, "CANCELLED", order.Status)
	assert.Equal(t, "Priya", order.CancelledByName)
	assert.True(t, testutil.Dec("3").Equal(h.Balance(t, cotton)))

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodPost, Path: base + "/receive"})
	testutil.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, dto.ErrCodeInvalidTransition)

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodPost, Path: base + "/reopen"})
	order = testutil.RequireSuccess[purchasing.OrderResponse](t, w, http.StatusOK)
	assert.Equal(t, "PARTIALLY_RECEIVED", order.Status)
	assert.Empty(t, order.CancelledByName)

	w = testutil.Do(t, api, testutil.Request{Method: http.MethodPost, Path: base + "/reopen"})
	testutil.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, dto.ErrCodeInvalidTransition)
}

func TestPurchaseOrderHandler_Errors(t *testing.T) {
	h, api := newAPI(t)
	cotton := h.RawMaterial(t, h.Vendor(t, "Mills"), "RM-1", "RED", "0")

	tests := []struct {
		name   string
		req    testutil.Request
		status int
		code   string
	}{
		{
			name:   "no lines",
			req:    testutil.Request{Method: http.MethodPost, Path: "/api/v1/purchase-orders", Body: map[string]any{"lines": []any{}}},
			status: http.StatusBadRequest,
			code:   dto.ErrCodeValidation,
		},
		{
			name: "zero quantity",
			req: testutil.Request{Method: http.MethodPost, Path: "/api/v1/purchase-orders", Body: map[string]any{
				"lines": []map[string]any{{"account_id": cotton, "quantity": "0.0001"}},
			}},
			status: http.StatusBadRequest,
			code:   dto.ErrCodeInvalidQuantity,
		},
		{
			name: "unknown material",
			req: testutil.Request{Method: http.MethodPost, Path: "/api/v1/purchase-orders", Body: map[string]any{
				"lines": []map[string]any{{"account_id": uuid.New(), "quantity": "1"}},
			}},
			status: http.StatusNotFound,
			code:   dto.ErrCodeNotFound,
		},
		{
			name:   "malformed receive body",
			req:    testutil.Request{Method: http.MethodPost, Path: "/api/v1/purchase-orders/" + uuid.NewString() + "/receive", Body: "{"},
			status: http.StatusBadRequest,
			code:   dto.ErrCodeBadRequest,
		},
		{
			name:   "unknown order",
			req:    testutil.Request{Method: http.MethodPost, Path: "/api/v1/purchase-orders/" + uuid.NewString() + "/cancel"},
			status: http.StatusNotFound,
			code:   dto.ErrCodeNotFound,
		},
		{
			name:   "bad vendor filter",
			req:    testutil.Request{Path: "/api/v1/purchase-orders?vendor_id=mills"},
			status: http.StatusBadRequest,
			code:   dto.ErrCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertErrorResponse(t, testutil.Do(t, api, tt.req), tt.status, tt.code)
		})
	}
}

func compareUUID(a, b uuid.UUID) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
