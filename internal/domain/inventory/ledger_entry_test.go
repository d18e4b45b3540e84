package inventory

import (
	"testing"

	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirection_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		dir      Direction
		expected bool
	}{
		{"IN is valid", DirectionIn, true},
		{"OUT is valid", DirectionOut, true},
		{"ADJUST is valid", DirectionAdjust, true},
		{"empty is not valid", Direction(""), false},
		{"lower case is not valid", Direction("in"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.dir.IsValid())
		})
	}
}

func TestNewLedgerEntry_Validation(t *testing.T) {
	acc := newRawMaterial(t, "Canvas", "1")
	actor := shared.SystemActor()

	_, err := NewLedgerEntry(acc, DirectionIn, d("0"), d("1"), "r", ManualAdjustmentRef(), actor)
	assert.Error(t, err)

	_, err = NewLedgerEntry(acc, Direction("SIDEWAYS"), d("1"), d("1"), "r", ManualAdjustmentRef(), actor)
	assert.Error(t, err)

	_, err = NewLedgerEntry(acc, DirectionIn, d("1"), d("1"), "r", Reference{Kind: "sales_order"}, actor)
	assert.Error(t, err)

	_, err = NewLedgerEntry(nil, DirectionIn, d("1"), d("1"), "r", ManualAdjustmentRef(), actor)
	assert.Error(t, err)

	entry, err := NewLedgerEntry(acc, DirectionAdjust, d("1"), d("1"), "count", OpeningStockRef(acc.ID), actor)
	require.NoError(t, err)
	assert.True(t, entry.SignedQuantity().IsZero())
	assert.Nil(t, entry.ActorID)
	assert.Equal(t, "system", entry.ActorName)
}

func TestReferenceHelpers(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, ReferenceProductionOrder, ProductionOrderRef(id).Kind)
	assert.Equal(t, ReferencePurchaseOrder, PurchaseOrderRef(id).Kind)
	assert.Equal(t, ReferenceOpeningStock, OpeningStockRef(id).Kind)
	assert.Nil(t, ManualAdjustmentRef().ID)
}
