package production

import (
	"errors"
	"testing"

	"github.com/erp/stockengine/internal/domain/catalog"
	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	product  *catalog.Product
	accounts map[uuid.UUID]*inventory.MaterialAccount
	bom      []catalog.BOMLine
	ids      []uuid.UUID
}

// newFixture builds a product whose BOM line i needs perUnit[i] of material i,
// which holds balances[i].
func newFixture(t *testing.T, perUnit []string, balances []string) *fixture {
	t.Helper()
	product, err := catalog.NewProduct("BAG-01", "Tote bag")
	require.NoError(t, err)

	f := &fixture{product: product, accounts: map[uuid.UUID]*inventory.MaterialAccount{}}
	names := []string{"Canvas", "Thread", "Zipper", "Strap"}
	for i := range perUnit {
		acc, err := inventory.NewMaterialAccount(inventory.MaterialSpec{
			Kind:       inventory.AccountKindRawMaterial,
			ItemID:     names[i],
			Name:       names[i],
			ColourCode: "BLK",
			Unit:       "kg",
			VendorID:   uuid.New(),
		})
		require.NoError(t, err)
		acc.Balance = d(balances[i])
		acc.ClearDomainEvents()
		f.accounts[acc.ID] = acc
		f.ids = append(f.ids, acc.ID)
		f.bom = append(f.bom, catalog.BOMLine{
			ID:           uuid.New(),
			ProductID:    product.ID,
			AccountID:    acc.ID,
			MaterialName: acc.Name,
			Unit:         acc.Unit,
			QtyPerUnit:   d(perUnit[i]),
		})
	}
	return f
}

func (f *fixture) order(t *testing.T, qty string, mode CreationMode) *ProductionOrder {
	t.Helper()
	reqs, err := ResolveRequirements(f.product, f.bom, d(qty))
	require.NoError(t, err)
	o, err := NewProductionOrder("MO-2026-00001", f.product, d(qty), mode, "", reqs, shared.SystemActor())
	require.NoError(t, err)
	return o
}

func (f *fixture) balances() map[uuid.UUID]string {
	out := map[uuid.UUID]string{}
	for id, a := range f.accounts {
		out[id] = a.Balance.StringFixed(3)
	}
	return out
}

func TestResolveRequirements(t *testing.T) {
	f := newFixture(t, []string{"1.5", "0.25"}, []string{"0", "0"})

	reqs, err := ResolveRequirements(f.product, f.bom, d("4"))
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	for i := 1; i < len(reqs); i++ {
		assert.True(t, reqs[i-1].AccountID.String() < reqs[i].AccountID.String(), "requirements must be sorted by id")
	}
	total := reqs[0].Quantity.Add(reqs[1].Quantity)
	assert.True(t, total.Equal(d("7")))
}

func TestResolveRequirements_BankersRoundingBoundary(t *testing.T) {
	tests := []struct {
		perUnit, qty, want string
	}{
		{"0.125", "0.5", "0.062"},  // 0.0625 -> even
		{"0.125", "1.5", "0.188"},  // 0.1875 -> even
		{"0.005", "0.5", "0.002"},  // 0.0025 -> even
		{"0.015", "0.5", "0.008"},  // 0.0075 -> even
		{"0.333", "3", "0.999"},
	}
	for _, tt := range tests {
		t.Run(tt.perUnit+"x"+tt.qty, func(t *testing.T) {
			f := newFixture(t, []string{tt.perUnit}, []string{"0"})
			reqs, err := ResolveRequirements(f.product, f.bom, d(tt.qty))
			require.NoError(t, err)
			assert.Equal(t, tt.want, reqs[0].Quantity.StringFixed(3))
		})
	}
}

func TestResolveRequirements_Errors(t *testing.T) {
	f := newFixture(t, []string{"1"}, []string{"0"})

	_, err := ResolveRequirements(f.product, nil, d("1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoBillOfMaterials))
	assert.Equal(t, "No BOM defined for selected product.", err.Error())
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))

	_, err = ResolveRequirements(f.product, f.bom, d("0"))
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))

	other, _ := catalog.NewProduct("OTHER", "Other")
	_, err = ResolveRequirements(other, f.bom, d("1"))
	assert.Error(t, err)
}

func TestCreateImmediate_DeductsEveryLine(t *testing.T) {
	f := newFixture(t, []string{"2", "0.5"}, []string{"10", "10"})
	o := f.order(t, "3", CreationModeImmediate)

	assert.Equal(t, OrderStatusPlanned, o.Status)
	assert.True(t, o.RawMaterialReleased)
	assert.True(t, o.PlannedQty.Equal(d("3")))

	entries, err := o.ConsumeOnCreate(f.accounts, shared.SystemActor())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, inventory.DirectionOut, e.Direction)
		assert.Equal(t, inventory.ReferenceProductionOrder, e.ReferenceKind)
		assert.Equal(t, o.ID, *e.ReferenceID)
		assert.Equal(t, "Consumed by production order #MO-2026-00001", e.Reason)
	}
	got := map[string]bool{}
	for _, a := range f.accounts {
		got[a.Balance.StringFixed(3)] = true
	}
	assert.Equal(t, map[string]bool{"4.000": true, "8.500": true}, got)

	_, err = o.ConsumeOnCreate(f.accounts, shared.SystemActor())
	assert.Error(t, err, "creation consumption happens once")
}

func TestCreateImmediate_ShortageEnumeration(t *testing.T) {
	f := newFixture(t, []string{"1", "1", "1"}, []string{"10", "1", "2"})
	before := f.balances()
	o := f.order(t, "5", CreationModeImmediate)

	_, err := o.ConsumeOnCreate(f.accounts, shared.SystemActor())
	require.Error(t, err)

	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, shared.CodeInsufficientStock, de.Code)
	assert.Len(t, de.Details, 2)
	assert.Contains(t, de.Message, "Insufficient stock. ")
	assert.Contains(t, de.Message, "Thread: required 5.000 kg, available 1.000")
	assert.Contains(t, de.Message, "Zipper: required 5.000 kg, available 2.000")
	assert.Equal(t, before, f.balances())
}

func TestRMRequest_GatingAndRelease(t *testing.T) {
	f := newFixture(t, []string{"2"}, []string{"10"})
	o := f.order(t, "3", CreationModeRMRequest)

	assert.Equal(t, OrderStatusAwaitingRMRelease, o.Status)
	assert.False(t, o.RawMaterialReleased)
	assert.Equal(t, "10.000", f.accounts[f.ids[0]].Balance.StringFixed(3))

	err := o.AdvanceTo(OrderStatusInProgress, shared.SystemActor())
	require.Error(t, err)
	assert.Equal(t, shared.KindInvalidTransition, shared.KindOf(err))

	entries, err := o.Release(f.accounts, shared.SystemActor())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Released for production order #MO-2026-00001", entries[0].Reason)
	assert.Equal(t, "4.000", f.accounts[f.ids[0]].Balance.StringFixed(3))
	assert.Equal(t, OrderStatusPlanned, o.Status)
	assert.True(t, o.RawMaterialReleased)
	assert.NotNil(t, o.ReleasedAt)

	_, err = o.Release(f.accounts, shared.SystemActor())
	assert.Equal(t, shared.KindInvalidTransition, shared.KindOf(err))
}

func TestRelease_UsesSnapshotNotCurrentBOM(t *testing.T) {
	f := newFixture(t, []string{"2"}, []string{"10"})
	o := f.order(t, "3", CreationModeRMRequest)

	f.bom[0].QtyPerUnit = d("100")

	_, err := o.Release(f.accounts, shared.SystemActor())
	require.NoError(t, err)
	assert.Equal(t, "4.000", f.accounts[f.ids[0]].Balance.StringFixed(3))
}

func TestRelease_ShortageLeavesOrderAwaiting(t *testing.T) {
	f := newFixture(t, []string{"2"}, []string{"5"})
	o := f.order(t, "3", CreationModeRMRequest)

	_, err := o.Release(f.accounts, shared.SystemActor())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Insufficient stock for release. Canvas: required 6.000 kg, available 5.000")
	assert.Equal(t, OrderStatusAwaitingRMRelease, o.Status)
	assert.False(t, o.RawMaterialReleased)
	assert.Equal(t, "5.000", f.accounts[f.ids[0]].Balance.StringFixed(3))
}

func TestReject(t *testing.T) {
	f := newFixture(t, []string{"2"}, []string{"10"})
	o := f.order(t, "3", CreationModeRMRequest)

	require.NoError(t, o.Reject(shared.SystemActor()))
	assert.Equal(t, OrderStatusCancelled, o.Status)
	assert.NotNil(t, o.CancelledAt)
	assert.Equal(t, "10.000", f.accounts[f.ids[0]].Balance.StringFixed(3))

	immediate := f.order(t, "1", CreationModeImmediate)
	assert.Error(t, immediate.Reject(shared.SystemActor()))
}

func TestCancel_ReversesReleasedConsumption(t *testing.T) {
	f := newFixture(t, []string{"1.5", "0.333"}, []string{"10", "5"})
	before := f.balances()
	o := f.order(t, "3", CreationModeImmediate)

	out, err := o.ConsumeOnCreate(f.accounts, shared.SystemActor())
	require.NoError(t, err)

	in, err := o.Cancel(f.accounts, shared.SystemActor())
	require.NoError(t, err)
	require.Len(t, in, len(out))

	net := decimal.Zero
	for _, e := range append(out, in...) {
		net = net.Add(e.SignedQuantity())
	}
	assert.True(t, net.IsZero())
	for _, e := range in {
		assert.Equal(t, inventory.DirectionIn, e.Direction)
		assert.Equal(t, "Reverted by cancelling production order #MO-2026-00001", e.Reason)
	}
	assert.Equal(t, before, f.balances())
	assert.Equal(t, OrderStatusCancelled, o.Status)

	_, err = o.Cancel(f.accounts, shared.SystemActor())
	assert.Equal(t, shared.KindInvalidTransition, shared.KindOf(err))
}

func TestCancel_UnreleasedMovesNothing(t *testing.T) {
	f := newFixture(t, []string{"1"}, []string{"10"})
	o := f.order(t, "3", CreationModeRMRequest)

	entries, err := o.Cancel(f.accounts, shared.SystemActor())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, OrderStatusCancelled, o.Status)
}

func TestAdvanceTo(t *testing.T) {
	f := newFixture(t, []string{"1"}, []string{"10"})
	actor := shared.SystemActor()

	o := f.order(t, "1", CreationModeImmediate)
	require.NoError(t, o.AdvanceTo(OrderStatusInProgress, actor))
	assert.Equal(t, OrderStatusInProgress, o.Status)
	require.NoError(t, o.AdvanceTo(OrderStatusPlanned, actor))
	assert.Equal(t, OrderStatusPlanned, o.Status)

	err := o.AdvanceTo(OrderStatusAwaitingRMRelease, actor)
	require.Error(t, err)
	assert.Equal(t, "Awaiting RM Release is system managed and cannot be set manually.", err.Error())

	err = o.AdvanceTo(OrderStatusCancelled, actor)
	assert.Equal(t, "Use Cancel / Reject action to cancel an order.", err.Error())

	o.Status = OrderStatusCompleted
	err = o.AdvanceTo(OrderStatusPlanned, actor)
	assert.Equal(t, "Completed production order cannot be updated.", err.Error())

	o.Status = OrderStatusCancelled
	err = o.AdvanceTo(OrderStatusPlanned, actor)
	assert.Equal(t, "Cancelled production order cannot be updated.", err.Error())
}

func TestComplete(t *testing.T) {
	f := newFixture(t, []string{"1"}, []string{"10"})
	o := f.order(t, "5", CreationModeImmediate)
	actor := shared.NewActor(uuid.New(), "bob")

	fg, err := inventory.NewFinishedGoodsAccount(f.product.ID, f.product.SKU, f.product.Name)
	require.NoError(t, err)

	_, err = o.Complete(d("0"), d("0"), fg, actor)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	_, err = o.Complete(d("1"), d("-1"), fg, actor)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))

	entry, err := o.Complete(d("4.5"), d("0.5"), fg, actor)
	require.NoError(t, err)
	assert.Equal(t, inventory.DirectionIn, entry.Direction)
	assert.Equal(t, "Completed production order #MO-2026-00001", entry.Reason)
	assert.Equal(t, "4.500", fg.Balance.StringFixed(3))
	assert.Equal(t, OrderStatusCompleted, o.Status)
	assert.Equal(t, "-0.500", o.Variance().StringFixed(3))
	assert.Equal(t, actor.ID, *o.CompletedByID)

	_, err = o.Complete(d("1"), d("0"), fg, actor)
	assert.Equal(t, shared.KindInvalidTransition, shared.KindOf(err))
}

func TestComplete_RequiresReleasedMaterials(t *testing.T) {
	f := newFixture(t, []string{"1"}, []string{"10"})
	o := f.order(t, "2", CreationModeRMRequest)
	fg, err := inventory.NewFinishedGoodsAccount(f.product.ID, f.product.SKU, f.product.Name)
	require.NoError(t, err)

	_, err = o.Complete(d("2"), d("0"), fg, shared.SystemActor())
	assert.Equal(t, shared.KindInvalidTransition, shared.KindOf(err))
	assert.Equal(t, OrderStatusAwaitingRMRelease, o.Status)
	assert.True(t, fg.Balance.IsZero())

	_, err = o.Release(f.accounts, shared.SystemActor())
	require.NoError(t, err)
	_, err = o.Complete(d("2"), d("0"), fg, shared.SystemActor())
	require.NoError(t, err)
	assert.Equal(t, "2.000", fg.Balance.StringFixed(3))
	assert.Equal(t, "8.000", f.balances()[f.ids[0]])
}

func TestComplete_RejectsForeignFinishedAccount(t *testing.T) {
	f := newFixture(t, []string{"1"}, []string{"10"})
	o := f.order(t, "1", CreationModeImmediate)
	fg, err := inventory.NewFinishedGoodsAccount(uuid.New(), "X", "X")
	require.NoError(t, err)

	_, err = o.Complete(d("1"), d("0"), fg, shared.SystemActor())
	assert.Error(t, err)
	assert.True(t, fg.Balance.IsZero())
}

func TestTransitionEvents(t *testing.T) {
	f := newFixture(t, []string{"1"}, []string{"10"})
	o := f.order(t, "1", CreationModeRMRequest)
	_, err := o.Release(f.accounts, shared.SystemActor())
	require.NoError(t, err)

	events := o.GetDomainEvents()
	require.Len(t, events, 2)
	first := events[0].(*OrderStatusChangedEvent)
	second := events[1].(*OrderStatusChangedEvent)
	assert.Equal(t, OrderStatus(""), first.From)
	assert.Equal(t, OrderStatusAwaitingRMRelease, first.To)
	assert.Equal(t, OrderStatusAwaitingRMRelease, second.From)
	assert.Equal(t, OrderStatusPlanned, second.To)
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("in_progress")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusInProgress, s)

	_, err = ParseOrderStatus("done")
	assert.Error(t, err)
}
