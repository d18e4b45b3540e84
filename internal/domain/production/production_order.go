package production

import (
	"strings"
	"time"

	"github.com/erp/stockengine/internal/domain/audit"
	"github.com/erp/stockengine/internal/domain/catalog"
	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeProductionOrder is the aggregate type for production orders
const AggregateTypeProductionOrder = "ProductionOrder"

// ConsumptionLine snapshots the material requirement of an order at creation.
// RequiredQty never changes afterwards, so cancellation reverses exactly what
// was taken even if the BOM is edited in between.
type ConsumptionLine struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	AccountID    uuid.UUID
	MaterialName string
	Unit         string
	RequiredQty  decimal.Decimal
}

// ProductionOrder turns a requested quantity of a product into consumed raw
// materials and, on completion, finished goods stock.
type ProductionOrder struct {
	shared.BaseAggregateRoot
	OrderNumber         string
	ProductID           uuid.UUID
	ProductName         string
	Quantity            decimal.Decimal
	PlannedQty          decimal.Decimal
	ProducedQty         decimal.Decimal
	ScrapQty            decimal.Decimal
	RawMaterialReleased bool
	Status              OrderStatus
	Notes               string

	CreatedByID     *uuid.UUID
	CreatedByName   string
	ReleasedByID    *uuid.UUID
	ReleasedByName  string
	ReleasedAt      *time.Time
	CompletedByID   *uuid.UUID
	CompletedByName string
	CompletedAt     *time.Time
	CancelledByID   *uuid.UUID
	CancelledByName string
	CancelledAt     *time.Time

	Lines []ConsumptionLine
}

// NewProductionOrder creates an order with its consumption snapshot.
// In immediate mode the order starts PLANNED and released and the caller must
// follow up with ConsumeOnCreate in the same unit of work. In rm_request mode
// it starts AWAITING_RM_RELEASE and no stock moves.
func NewProductionOrder(
	orderNumber string,
	product *catalog.Product,
	quantity decimal.Decimal,
	mode CreationMode,
	notes string,
	requirements []Requirement,
	actor shared.Actor,
) (*ProductionOrder, error) {
	if product == nil {
		return nil, shared.NewNotFoundError("Product")
	}
	if !mode.IsValid() {
		return nil, shared.NewValidationError("Invalid production order mode.")
	}
	quantity = inventory.RoundQuantity(quantity)
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Quantity must be greater than zero.")
	}
	if len(requirements) == 0 {
		return nil, shared.NewDomainError(ErrNoBillOfMaterials.Code, ErrNoBillOfMaterials.Message)
	}
	notes = strings.TrimSpace(notes)
	if len(notes) > 255 {
		return nil, shared.NewValidationError("Notes cannot exceed 255 characters.")
	}

	order := &ProductionOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		ProductID:         product.ID,
		ProductName:       product.Name,
		Quantity:          quantity,
		PlannedQty:        quantity,
		ProducedQty:       decimal.Zero,
		ScrapQty:          decimal.Zero,
		Notes:             notes,
		CreatedByID:       actor.IDPtr(),
		CreatedByName:     actor.Label(),
	}

	switch mode {
	case CreationModeImmediate:
		order.Status = OrderStatusPlanned
		order.RawMaterialReleased = true
	case CreationModeRMRequest:
		order.Status = OrderStatusAwaitingRMRelease
		order.RawMaterialReleased = false
	}

	order.Lines = make([]ConsumptionLine, len(requirements))
	for i, r := range requirements {
		order.Lines[i] = ConsumptionLine{
			ID:           uuid.New(),
			OrderID:      order.ID,
			AccountID:    r.AccountID,
			MaterialName: r.MaterialName,
			Unit:         r.Unit,
			RequiredQty:  r.Quantity,
		}
	}

	order.AddDomainEvent(NewOrderStatusChangedEvent(order, "", order.Status, actor))
	return order, nil
}

// Reference returns the ledger reference of this order
func (o *ProductionOrder) Reference() inventory.Reference {
	return inventory.ProductionOrderRef(o.ID)
}

// Label renders "#<order number>" for ledger reasons
func (o *ProductionOrder) Label() string {
	if o.OrderNumber != "" {
		return "#" + o.OrderNumber
	}
	return "#" + o.ID.String()
}

// AccountIDs returns the material accounts of the consumption lines
func (o *ProductionOrder) AccountIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(o.Lines))
	for i, l := range o.Lines {
		ids[i] = l.AccountID
	}
	return ids
}

// Variance is produced minus planned quantity
func (o *ProductionOrder) Variance() decimal.Decimal {
	return o.ProducedQty.Sub(o.PlannedQty)
}

// ConsumeOnCreate deducts every consumption line of an order created in
// immediate mode. accounts must be locked.
func (o *ProductionOrder) ConsumeOnCreate(accounts map[uuid.UUID]*inventory.MaterialAccount, actor shared.Actor) ([]*inventory.LedgerEntry, error) {
	if o.Status != OrderStatusPlanned || !o.RawMaterialReleased || o.Version != 1 {
		return nil, shared.NewInvalidTransitionError("Materials can only be consumed when the order is created.")
	}
	return o.deduct(accounts, actor, "Insufficient stock.", "Consumed by production order "+o.Label())
}

// CanRelease reports whether raw materials can be released or rejected
func (o *ProductionOrder) CanRelease() error {
	if o.Status != OrderStatusAwaitingRMRelease {
		return shared.NewInvalidTransitionError("This production order is not awaiting raw material release.")
	}
	if o.RawMaterialReleased {
		return shared.NewInvalidTransitionError("Raw materials are already released for this production order.")
	}
	return nil
}

// Release deducts the stored consumption lines and moves the order to PLANNED.
// Stock is checked against the snapshot, not a fresh BOM.
func (o *ProductionOrder) Release(accounts map[uuid.UUID]*inventory.MaterialAccount, actor shared.Actor) ([]*inventory.LedgerEntry, error) {
	if err := o.CanRelease(); err != nil {
		return nil, err
	}
	if len(o.Lines) == 0 {
		return nil, shared.NewValidationError("No raw material requirements found for this production order.")
	}

	entries, err := o.deduct(accounts, actor, "Insufficient stock for release.", "Released for production order "+o.Label())
	if err != nil {
		return nil, err
	}

	now := time.Now()
	o.RawMaterialReleased = true
	o.ReleasedByID = actor.IDPtr()
	o.ReleasedByName = actor.Label()
	o.ReleasedAt = &now
	o.transition(OrderStatusPlanned, actor)
	return entries, nil
}

// Reject cancels a request that was never released. No stock moves.
func (o *ProductionOrder) Reject(actor shared.Actor) error {
	if err := o.CanRelease(); err != nil {
		return err
	}
	o.stampCancelled(actor)
	o.transition(OrderStatusCancelled, actor)
	return nil
}

// AdvanceTo moves a released order between PLANNED and IN_PROGRESS.
// COMPLETED and CANCELLED have their own operations.
func (o *ProductionOrder) AdvanceTo(target OrderStatus, actor shared.Actor) error {
	if !target.IsValid() {
		return shared.NewValidationError("Invalid production order status: " + string(target))
	}
	switch o.Status {
	case OrderStatusCompleted:
		return shared.NewInvalidTransitionError("Completed production order cannot be updated.")
	case OrderStatusCancelled:
		return shared.NewInvalidTransitionError("Cancelled production order cannot be updated.")
	}
	switch target {
	case OrderStatusAwaitingRMRelease:
		return shared.NewInvalidTransitionError("Awaiting RM Release is system managed and cannot be set manually.")
	case OrderStatusCancelled:
		return shared.NewInvalidTransitionError("Use Cancel / Reject action to cancel an order.")
	case OrderStatusCompleted:
		return shared.NewInvalidTransitionError("Use Complete action to complete an order.")
	}
	if !o.RawMaterialReleased {
		return shared.NewInvalidTransitionError("Raw materials must be released before moving to " + target.Label() + ".")
	}
	if o.Status == target {
		return nil
	}
	o.transition(target, actor)
	return nil
}

// Complete credits finished goods with the produced quantity and closes the
// order. finished must be the locked FINISHED_GOOD account of the product.
func (o *ProductionOrder) Complete(
	producedQty, scrapQty decimal.Decimal,
	finished *inventory.MaterialAccount,
	actor shared.Actor,
) (*inventory.LedgerEntry, error) {
	produced := inventory.RoundQuantity(producedQty)
	scrap := inventory.RoundQuantity(scrapQty)
	if !produced.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Produced quantity must be greater than zero.")
	}
	if scrap.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Scrap quantity cannot be negative.")
	}
	switch o.Status {
	case OrderStatusCancelled:
		return nil, shared.NewInvalidTransitionError("Cancelled production order cannot be completed.")
	case OrderStatusCompleted:
		return nil, shared.NewInvalidTransitionError("Production order is already completed.")
	}
	if o.Status == OrderStatusAwaitingRMRelease || !o.RawMaterialReleased {
		return nil, shared.NewInvalidTransitionError("Raw materials must be released before completing the order.")
	}
	if finished == nil || finished.Kind != inventory.AccountKindFinishedGood ||
		finished.ProductID == nil || *finished.ProductID != o.ProductID {
		return nil, shared.NewValidationError("Finished goods account does not belong to this product.")
	}

	entry, err := finished.Post(produced, "Completed production order "+o.Label(), o.Reference(), actor)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	o.ProducedQty = produced
	o.ScrapQty = scrap
	o.CompletedByID = actor.IDPtr()
	o.CompletedByName = actor.Label()
	o.CompletedAt = &now
	o.transition(OrderStatusCompleted, actor)
	return entry, nil
}

// Cancel closes the order. Released materials are credited back line by line.
func (o *ProductionOrder) Cancel(accounts map[uuid.UUID]*inventory.MaterialAccount, actor shared.Actor) ([]*inventory.LedgerEntry, error) {
	switch o.Status {
	case OrderStatusCancelled:
		return nil, shared.NewInvalidTransitionError("Production order is already cancelled.")
	case OrderStatusCompleted:
		return nil, shared.NewInvalidTransitionError("Completed production order cannot be cancelled.")
	}

	var entries []*inventory.LedgerEntry
	if o.RawMaterialReleased {
		reason := "Reverted by cancelling production order " + o.Label()
		for _, line := range o.Lines {
			account, ok := accounts[line.AccountID]
			if !ok {
				return nil, shared.NewNotFoundError("Material " + line.MaterialName)
			}
			entry, err := account.Post(line.RequiredQty, reason, o.Reference(), actor)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
	}

	o.stampCancelled(actor)
	o.transition(OrderStatusCancelled, actor)
	return entries, nil
}

// NeedsReversal reports whether cancelling will credit materials back
func (o *ProductionOrder) NeedsReversal() bool {
	return o.RawMaterialReleased && !o.Status.IsTerminal()
}

// AuditSnapshot returns the audited fields of the order
func (o *ProductionOrder) AuditSnapshot() audit.Fields {
	return audit.Fields{
		"order_number":          o.OrderNumber,
		"product_id":            o.ProductID.String(),
		"quantity":              o.Quantity.StringFixed(inventory.QuantityScale),
		"planned_qty":           o.PlannedQty.StringFixed(inventory.QuantityScale),
		"produced_qty":          o.ProducedQty.StringFixed(inventory.QuantityScale),
		"scrap_qty":             o.ScrapQty.StringFixed(inventory.QuantityScale),
		"raw_material_released": boolString(o.RawMaterialReleased),
		"status":                string(o.Status),
		"notes":                 o.Notes,
	}
}

func (o *ProductionOrder) deduct(
	accounts map[uuid.UUID]*inventory.MaterialAccount,
	actor shared.Actor,
	shortagePrefix, reason string,
) ([]*inventory.LedgerEntry, error) {
	demands := make([]inventory.Demand, len(o.Lines))
	for i, l := range o.Lines {
		demands[i] = inventory.Demand{AccountID: l.AccountID, Quantity: l.RequiredQty}
	}
	shortages, err := inventory.FindShortages(accounts, demands)
	if err != nil {
		return nil, err
	}
	if len(shortages) > 0 {
		return nil, inventory.NewInsufficientStockError(shortagePrefix, shortages)
	}

	entries := make([]*inventory.LedgerEntry, 0, len(o.Lines))
	for _, l := range o.Lines {
		entry, err := accounts[l.AccountID].Post(l.RequiredQty.Neg(), reason, o.Reference(), actor)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (o *ProductionOrder) stampCancelled(actor shared.Actor) {
	now := time.Now()
	o.CancelledByID = actor.IDPtr()
	o.CancelledByName = actor.Label()
	o.CancelledAt = &now
}

func (o *ProductionOrder) transition(to OrderStatus, actor shared.Actor) {
	from := o.Status
	o.Status = to
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, to, actor))
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
