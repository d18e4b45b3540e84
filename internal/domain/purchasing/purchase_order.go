package purchasing

import (
	"bytes"
	"sort"
	"strings"
	"time"

	"github.com/erp/stockengine/internal/domain/audit"
	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/erp/stockengine/internal/domain/partner"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypePurchaseOrder is the aggregate type for purchase orders
const AggregateTypePurchaseOrder = "PurchaseOrder"

// PurchaseOrderLine is one material ordered from the vendor
type PurchaseOrderLine struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	AccountID    uuid.UUID
	MaterialName string
	Unit         string
	OrderedQty   decimal.Decimal
	ReceivedQty  decimal.Decimal
}

// Pending returns ordered minus received, floored at zero
func (l *PurchaseOrderLine) Pending() decimal.Decimal {
	pending := l.OrderedQty.Sub(l.ReceivedQty)
	if pending.IsPositive() {
		return pending
	}
	return decimal.Zero
}

// IsFullyReceived returns true when nothing is pending
func (l *PurchaseOrderLine) IsFullyReceived() bool {
	return l.ReceivedQty.GreaterThanOrEqual(l.OrderedQty)
}

// PurchaseOrder is an order placed with one vendor
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber string
	VendorID    uuid.UUID
	VendorName  string
	OrderDate   time.Time
	Status      OrderStatus
	Notes       string

	CreatedByID     *uuid.UUID
	CreatedByName   string
	ReceivedByID    *uuid.UUID
	ReceivedByName  string
	ReceivedAt      *time.Time
	CancelledByID   *uuid.UUID
	CancelledByName string
	CancelledAt     *time.Time

	Lines []PurchaseOrderLine
}

// NewPurchaseOrder creates an empty OPEN order for a supplier-capable vendor
func NewPurchaseOrder(orderNumber string, vendor *partner.Partner, orderDate time.Time, notes string, actor shared.Actor) (*PurchaseOrder, error) {
	if vendor == nil {
		return nil, shared.NewNotFoundError("Vendor")
	}
	if err := vendor.EnsureSupplier(); err != nil {
		return nil, err
	}
	if orderDate.IsZero() {
		return nil, shared.NewValidationError("Order date is required.")
	}
	notes = strings.TrimSpace(notes)
	if len(notes) > 255 {
		return nil, shared.NewValidationError("Notes cannot exceed 255 characters.")
	}

	return &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		VendorID:          vendor.ID,
		VendorName:        vendor.Name,
		OrderDate:         orderDate,
		Status:            OrderStatusOpen,
		Notes:             notes,
		CreatedByID:       actor.IDPtr(),
		CreatedByName:     actor.Label(),
	}, nil
}

// AddLine appends a line for account. Only allowed before anything is received.
func (o *PurchaseOrder) AddLine(account *inventory.MaterialAccount, quantity decimal.Decimal) error {
	if o.Status != OrderStatusOpen || o.hasReceipts() {
		return shared.NewInvalidTransitionError("Lines can only be added to an open purchase order.")
	}
	if account == nil {
		return shared.NewNotFoundError("Material")
	}
	if !account.Kind.IsPurchasable() {
		return shared.NewValidationError("Finished goods cannot be purchased: " + account.Name + ".")
	}
	quantity = inventory.RoundQuantity(quantity)
	if !quantity.IsPositive() {
		return shared.NewDomainError(shared.CodeInvalidQuantity, "Quantity must be greater than zero.")
	}
	o.Lines = append(o.Lines, PurchaseOrderLine{
		ID:           uuid.New(),
		OrderID:      o.ID,
		AccountID:    account.ID,
		MaterialName: account.Name,
		Unit:         account.Unit,
		OrderedQty:   quantity,
		ReceivedQty:  decimal.Zero,
	})
	return nil
}

// MarkCreated records the creation event once all lines are added
func (o *PurchaseOrder) MarkCreated(actor shared.Actor) error {
	if len(o.Lines) == 0 {
		return shared.NewValidationError("Add at least one raw material line item.")
	}
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, "", o.Status, actor))
	return nil
}

// Reference returns the ledger reference of this order
func (o *PurchaseOrder) Reference() inventory.Reference {
	return inventory.PurchaseOrderRef(o.ID)
}

// Label renders "#<order number>" for ledger reasons
func (o *PurchaseOrder) Label() string {
	if o.OrderNumber != "" {
		return "#" + o.OrderNumber
	}
	return "#" + o.ID.String()
}

// DeriveStatus computes the receipt status from line state
func DeriveStatus(lines []PurchaseOrderLine) OrderStatus {
	allReceived := true
	anyReceived := false
	for i := range lines {
		if !lines[i].IsFullyReceived() {
			allReceived = false
		}
		if lines[i].ReceivedQty.IsPositive() {
			anyReceived = true
		}
	}
	switch {
	case allReceived:
		return OrderStatusReceived
	case anyReceived:
		return OrderStatusPartiallyReceived
	default:
		return OrderStatusOpen
	}
}

// PlanReceipt validates requested per-line quantities and returns the
// accepted plan keyed by line id. An empty request receives every pending
// quantity.
func (o *PurchaseOrder) PlanReceipt(requested map[uuid.UUID]decimal.Decimal) (map[uuid.UUID]decimal.Decimal, error) {
	switch o.Status {
	case OrderStatusCancelled:
		return nil, shared.NewInvalidTransitionError("Cancelled purchase order cannot be received.")
	case OrderStatusReceived:
		return nil, shared.NewInvalidTransitionError("Purchase order is already fully received.")
	}
	if len(o.Lines) == 0 {
		return nil, shared.NewValidationError("Purchase order has no line items to receive.")
	}

	plan := make(map[uuid.UUID]decimal.Decimal)
	if len(requested) == 0 {
		for i := range o.Lines {
			if pending := o.Lines[i].Pending(); pending.IsPositive() {
				plan[o.Lines[i].ID] = pending
			}
		}
		if len(plan) == 0 {
			return nil, shared.NewDomainError(shared.CodeNothingToReceive, "No pending quantities left to receive.")
		}
		return plan, nil
	}

	for lineID, qty := range requested {
		qty = inventory.RoundQuantity(qty)
		if qty.IsPositive() {
			plan[lineID] = qty
		}
	}
	if len(plan) == 0 {
		return nil, shared.NewDomainError(shared.CodeNothingToReceive, "Enter at least one quantity greater than zero.")
	}

	for lineID, qty := range plan {
		line := o.line(lineID)
		if line == nil {
			return nil, shared.NewNotFoundError("Purchase order line " + lineID.String())
		}
		if qty.GreaterThan(line.Pending()) {
			return nil, shared.NewDomainError(shared.CodeInvalidQuantity,
				"Receive quantity for "+line.MaterialName+" cannot exceed pending "+
					line.Pending().StringFixed(inventory.QuantityScale)+".")
		}
	}
	return plan, nil
}

// PlanAccountIDs returns the accounts a receipt plan touches
func (o *PurchaseOrder) PlanAccountIDs(plan map[uuid.UUID]decimal.Decimal) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(plan))
	for i := range o.Lines {
		if _, ok := plan[o.Lines[i].ID]; ok {
			ids = append(ids, o.Lines[i].AccountID)
		}
	}
	return ids
}

// Receive credits every planned line to its locked account, bumps the
// received quantities and re-derives the status.
func (o *PurchaseOrder) Receive(
	plan map[uuid.UUID]decimal.Decimal,
	accounts map[uuid.UUID]*inventory.MaterialAccount,
	actor shared.Actor,
) ([]*inventory.LedgerEntry, error) {
	if !o.Status.CanReceive() {
		return nil, shared.NewInvalidTransitionError("Purchase order cannot be received in status " + string(o.Status) + ".")
	}

	entries := make([]*inventory.LedgerEntry, 0, len(plan))
	for i := range o.Lines {
		line := &o.Lines[i]
		qty, ok := plan[line.ID]
		if !ok || !qty.IsPositive() {
			continue
		}
		if qty.GreaterThan(line.Pending()) {
			return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Receive quantity for "+line.MaterialName+" exceeds pending.")
		}
		account, ok := accounts[line.AccountID]
		if !ok {
			return nil, shared.NewNotFoundError("Material " + line.MaterialName)
		}
		reason := "Received against purchase order " + o.Label() + " (" + line.MaterialName + ")"
		entry, err := account.Post(qty, reason, o.Reference(), actor)
		if err != nil {
			return nil, err
		}
		line.ReceivedQty = line.ReceivedQty.Add(qty)
		entries = append(entries, entry)
	}

	from := o.Status
	o.Status = DeriveStatus(o.Lines)
	if o.Status == OrderStatusReceived {
		now := time.Now()
		o.ReceivedByID = actor.IDPtr()
		o.ReceivedByName = actor.Label()
		o.ReceivedAt = &now
	}
	o.IncrementVersion()
	if from != o.Status {
		o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, o.Status, actor))
	}
	return entries, nil
}

// Cancel stops further receipts. Prior receipts stand.
func (o *PurchaseOrder) Cancel(actor shared.Actor) error {
	switch o.Status {
	case OrderStatusReceived:
		return shared.NewInvalidTransitionError("Fully received purchase order cannot be cancelled.")
	case OrderStatusCancelled:
		return shared.NewInvalidTransitionError("Purchase order is already cancelled.")
	}
	now := time.Now()
	from := o.Status
	o.Status = OrderStatusCancelled
	o.CancelledByID = actor.IDPtr()
	o.CancelledByName = actor.Label()
	o.CancelledAt = &now
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, o.Status, actor))
	return nil
}

// Reopen restores a cancelled order to the status its lines imply
func (o *PurchaseOrder) Reopen(actor shared.Actor) error {
	if !o.Status.CanReopen() {
		return shared.NewInvalidTransitionError("Only cancelled purchase orders can be reopened.")
	}
	if len(o.Lines) == 0 {
		return shared.NewValidationError("Purchase order has no line items.")
	}
	pending := false
	for i := range o.Lines {
		if o.Lines[i].Pending().IsPositive() {
			pending = true
			break
		}
	}
	if !pending {
		return shared.NewDomainError(shared.CodeNothingPending, "Fully received purchase order cannot be reopened.")
	}

	from := o.Status
	if o.hasReceipts() {
		o.Status = OrderStatusPartiallyReceived
	} else {
		o.Status = OrderStatusOpen
	}
	o.CancelledByID = nil
	o.CancelledByName = ""
	o.CancelledAt = nil
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, o.Status, actor))
	return nil
}

// TotalPending sums the pending quantity of every line
func (o *PurchaseOrder) TotalPending() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Lines {
		total = total.Add(o.Lines[i].Pending())
	}
	return total
}

// AuditSnapshot returns the audited header fields and received quantities
func (o *PurchaseOrder) AuditSnapshot() audit.Fields {
	f := audit.Fields{
		"order_number": o.OrderNumber,
		"vendor_id":    o.VendorID.String(),
		"order_date":   o.OrderDate.Format("2006-01-02"),
		"status":       string(o.Status),
		"notes":        o.Notes,
	}
	for i := range o.Lines {
		f["received_qty."+o.Lines[i].ID.String()] = o.Lines[i].ReceivedQty.StringFixed(inventory.QuantityScale)
	}
	return f
}

func (o *PurchaseOrder) line(id uuid.UUID) *PurchaseOrderLine {
	for i := range o.Lines {
		if o.Lines[i].ID == id {
			return &o.Lines[i]
		}
	}
	return nil
}

func (o *PurchaseOrder) hasReceipts() bool {
	for i := range o.Lines {
		if o.Lines[i].ReceivedQty.IsPositive() {
			return true
		}
	}
	return false
}

// LineInput is one requested material and quantity
type LineInput struct {
	Account  *inventory.MaterialAccount
	Quantity decimal.Decimal
}

// VendorGroup is the set of lines that goes onto one vendor's order
type VendorGroup struct {
	VendorID uuid.UUID
	Lines    []LineInput
}

// PartitionByVendor groups lines by each material's registered vendor.
// Groups come back in ascending vendor id and keep input order within a group.
func PartitionByVendor(lines []LineInput) ([]VendorGroup, error) {
	index := make(map[uuid.UUID]int)
	var groups []VendorGroup
	for _, line := range lines {
		if line.Account == nil {
			return nil, shared.NewNotFoundError("Material")
		}
		if line.Account.VendorID == nil {
			return nil, shared.NewValidationError("Material " + line.Account.Name + " has no registered vendor.")
		}
		vendorID := *line.Account.VendorID
		i, ok := index[vendorID]
		if !ok {
			i = len(groups)
			index[vendorID] = i
			groups = append(groups, VendorGroup{VendorID: vendorID})
		}
		groups[i].Lines = append(groups[i].Lines, line)
	}
	sort.Slice(groups, func(a, b int) bool {
		return bytes.Compare(groups[a].VendorID[:], groups[b].VendorID[:]) < 0
	})
	return groups, nil
}
