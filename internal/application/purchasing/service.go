// Package purchasing raises purchase orders against vendors and books
// receipts into stock.
package purchasing

import (
	"context"
	"time"

	"github.com/erp/stockengine/internal/application/unitofwork"
	"github.com/erp/stockengine/internal/domain/audit"
	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/erp/stockengine/internal/domain/partner"
	"github.com/erp/stockengine/internal/domain/purchasing"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/logger"
	"github.com/erp/stockengine/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const serviceName = "purchasing"

// Service handles purchase order operations
type Service struct {
	scope                unitofwork.TransactionScope
	repos                unitofwork.Repositories
	locker               unitofwork.OrderLocker
	publisher            shared.EventPublisher
	metrics              *telemetry.EngineMetrics
	logger               *zap.Logger
	enforceVendorCatalog bool
}

// NewService creates a purchasing service
func NewService(scope unitofwork.TransactionScope, repos unitofwork.Repositories) *Service {
	return &Service{
		scope:  scope,
		repos:  repos,
		locker: unitofwork.NoopOrderLocker{},
		logger: zap.NewNop(),
	}
}

// SetEventPublisher sets the publisher for domain and audit events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetMetrics sets the engine metrics
func (s *Service) SetMetrics(metrics *telemetry.EngineMetrics) {
	s.metrics = metrics
}

// SetLogger sets the logger
func (s *Service) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SetLocker sets the distributed order locker
func (s *Service) SetLocker(locker unitofwork.OrderLocker) {
	if locker != nil {
		s.locker = locker
	}
}

// SetEnforceVendorCatalog requires that, with an explicit vendor, every
// material lists that vendor as its primary or an additional vendor.
func (s *Service) SetEnforceVendorCatalog(enforce bool) {
	s.enforceVendorCatalog = enforce
}

// CreateGrouped creates purchase orders for the requested lines. Without an
// explicit vendor the lines are split by each material's registered vendor,
// one order per vendor in ascending vendor id.
func (s *Service) CreateGrouped(ctx context.Context, req CreateGroupedRequest, actor shared.Actor) (resp []OrderResponse, err error) {
	ctx, op := unitofwork.Begin(ctx, s.metrics, serviceName, "CreateGrouped")
	defer func() { op.End(ctx, err) }()

	if len(req.Lines) == 0 {
		return nil, shared.NewValidationError("Add at least one raw material line item.")
	}
	for _, l := range req.Lines {
		if !inventory.RoundQuantity(l.Quantity).IsPositive() {
			return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Quantity must be greater than zero.")
		}
	}
	orderDate := req.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	var orders []*purchasing.PurchaseOrder
	err = unitofwork.Run(ctx, s.scope, s.publisher, s.logger, func(repos unitofwork.Repositories, rec *unitofwork.EventRecorder) error {
		orders = nil
		ids := make([]uuid.UUID, len(req.Lines))
		for i, l := range req.Lines {
			ids[i] = l.AccountID
		}
		accounts, err := repos.Accounts().FindByIDs(ctx, ids)
		if err != nil {
			return err
		}
		inputs := make([]purchasing.LineInput, len(req.Lines))
		for i, l := range req.Lines {
			account, ok := accounts[l.AccountID]
			if !ok {
				return shared.NewNotFoundError("Material")
			}
			inputs[i] = purchasing.LineInput{Account: account, Quantity: l.Quantity}
		}

		groups, err := s.group(ctx, repos, req.VendorID, inputs)
		if err != nil {
			return err
		}
		vendorIDs := make([]uuid.UUID, len(groups))
		for i, g := range groups {
			vendorIDs[i] = g.VendorID
		}
		vendors, err := repos.Partners().FindByIDs(ctx, vendorIDs)
		if err != nil {
			return err
		}

		for _, g := range groups {
			vendor, ok := vendors[g.VendorID]
			if !ok {
				return shared.NewNotFoundError("Vendor")
			}
			number, err := repos.PurchaseOrders().GenerateOrderNumber(ctx)
			if err != nil {
				return err
			}
			order, err := purchasing.NewPurchaseOrder(number, vendor, orderDate, req.Notes, actor)
			if err != nil {
				return err
			}
			for _, in := range g.Lines {
				if err := order.AddLine(in.Account, in.Quantity); err != nil {
					return err
				}
			}
			if err := order.MarkCreated(actor); err != nil {
				return err
			}
			if err := repos.PurchaseOrders().Create(ctx, order); err != nil {
				return err
			}
			rec.Collect(order)
			rec.AddChange(audit.Created(audit.EntityPurchaseOrder, order.ID, order.AuditSnapshot(), actor))
			orders = append(orders, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp = make([]OrderResponse, len(orders))
	for i, o := range orders {
		resp[i] = ToOrderResponse(o)
		logger.Scoped(ctx, s.logger).Info("Purchase order created",
			zap.String("order_id", o.ID.String()),
			zap.String("order_number", o.OrderNumber),
			zap.String("vendor_id", o.VendorID.String()),
			zap.Int("lines", len(o.Lines)),
			zap.String("actor_id", actor.ID.String()),
		)
	}
	return resp, nil
}

// Receive books received quantities into stock. An empty request receives
// everything still pending.
func (s *Service) Receive(ctx context.Context, orderID uuid.UUID, req ReceiveRequest, actor shared.Actor) (*OrderResponse, error) {
	return s.mutate(ctx, "Receive", orderID, actor, func(repos unitofwork.Repositories, order *purchasing.PurchaseOrder) (map[uuid.UUID]*inventory.MaterialAccount, []*inventory.LedgerEntry, error) {
		plan, err := order.PlanReceipt(req.Lines)
		if err != nil {
			return nil, nil, err
		}
		accounts, err := repos.Accounts().LockByIDs(ctx, order.PlanAccountIDs(plan))
		if err != nil {
			return nil, nil, err
		}
		entries, err := order.Receive(plan, accounts, actor)
		return accounts, entries, err
	})
}

// Cancel stops further receipts on an order
func (s *Service) Cancel(ctx context.Context, orderID uuid.UUID, actor shared.Actor) (*OrderResponse, error) {
	return s.mutate(ctx, "Cancel", orderID, actor, func(_ unitofwork.Repositories, order *purchasing.PurchaseOrder) (map[uuid.UUID]*inventory.MaterialAccount, []*inventory.LedgerEntry, error) {
		return nil, nil, order.Cancel(actor)
	})
}

// Reopen restores a cancelled order that still has pending quantities
func (s *Service) Reopen(ctx context.Context, orderID uuid.UUID, actor shared.Actor) (*OrderResponse, error) {
	return s.mutate(ctx, "Reopen", orderID, actor, func(_ unitofwork.Repositories, order *purchasing.PurchaseOrder) (map[uuid.UUID]*inventory.MaterialAccount, []*inventory.LedgerEntry, error) {
		return nil, nil, order.Reopen(actor)
	})
}

// GetByID retrieves a purchase order with its lines
func (s *Service) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.repos.PurchaseOrders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := ToOrderResponse(order)
	return &out, nil
}

// List returns a page of purchase orders filtered by status and vendor
func (s *Service) List(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	var status purchasing.OrderStatus
	if filter.Status != "" {
		st, err := purchasing.ParseOrderStatus(filter.Status)
		if err != nil {
			return nil, 0, err
		}
		status = st
	}
	vendorID := uuid.Nil
	if filter.VendorID != nil {
		vendorID = *filter.VendorID
	}
	orders, total, err := s.repos.PurchaseOrders().FindAll(ctx, filter.ToFilter(), status, vendorID)
	if err != nil {
		return nil, 0, err
	}
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out, total, nil
}

// group returns a single group for an explicit vendor, otherwise partitions
// the lines by registered vendor.
func (s *Service) group(ctx context.Context, repos unitofwork.Repositories, vendorID *uuid.UUID, inputs []purchasing.LineInput) ([]purchasing.VendorGroup, error) {
	if vendorID == nil || *vendorID == uuid.Nil {
		return purchasing.PartitionByVendor(inputs)
	}

	vendor, err := repos.Partners().FindByID(ctx, *vendorID)
	if err != nil {
		return nil, err
	}
	if err := vendor.EnsureSupplier(); err != nil {
		return nil, err
	}
	if s.enforceVendorCatalog {
		if err := s.checkCatalog(ctx, repos, vendor, inputs); err != nil {
			return nil, err
		}
	}
	return []purchasing.VendorGroup{{VendorID: vendor.ID, Lines: inputs}}, nil
}

func (s *Service) checkCatalog(ctx context.Context, repos unitofwork.Repositories, vendor *partner.Partner, inputs []purchasing.LineInput) error {
	ids := make([]uuid.UUID, len(inputs))
	for i, in := range inputs {
		ids[i] = in.Account.ID
	}
	additional, err := repos.Accounts().FindVendorIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, in := range inputs {
		if !in.Account.SuppliedBy(vendor.ID, additional[in.Account.ID]) {
			return shared.NewValidationError("Material " + in.Account.Name + " is not supplied by " + vendor.Name + ".")
		}
	}
	return nil
}

type mutation func(repos unitofwork.Repositories, order *purchasing.PurchaseOrder) (map[uuid.UUID]*inventory.MaterialAccount, []*inventory.LedgerEntry, error)

// mutate locks the order row, applies fn and persists the order together
// with any stock it moved.
func (s *Service) mutate(ctx context.Context, method string, orderID uuid.UUID, actor shared.Actor, fn mutation) (resp *OrderResponse, err error) {
	ctx, op := unitofwork.Begin(ctx, s.metrics, serviceName, method)
	defer func() { op.End(ctx, err) }()
	telemetry.SetAttributes(op.Span(), "order_id", orderID.String())

	release, err := s.locker.Acquire(ctx, unitofwork.LockKindPurchaseOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	var order *purchasing.PurchaseOrder
	err = unitofwork.Run(ctx, s.scope, s.publisher, s.logger, func(repos unitofwork.Repositories, rec *unitofwork.EventRecorder) error {
		var err error
		order, err = repos.PurchaseOrders().LockByID(ctx, orderID)
		if err != nil {
			return err
		}
		before := order.AuditSnapshot()

		accounts, entries, err := fn(repos, order)
		if err != nil {
			return err
		}

		if err := repos.PurchaseOrders().Save(ctx, order); err != nil {
			return err
		}
		if err := unitofwork.PersistMovements(ctx, repos, accounts, entries); err != nil {
			return err
		}

		rec.Collect(order)
		rec.CollectAccounts(accounts)
		rec.AddChange(audit.Updated(audit.EntityPurchaseOrder, order.ID, before, order.AuditSnapshot(), actor))
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Scoped(ctx, s.logger).Info("Purchase order updated",
		zap.String("operation", method),
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
		zap.String("actor_id", actor.ID.String()),
	)
	out := ToOrderResponse(order)
	return &out, nil
}
