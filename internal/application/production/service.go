// Package production runs production orders through their lifecycle, moving
// raw material and finished goods stock in the same transaction as each
// status change.
package production

import (
	"context"
	"errors"

	"github.com/erp/stockengine/internal/application/unitofwork"
	"github.com/erp/stockengine/internal/domain/audit"
	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/erp/stockengine/internal/domain/production"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/logger"
	"github.com/erp/stockengine/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const serviceName = "production"

// Service handles production order operations
type Service struct {
	scope     unitofwork.TransactionScope
	repos     unitofwork.Repositories
	locker    unitofwork.OrderLocker
	publisher shared.EventPublisher
	metrics   *telemetry.EngineMetrics
	logger    *zap.Logger
}

// NewService creates a production service
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

// CreateOrder resolves the product's BOM and creates an order. In immediate
// mode every requirement is deducted now and all shortfalls are reported
// together; in rm_request mode nothing moves until Release.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest, actor shared.Actor) (resp *OrderResponse, err error) {
	ctx, op := unitofwork.Begin(ctx, s.metrics, serviceName, "CreateOrder")
	defer func() { op.End(ctx, err) }()

	mode := production.CreationMode(req.Mode)
	if mode == "" {
		mode = production.CreationModeImmediate
	}
	if !mode.IsValid() {
		return nil, shared.NewValidationError("Invalid production order mode: " + req.Mode)
	}

	var order *production.ProductionOrder
	err = unitofwork.Run(ctx, s.scope, s.publisher, s.logger, func(repos unitofwork.Repositories, rec *unitofwork.EventRecorder) error {
		product, err := repos.Products().FindByID(ctx, req.ProductID)
		if err != nil {
			return err
		}
		lines, err := repos.BOMs().FindByProduct(ctx, product.ID)
		if err != nil {
			return err
		}
		requirements, err := production.ResolveRequirements(product, lines, req.Quantity)
		if err != nil {
			return err
		}
		number, err := repos.ProductionOrders().GenerateOrderNumber(ctx)
		if err != nil {
			return err
		}
		order, err = production.NewProductionOrder(number, product, req.Quantity, mode, req.Notes, requirements, actor)
		if err != nil {
			return err
		}

		var (
			accounts map[uuid.UUID]*inventory.MaterialAccount
			entries  []*inventory.LedgerEntry
		)
		if mode == production.CreationModeImmediate {
			accounts, err = repos.Accounts().LockByIDs(ctx, order.AccountIDs())
			if err != nil {
				return err
			}
			entries, err = order.ConsumeOnCreate(accounts, actor)
			if err != nil {
				return err
			}
		}

		if err := repos.ProductionOrders().Create(ctx, order); err != nil {
			return err
		}
		if err := unitofwork.PersistMovements(ctx, repos, accounts, entries); err != nil {
			return err
		}

		rec.Collect(order)
		rec.CollectAccounts(accounts)
		rec.AddChange(audit.Created(audit.EntityProductionOrder, order.ID, order.AuditSnapshot(), actor))
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Scoped(ctx, s.logger).Info("Production order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("mode", string(mode)),
		zap.String("status", string(order.Status)),
		zap.String("actor_id", actor.ID.String()),
	)
	out := ToOrderResponse(order)
	return &out, nil
}

// Release deducts the stored consumption lines of an AWAITING_RM_RELEASE order
func (s *Service) Release(ctx context.Context, orderID uuid.UUID, actor shared.Actor) (*OrderResponse, error) {
	return s.mutate(ctx, "Release", orderID, actor, func(repos unitofwork.Repositories, order *production.ProductionOrder) (map[uuid.UUID]*inventory.MaterialAccount, []*inventory.LedgerEntry, error) {
		if err := order.CanRelease(); err != nil {
			return nil, nil, err
		}
		if len(order.Lines) == 0 {
			return nil, nil, shared.NewValidationError("No raw material requirements found for this production order.")
		}
		accounts, err := repos.Accounts().LockByIDs(ctx, order.AccountIDs())
		if err != nil {
			return nil, nil, err
		}
		entries, err := order.Release(accounts, actor)
		return accounts, entries, err
	})
}

// Reject cancels an unreleased request without moving stock
func (s *Service) Reject(ctx context.Context, orderID uuid.UUID, actor shared.Actor) (*OrderResponse, error) {
	return s.mutate(ctx, "Reject", orderID, actor, func(_ unitofwork.Repositories, order *production.ProductionOrder) (map[uuid.UUID]*inventory.MaterialAccount, []*inventory.LedgerEntry, error) {
		return nil, nil, order.Reject(actor)
	})
}

// SetStatus dispatches a requested status: COMPLETED completes the order,
// anything else goes through AdvanceStatus.
func (s *Service) SetStatus(ctx context.Context, orderID uuid.UUID, req SetStatusRequest, actor shared.Actor) (*OrderResponse, error) {
	status, err := production.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, err
	}
	if status == production.OrderStatusCompleted {
		complete := CompleteRequest{ProducedQty: decimal.Zero, ScrapQty: decimal.Zero}
		if req.ProducedQty != nil {
			complete.ProducedQty = *req.ProducedQty
		}
		if req.ScrapQty != nil {
			complete.ScrapQty = *req.ScrapQty
		}
		return s.Complete(ctx, orderID, complete, actor)
	}
	return s.AdvanceStatus(ctx, orderID, status, actor)
}

// AdvanceStatus moves a released order between PLANNED and IN_PROGRESS
func (s *Service) AdvanceStatus(ctx context.Context, orderID uuid.UUID, status production.OrderStatus, actor shared.Actor) (*OrderResponse, error) {
	return s.mutate(ctx, "AdvanceStatus", orderID, actor, func(_ unitofwork.Repositories, order *production.ProductionOrder) (map[uuid.UUID]*inventory.MaterialAccount, []*inventory.LedgerEntry, error) {
		return nil, nil, order.AdvanceTo(status, actor)
	})
}

// Complete credits the product's finished goods account and closes the order.
// The finished goods account is created on first completion.
func (s *Service) Complete(ctx context.Context, orderID uuid.UUID, req CompleteRequest, actor shared.Actor) (*OrderResponse, error) {
	return s.mutate(ctx, "Complete", orderID, actor, func(repos unitofwork.Repositories, order *production.ProductionOrder) (map[uuid.UUID]*inventory.MaterialAccount, []*inventory.LedgerEntry, error) {
		finished, err := s.finishedGoodsAccount(ctx, repos, order.ProductID)
		if err != nil {
			return nil, nil, err
		}
		entry, err := order.Complete(req.ProducedQty, req.ScrapQty, finished, actor)
		if err != nil {
			return nil, nil, err
		}
		return map[uuid.UUID]*inventory.MaterialAccount{finished.ID: finished}, []*inventory.LedgerEntry{entry}, nil
	})
}

// Cancel closes an order, crediting released materials back
func (s *Service) Cancel(ctx context.Context, orderID uuid.UUID, actor shared.Actor) (*OrderResponse, error) {
	return s.mutate(ctx, "Cancel", orderID, actor, func(repos unitofwork.Repositories, order *production.ProductionOrder) (map[uuid.UUID]*inventory.MaterialAccount, []*inventory.LedgerEntry, error) {
		accounts := map[uuid.UUID]*inventory.MaterialAccount{}
		if order.NeedsReversal() {
			var err error
			accounts, err = repos.Accounts().LockByIDs(ctx, order.AccountIDs())
			if err != nil {
				return nil, nil, err
			}
		}
		entries, err := order.Cancel(accounts, actor)
		return accounts, entries, err
	})
}

// GetByID retrieves a production order with its consumption lines
func (s *Service) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.repos.ProductionOrders().FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := ToOrderResponse(order)
	return &out, nil
}

// List returns a page of production orders, optionally in one status
func (s *Service) List(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	var status production.OrderStatus
	if filter.Status != "" {
		st, err := production.ParseOrderStatus(filter.Status)
		if err != nil {
			return nil, 0, err
		}
		status = st
	}
	orders, total, err := s.repos.ProductionOrders().FindAll(ctx, filter.ToFilter(), status)
	if err != nil {
		return nil, 0, err
	}
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out, total, nil
}

type mutation func(repos unitofwork.Repositories, order *production.ProductionOrder) (map[uuid.UUID]*inventory.MaterialAccount, []*inventory.LedgerEntry, error)

// mutate locks the order row before any account row, applies fn, and
// persists the order, the moved accounts and their ledger entries together.
func (s *Service) mutate(ctx context.Context, method string, orderID uuid.UUID, actor shared.Actor, fn mutation) (resp *OrderResponse, err error) {
	ctx, op := unitofwork.Begin(ctx, s.metrics, serviceName, method)
	defer func() { op.End(ctx, err) }()
	telemetry.SetAttributes(op.Span(), "order_id", orderID.String())

	release, err := s.locker.Acquire(ctx, unitofwork.LockKindProductionOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer release()

	var order *production.ProductionOrder
	err = unitofwork.Run(ctx, s.scope, s.publisher, s.logger, func(repos unitofwork.Repositories, rec *unitofwork.EventRecorder) error {
		var err error
		order, err = repos.ProductionOrders().LockByID(ctx, orderID)
		if err != nil {
			return err
		}
		before := order.AuditSnapshot()

		accounts, entries, err := fn(repos, order)
		if err != nil {
			return err
		}

		if err := repos.ProductionOrders().Save(ctx, order); err != nil {
			return err
		}
		if err := unitofwork.PersistMovements(ctx, repos, accounts, entries); err != nil {
			return err
		}

		rec.Collect(order)
		rec.CollectAccounts(accounts)
		rec.AddChange(audit.Updated(audit.EntityProductionOrder, order.ID, before, order.AuditSnapshot(), actor))
		return nil
	})
	if err != nil {
		s.logger.Debug("Production order operation rejected",
			zap.String("operation", method),
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Scoped(ctx, s.logger).Info("Production order updated",
		zap.String("operation", method),
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
		zap.String("actor_id", actor.ID.String()),
	)
	out := ToOrderResponse(order)
	return &out, nil
}

func (s *Service) finishedGoodsAccount(ctx context.Context, repos unitofwork.Repositories, productID uuid.UUID) (*inventory.MaterialAccount, error) {
	account, err := repos.Accounts().LockByProduct(ctx, productID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	product, err := repos.Products().FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return inventory.NewFinishedGoodsAccount(product.ID, product.SKU, product.Name)
}
