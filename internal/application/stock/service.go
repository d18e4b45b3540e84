// Package stock orchestrates material account registration, manual
// adjustments and ledger queries.
package stock

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/erp/stockengine/internal/application/unitofwork"
	"github.com/erp/stockengine/internal/domain/audit"
	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/logger"
	"github.com/erp/stockengine/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const serviceName = "stock"

// Service handles material accounts and the stock ledger
type Service struct {
	scope     unitofwork.TransactionScope
	repos     unitofwork.Repositories
	locker    unitofwork.OrderLocker
	publisher shared.EventPublisher
	metrics   *telemetry.EngineMetrics
	logger    *zap.Logger
}

// NewService creates a stock service. repos serves reads outside a transaction.
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

// SetMetrics sets the engine metrics (optional)
func (s *Service) SetMetrics(metrics *telemetry.EngineMetrics) {
	s.metrics = metrics
}

// SetLogger sets the logger
func (s *Service) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SetLocker sets the distributed locker taken around adjustments
func (s *Service) SetLocker(locker unitofwork.OrderLocker) {
	if locker != nil {
		s.locker = locker
	}
}

// RegisterMaterial creates a raw material or MRO account, posting opening
// stock through the ledger when given.
func (s *Service) RegisterMaterial(ctx context.Context, req RegisterMaterialRequest, actor shared.Actor) (resp *AccountResponse, err error) {
	ctx, op := unitofwork.Begin(ctx, s.metrics, serviceName, "RegisterMaterial")
	defer func() { op.End(ctx, err) }()

	kind := inventory.AccountKind(req.Kind)
	if req.OpeningStock.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidQuantity, "Opening stock cannot be negative.")
	}
	additional := inventory.AdditionalVendors(req.VendorID, req.AdditionalVendors)
	if kind == inventory.AccountKindMRO && len(additional) > 0 {
		return nil, shared.NewValidationError("Additional vendors are only supported for raw materials.")
	}

	var account *inventory.MaterialAccount
	err = unitofwork.Run(ctx, s.scope, s.publisher, s.logger, func(repos unitofwork.Repositories, rec *unitofwork.EventRecorder) error {
		if err := s.checkVendors(ctx, repos, req.VendorID, additional); err != nil {
			return err
		}

		var err error
		account, err = inventory.NewMaterialAccount(inventory.MaterialSpec{
			Kind:             kind,
			ItemID:           req.ItemID,
			Code:             req.Code,
			Name:             req.Name,
			Category:         req.Category,
			Colour:           req.Colour,
			ColourCode:       req.ColourCode,
			Unit:             req.Unit,
			Location:         req.Location,
			CostPerUnit:      req.CostPerUnit,
			ReorderThreshold: req.ReorderThreshold,
			VendorID:         req.VendorID,
		})
		if err != nil {
			return err
		}

		exists, err := repos.Accounts().ExistsByCode(ctx, account.Kind, account.Code, nil)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Material code "+account.Code+" already exists.")
		}
		if account.Kind == inventory.AccountKindRawMaterial {
			exists, err = repos.Accounts().ExistsByVariant(ctx, account.ItemID, account.ColourCode, nil)
			if err != nil {
				return err
			}
			if exists {
				return shared.NewDomainError(shared.CodeAlreadyExists, "Raw material with this RM ID and colour code already exists.")
			}
		}

		var entry *inventory.LedgerEntry
		if req.OpeningStock.IsPositive() {
			entry, err = account.Post(req.OpeningStock, "Opening stock", inventory.OpeningStockRef(account.ID), actor)
			if err != nil {
				return err
			}
		}
		if err := repos.Accounts().Save(ctx, account); err != nil {
			return err
		}
		if entry != nil {
			if err := repos.Ledger().Append(ctx, entry); err != nil {
				return err
			}
		}
		if len(additional) > 0 {
			if err := repos.Accounts().ReplaceVendors(ctx, account.ID, additional); err != nil {
				return err
			}
		}

		rec.Collect(account)
		rec.AddChange(audit.Created(audit.EntityMaterialAccount, account.ID, account.AuditSnapshot(), actor))
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Scoped(ctx, s.logger).Info("Material registered",
		zap.String("account_id", account.ID.String()),
		zap.String("code", account.Code),
		zap.String("actor_id", actor.ID.String()),
	)
	out := ToAccountResponse(account)
	out.AdditionalVendors = additional
	return &out, nil
}

// AdjustStock applies a manual correction to one account
func (s *Service) AdjustStock(ctx context.Context, req AdjustStockRequest, actor shared.Actor) (resp *AccountResponse, err error) {
	ctx, op := unitofwork.Begin(ctx, s.metrics, serviceName, "AdjustStock")
	defer func() { op.End(ctx, err) }()
	telemetry.SetAttributes(op.Span(), "account_id", req.AccountID.String())

	release, err := s.locker.Acquire(ctx, unitofwork.LockKindAccount, req.AccountID)
	if err != nil {
		return nil, err
	}
	defer release()

	var account *inventory.MaterialAccount
	err = unitofwork.Run(ctx, s.scope, s.publisher, s.logger, func(repos unitofwork.Repositories, rec *unitofwork.EventRecorder) error {
		locked, err := repos.Accounts().LockByIDs(ctx, []uuid.UUID{req.AccountID})
		if err != nil {
			return err
		}
		account = locked[req.AccountID]
		before := account.AuditSnapshot()

		entry, err := account.PostAdjustment(req.Delta, req.Reason, actor)
		if err != nil {
			return err
		}
		if err := repos.Accounts().Save(ctx, account); err != nil {
			return err
		}
		if err := repos.Ledger().Append(ctx, entry); err != nil {
			return err
		}

		rec.Collect(account)
		rec.AddChange(audit.Updated(audit.EntityMaterialAccount, account.ID, before, account.AuditSnapshot(), actor))
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Scoped(ctx, s.logger).Info("Stock adjusted",
		zap.String("account_id", account.ID.String()),
		zap.String("delta", req.Delta.String()),
		zap.String("balance", account.Balance.String()),
		zap.String("actor_id", actor.ID.String()),
	)
	out := ToAccountResponse(account)
	return &out, nil
}

// UpdateMaterial replaces the descriptive fields and vendor set of a raw
// material or MRO item under a row lock. The code is re-derived when left
// blank and the balance is not touched.
func (s *Service) UpdateMaterial(ctx context.Context, id uuid.UUID, req UpdateMaterialRequest, actor shared.Actor) (resp *AccountResponse, err error) {
	ctx, op := unitofwork.Begin(ctx, s.metrics, serviceName, "UpdateMaterial")
	defer func() { op.End(ctx, err) }()
	telemetry.SetAttributes(op.Span(), "account_id", id.String())

	release, err := s.locker.Acquire(ctx, unitofwork.LockKindAccount, id)
	if err != nil {
		return nil, err
	}
	defer release()

	additional := inventory.AdditionalVendors(req.VendorID, req.AdditionalVendors)

	var account *inventory.MaterialAccount
	err = unitofwork.Run(ctx, s.scope, s.publisher, s.logger, func(repos unitofwork.Repositories, rec *unitofwork.EventRecorder) error {
		locked, err := repos.Accounts().LockByIDs(ctx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		account = locked[id]
		if account.Kind == inventory.AccountKindMRO && len(additional) > 0 {
			return shared.NewValidationError("Additional vendors are only supported for raw materials.")
		}
		if err := s.checkVendors(ctx, repos, req.VendorID, additional); err != nil {
			return err
		}

		previous, err := repos.Accounts().FindVendorIDs(ctx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		before := account.AuditSnapshot()
		before["additional_vendors"] = vendorList(previous[id])

		if err := account.UpdateDetails(inventory.MaterialSpec{
			ItemID:           req.ItemID,
			Code:             req.Code,
			Name:             req.Name,
			Category:         req.Category,
			Colour:           req.Colour,
			ColourCode:       req.ColourCode,
			Unit:             req.Unit,
			Location:         req.Location,
			CostPerUnit:      req.CostPerUnit,
			ReorderThreshold: req.ReorderThreshold,
			VendorID:         req.VendorID,
		}); err != nil {
			return err
		}

		exists, err := repos.Accounts().ExistsByCode(ctx, account.Kind, account.Code, &account.ID)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Material code "+account.Code+" already exists.")
		}
		if account.Kind == inventory.AccountKindRawMaterial {
			exists, err = repos.Accounts().ExistsByVariant(ctx, account.ItemID, account.ColourCode, &account.ID)
			if err != nil {
				return err
			}
			if exists {
				return shared.NewDomainError(shared.CodeAlreadyExists, "Raw material with this RM ID and colour code already exists.")
			}
		}

		if err := repos.Accounts().Save(ctx, account); err != nil {
			return err
		}
		if account.Kind == inventory.AccountKindRawMaterial {
			if err := repos.Accounts().ReplaceVendors(ctx, account.ID, additional); err != nil {
				return err
			}
		}

		after := account.AuditSnapshot()
		after["additional_vendors"] = vendorList(additional)
		rec.AddChange(audit.Updated(audit.EntityMaterialAccount, account.ID, before, after, actor))
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Scoped(ctx, s.logger).Info("Material updated",
		zap.String("account_id", account.ID.String()),
		zap.String("code", account.Code),
		zap.String("actor_id", actor.ID.String()),
	)
	out := ToAccountResponse(account)
	out.AdditionalVendors = additional
	return &out, nil
}

// Get returns one account with its additional vendors
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*AccountResponse, error) {
	account, err := s.repos.Accounts().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	vendors, err := s.repos.Accounts().FindVendorIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	out := ToAccountResponse(account)
	out.AdditionalVendors = vendors[id]
	return &out, nil
}

// List returns accounts, optionally of one kind
func (s *Service) List(ctx context.Context, filter AccountListFilter) ([]AccountResponse, int64, error) {
	kind := inventory.AccountKind(filter.Kind)
	if kind != "" && !kind.IsValid() {
		return nil, 0, shared.NewValidationError("Invalid material kind: " + filter.Kind)
	}
	accounts, total, err := s.repos.Accounts().FindAll(ctx, filter.ToFilter(), kind)
	if err != nil {
		return nil, 0, err
	}
	return ToAccountResponses(accounts), total, nil
}

// ListLowStock returns raw material and MRO accounts at or below their reorder threshold
func (s *Service) ListLowStock(ctx context.Context, filter AccountListFilter) ([]AccountResponse, int64, error) {
	accounts, total, err := s.repos.Accounts().FindBelowThreshold(ctx, filter.ToFilter())
	if err != nil {
		return nil, 0, err
	}
	return ToAccountResponses(accounts), total, nil
}

// ListLedger dispatches to the account, reference or date range query
func (s *Service) ListLedger(ctx context.Context, filter LedgerListFilter) ([]LedgerEntryResponse, int64, error) {
	switch {
	case filter.AccountID != nil:
		return s.ListLedgerByAccount(ctx, *filter.AccountID, filter)
	case filter.ReferenceKind != "" || filter.ReferenceID != nil:
		if filter.ReferenceID == nil {
			return nil, 0, shared.NewValidationError("reference_id is required with reference_kind.")
		}
		return s.ListLedgerByReference(ctx, inventory.ReferenceKind(filter.ReferenceKind), *filter.ReferenceID, filter)
	case filter.From != nil || filter.To != nil:
		from, to := time.Time{}, time.Now()
		if filter.From != nil {
			from = *filter.From
		}
		if filter.To != nil {
			// the upper date is inclusive for callers
			to = filter.To.AddDate(0, 0, 1)
		}
		return s.ListLedgerByDateRange(ctx, from, to, filter)
	default:
		return nil, 0, shared.NewValidationError("Select an account, a reference or a date range.")
	}
}

// ListLedgerByAccount lists the entries of one account, newest first
func (s *Service) ListLedgerByAccount(ctx context.Context, accountID uuid.UUID, filter LedgerListFilter) ([]LedgerEntryResponse, int64, error) {
	entries, total, err := s.repos.Ledger().FindByAccount(ctx, accountID, filter.ToFilter())
	if err != nil {
		return nil, 0, err
	}
	return ToLedgerEntryResponses(entries), total, nil
}

// ListLedgerByReference lists the entries caused by one document
func (s *Service) ListLedgerByReference(ctx context.Context, kind inventory.ReferenceKind, referenceID uuid.UUID, filter LedgerListFilter) ([]LedgerEntryResponse, int64, error) {
	if !kind.IsValid() {
		return nil, 0, shared.NewValidationError("Invalid reference kind: " + string(kind))
	}
	entries, total, err := s.repos.Ledger().FindByReference(ctx, kind, referenceID, filter.ToFilter())
	if err != nil {
		return nil, 0, err
	}
	return ToLedgerEntryResponses(entries), total, nil
}

// ListLedgerByDateRange lists entries created in [from, to)
func (s *Service) ListLedgerByDateRange(ctx context.Context, from, to time.Time, filter LedgerListFilter) ([]LedgerEntryResponse, int64, error) {
	if !to.After(from) {
		return nil, 0, shared.NewValidationError("End date must be after start date.")
	}
	entries, total, err := s.repos.Ledger().FindByDateRange(ctx, from, to, filter.ToFilter())
	if err != nil {
		return nil, 0, err
	}
	return ToLedgerEntryResponses(entries), total, nil
}

func (s *Service) checkVendors(ctx context.Context, repos unitofwork.Repositories, primary uuid.UUID, additional []uuid.UUID) error {
	ids := append([]uuid.UUID{primary}, additional...)
	partners, err := repos.Partners().FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		p, ok := partners[id]
		if !ok {
			return shared.NewNotFoundError("Vendor")
		}
		if err := p.EnsureSupplier(); err != nil {
			return err
		}
	}
	return nil
}

// vendorList renders vendor ids in a stable order for audit diffs
func vendorList(ids []uuid.UUID) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}
