package catalog

import (
	"context"

	"github.com/erp/stockengine/internal/application/unitofwork"
	"github.com/erp/stockengine/internal/domain/audit"
	"github.com/erp/stockengine/internal/domain/catalog"
	"github.com/erp/stockengine/internal/domain/inventory"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/logger"
	"github.com/erp/stockengine/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const serviceName = "catalog"

// ProductService manages products and their bills of materials
type ProductService struct {
	scope     unitofwork.TransactionScope
	repos     unitofwork.Repositories
	publisher shared.EventPublisher
	metrics   *telemetry.EngineMetrics
	logger    *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(scope unitofwork.TransactionScope, repos unitofwork.Repositories) *ProductService {
	return &ProductService{
		scope:  scope,
		repos:  repos,
		logger: zap.NewNop(),
	}
}

// SetEventPublisher sets the event publisher for audit events
func (s *ProductService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetMetrics sets the engine metrics
func (s *ProductService) SetMetrics(metrics *telemetry.EngineMetrics) {
	s.metrics = metrics
}

// SetLogger sets the logger
func (s *ProductService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest, actor shared.Actor) (resp *ProductResponse, err error) {
	ctx, op := unitofwork.Begin(ctx, s.metrics, serviceName, "CreateProduct")
	defer func() { op.End(ctx, err) }()

	product, err := catalog.NewProduct(req.SKU, req.Name)
	if err != nil {
		return nil, err
	}

	err = unitofwork.Run(ctx, s.scope, s.publisher, s.logger, func(repos unitofwork.Repositories, rec *unitofwork.EventRecorder) error {
		exists, err := repos.Products().ExistsBySKU(ctx, product.SKU)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Product with SKU "+product.SKU+" already exists.")
		}
		if err := repos.Products().Save(ctx, product); err != nil {
			return err
		}
		rec.AddChange(audit.Created(audit.EntityProduct, product.ID, product.AuditSnapshot(), actor))
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Scoped(ctx, s.logger).Info("Product created", zap.String("product_id", product.ID.String()), zap.String("sku", product.SKU))
	out := ToProductResponse(product)
	return &out, nil
}

// Update renames a product
func (s *ProductService) Update(ctx context.Context, productID uuid.UUID, req UpdateProductRequest, actor shared.Actor) (*ProductResponse, error) {
	var product *catalog.Product
	err := unitofwork.Run(ctx, s.scope, s.publisher, s.logger, func(repos unitofwork.Repositories, rec *unitofwork.EventRecorder) error {
		var err error
		product, err = repos.Products().FindByID(ctx, productID)
		if err != nil {
			return err
		}
		before := product.AuditSnapshot()
		if err := product.Rename(req.Name); err != nil {
			return err
		}
		if err := repos.Products().Save(ctx, product); err != nil {
			return err
		}
		rec.AddChange(audit.Updated(audit.EntityProduct, product.ID, before, product.AuditSnapshot(), actor))
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := ToProductResponse(product)
	return &out, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.repos.Products().FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := ToProductResponse(product)
	return &out, nil
}

// List returns a page of products
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	products, total, err := s.repos.Products().FindAll(ctx, filter.ToFilter())
	if err != nil {
		return nil, 0, err
	}
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out, total, nil
}

// ReplaceBOM replaces the bill of materials of a product. Existing production
// orders keep their consumption snapshots.
func (s *ProductService) ReplaceBOM(ctx context.Context, productID uuid.UUID, req ReplaceBOMRequest, actor shared.Actor) (resp *BOMResponse, err error) {
	ctx, op := unitofwork.Begin(ctx, s.metrics, serviceName, "ReplaceBOM")
	defer func() { op.End(ctx, err) }()

	if len(req.Lines) == 0 {
		return nil, shared.NewValidationError("Add at least one raw material to the bill of materials.")
	}

	var (
		product *catalog.Product
		lines   []catalog.BOMLine
	)
	err = unitofwork.Run(ctx, s.scope, s.publisher, s.logger, func(repos unitofwork.Repositories, rec *unitofwork.EventRecorder) error {
		var err error
		product, err = repos.Products().FindByID(ctx, productID)
		if err != nil {
			return err
		}

		ids := make([]uuid.UUID, len(req.Lines))
		for i, in := range req.Lines {
			ids[i] = in.AccountID
		}
		accounts, err := repos.Accounts().FindByIDs(ctx, ids)
		if err != nil {
			return err
		}

		lines = make([]catalog.BOMLine, 0, len(req.Lines))
		for _, in := range req.Lines {
			account, ok := accounts[in.AccountID]
			if !ok {
				return shared.NewNotFoundError("Material")
			}
			if account.Kind != inventory.AccountKindRawMaterial {
				return shared.NewValidationError("Only raw materials can be used in a bill of materials: " + account.Name + ".")
			}
			line, err := catalog.NewBOMLine(product.ID, account.ID, inventory.RoundQuantity(in.QtyPerUnit))
			if err != nil {
				return err
			}
			line.MaterialName = account.Name
			line.Unit = account.Unit
			lines = append(lines, *line)
		}
		if err := catalog.ValidateBOM(product.ID, lines); err != nil {
			return err
		}

		previous, err := repos.BOMs().FindByProduct(ctx, product.ID)
		if err != nil {
			return err
		}
		if err := repos.BOMs().ReplaceForProduct(ctx, product.ID, lines); err != nil {
			return err
		}
		rec.AddChange(audit.Updated(audit.EntityBOM, product.ID, catalog.BOMSnapshot(previous), catalog.BOMSnapshot(lines), actor))
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Scoped(ctx, s.logger).Info("Bill of materials replaced",
		zap.String("product_id", product.ID.String()),
		zap.Int("lines", len(lines)),
		zap.String("actor_id", actor.ID.String()),
	)
	out := ToBOMResponse(product, lines)
	return &out, nil
}

// GetBOM returns the bill of materials of a product
func (s *ProductService) GetBOM(ctx context.Context, productID uuid.UUID) (*BOMResponse, error) {
	product, err := s.repos.Products().FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repos.BOMs().FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := ToBOMResponse(product, lines)
	return &out, nil
}
