package partner

import (
	"context"

	"github.com/erp/stockengine/internal/application/unitofwork"
	"github.com/erp/stockengine/internal/domain/audit"
	"github.com/erp/stockengine/internal/domain/partner"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PartnerService manages vendors and buyers
type PartnerService struct {
	scope     unitofwork.TransactionScope
	repos     unitofwork.Repositories
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewPartnerService creates a new PartnerService
func NewPartnerService(scope unitofwork.TransactionScope, repos unitofwork.Repositories) *PartnerService {
	return &PartnerService{scope: scope, repos: repos, logger: zap.NewNop()}
}

// SetEventPublisher sets the event publisher for audit events
func (s *PartnerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetLogger sets the logger
func (s *PartnerService) SetLogger(logger *zap.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Create creates a new partner
func (s *PartnerService) Create(ctx context.Context, req CreatePartnerRequest, actor shared.Actor) (*PartnerResponse, error) {
	partnerType, err := partner.ParsePartnerType(req.Type)
	if err != nil {
		return nil, err
	}
	p, err := partner.NewPartner(req.Name, partnerType)
	if err != nil {
		return nil, err
	}
	p.SetContact(req.Phone, req.Email, req.Address)

	err = unitofwork.Run(ctx, s.scope, s.publisher, s.logger, func(repos unitofwork.Repositories, rec *unitofwork.EventRecorder) error {
		if err := repos.Partners().Save(ctx, p); err != nil {
			return err
		}
		rec.AddChange(audit.Created(audit.EntityPartner, p.ID, p.AuditSnapshot(), actor))
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := ToPartnerResponse(p)
	return &out, nil
}

// GetByID retrieves a partner by ID
func (s *PartnerService) GetByID(ctx context.Context, id uuid.UUID) (*PartnerResponse, error) {
	p, err := s.repos.Partners().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := ToPartnerResponse(p)
	return &out, nil
}

// List returns a page of partners, optionally of one type
func (s *PartnerService) List(ctx context.Context, filter PartnerListFilter) ([]PartnerResponse, int64, error) {
	var partnerType partner.PartnerType
	if filter.Type != "" {
		t, err := partner.ParsePartnerType(filter.Type)
		if err != nil {
			return nil, 0, err
		}
		partnerType = t
	}
	partners, total, err := s.repos.Partners().FindAll(ctx, filter.ToFilter(), partnerType)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PartnerResponse, len(partners))
	for i := range partners {
		out[i] = ToPartnerResponse(&partners[i])
	}
	return out, total, nil
}
