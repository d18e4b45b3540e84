package partner

import (
	"context"
	"strings"

	"github.com/erp/stockengine/internal/domain/audit"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
)

// PartnerType says which side of a trade a partner can be on
type PartnerType string

const (
	PartnerTypeSupplier PartnerType = "SUPPLIER"
	PartnerTypeBuyer    PartnerType = "BUYER"
	PartnerTypeBoth     PartnerType = "BOTH"
)

// IsValid checks if the partner type is valid
func (t PartnerType) IsValid() bool {
	switch t {
	case PartnerTypeSupplier, PartnerTypeBuyer, PartnerTypeBoth:
		return true
	}
	return false
}

// ParsePartnerType accepts the type case-insensitively
func ParsePartnerType(s string) (PartnerType, error) {
	t := PartnerType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", shared.NewValidationError("Partner type must be SUPPLIER, BUYER or BOTH.")
	}
	return t, nil
}

// Partner is a vendor or customer record. The engine only reads it to
// check supplier capability.
type Partner struct {
	shared.BaseEntity
	Name    string
	Type    PartnerType
	Phone   string
	Email   string
	Address string
}

// NewPartner creates a partner
func NewPartner(name string, partnerType PartnerType) (*Partner, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("Partner name cannot be empty.")
	}
	if len(name) > 200 {
		return nil, shared.NewValidationError("Partner name cannot exceed 200 characters.")
	}
	if !partnerType.IsValid() {
		return nil, shared.NewValidationError("Partner type must be SUPPLIER, BUYER or BOTH.")
	}
	return &Partner{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Type:       partnerType,
	}, nil
}

// SetContact updates contact details
func (p *Partner) SetContact(phone, email, address string) {
	p.Phone = strings.TrimSpace(phone)
	p.Email = strings.TrimSpace(email)
	p.Address = strings.TrimSpace(address)
	p.Touch()
}

// CanSupply reports whether purchase orders may be raised against the partner
func (p *Partner) CanSupply() bool {
	return p.Type == PartnerTypeSupplier || p.Type == PartnerTypeBoth
}

// EnsureSupplier returns a validation error if the partner cannot supply
func (p *Partner) EnsureSupplier() error {
	if !p.CanSupply() {
		return shared.NewValidationError("Selected vendor is not a supplier: " + p.Name + ".")
	}
	return nil
}

// AuditSnapshot implements audit.Snapshotter
func (p *Partner) AuditSnapshot() audit.Fields {
	return audit.Fields{
		"name":    p.Name,
		"type":    string(p.Type),
		"phone":   p.Phone,
		"email":   p.Email,
		"address": p.Address,
	}
}

// PartnerRepository persists partners
type PartnerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Partner, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Partner, error)
	FindAll(ctx context.Context, filter shared.Filter, partnerType PartnerType) ([]Partner, int64, error)
	Save(ctx context.Context, p *Partner) error
}
