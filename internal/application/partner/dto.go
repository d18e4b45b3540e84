package partner

import (
	"time"

	"github.com/erp/stockengine/internal/domain/partner"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
)

// CreatePartnerRequest represents a request to create a partner
type CreatePartnerRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200"`
	Type    string `json:"type" binding:"required"`
	Phone   string `json:"phone" binding:"max=50"`
	Email   string `json:"email" binding:"omitempty,email,max=200"`
	Address string `json:"address" binding:"max=500"`
}

// PartnerListFilter represents filter options for partner list
type PartnerListFilter struct {
	Search   string `form:"search"`
	Type     string `form:"type"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ToFilter converts the list filter to a domain filter
func (f PartnerListFilter) ToFilter() shared.Filter {
	return shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
	}.Normalized()
}

// PartnerResponse represents a partner in API responses
type PartnerResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CanSupply bool      `json:"can_supply"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToPartnerResponse converts a domain partner to a response
func ToPartnerResponse(p *partner.Partner) PartnerResponse {
	return PartnerResponse{
		ID:        p.ID,
		Name:      p.Name,
		Type:      string(p.Type),
		Phone:     p.Phone,
		Email:     p.Email,
		Address:   p.Address,
		CanSupply: p.CanSupply(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
