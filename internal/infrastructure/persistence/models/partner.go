package models

import (
	"github.com/erp/stockengine/internal/domain/partner"
)

// PartnerModel is the persistence model for a partner
type PartnerModel struct {
	BaseModel
	Name    string              `gorm:"type:varchar(200);not null;index"`
	Type    partner.PartnerType `gorm:"type:varchar(20);not null;index"`
	Phone   string              `gorm:"type:varchar(50)"`
	Email   string              `gorm:"type:varchar(200)"`
	Address string              `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PartnerModel) TableName() string {
	return "partners"
}

// ToDomain converts the persistence model to a domain Partner.
func (m *PartnerModel) ToDomain() *partner.Partner {
	return &partner.Partner{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Type:       m.Type,
		Phone:      m.Phone,
		Email:      m.Email,
		Address:    m.Address,
	}
}

// PartnerModelFromDomain creates a new persistence model from a domain Partner.
func PartnerModelFromDomain(p *partner.Partner) *PartnerModel {
	m := &PartnerModel{
		Name:    p.Name,
		Type:    p.Type,
		Phone:   p.Phone,
		Email:   p.Email,
		Address: p.Address,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
