package handler

import (
	"github.com/erp/stockengine/internal/application/partner"
	"github.com/gin-gonic/gin"
)

// PartnerHandler handles vendor and customer endpoints
type PartnerHandler struct {
	BaseHandler
	svc *partner.PartnerService
}

// NewPartnerHandler creates a new PartnerHandler
func NewPartnerHandler(svc *partner.PartnerService) *PartnerHandler {
	return &PartnerHandler{svc: svc}
}

// Create creates a partner
// POST /partners
func (h *PartnerHandler) Create(c *gin.Context) {
	var req partner.CreatePartnerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	p, err := h.svc.Create(c.Request.Context(), req, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, p)
}

// List lists partners
// GET /partners
func (h *PartnerHandler) List(c *gin.Context) {
	var filter partner.PartnerListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	partners, total, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	f := filter.ToFilter()
	h.SuccessWithMeta(c, partners, total, f.Page, f.PageSize)
}

// GetByID returns one partner
// GET /partners/:id
func (h *PartnerHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "partner")
	if !ok {
		return
	}

	p, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}
