package handler

import (
	"context"

	"github.com/erp/stockengine/internal/application/production"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProductionOrderHandler handles production order endpoints
type ProductionOrderHandler struct {
	BaseHandler
	svc *production.Service
}

// NewProductionOrderHandler creates a new ProductionOrderHandler
func NewProductionOrderHandler(svc *production.Service) *ProductionOrderHandler {
	return &ProductionOrderHandler{svc: svc}
}

// Create creates a production order. In immediate mode raw materials are
// consumed at once; in rm_request mode they wait for Release.
// POST /production-orders
func (h *ProductionOrderHandler) Create(c *gin.Context) {
	var req production.CreateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.svc.CreateOrder(c.Request.Context(), req, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// List lists production orders
// GET /production-orders
func (h *ProductionOrderHandler) List(c *gin.Context) {
	var filter production.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	orders, total, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	f := filter.ToFilter()
	h.SuccessWithMeta(c, orders, total, f.Page, f.PageSize)
}

// GetByID returns one production order with its material lines
// GET /production-orders/:id
func (h *ProductionOrderHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "production order")
	if !ok {
		return
	}

	order, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Release consumes the requested raw materials
// POST /production-orders/:id/release
func (h *ProductionOrderHandler) Release(c *gin.Context) {
	h.transition(c, h.svc.Release)
}

// Reject rejects a pending raw material request
// POST /production-orders/:id/reject
func (h *ProductionOrderHandler) Reject(c *gin.Context) {
	h.transition(c, h.svc.Reject)
}

// Cancel cancels an order and reverses its stock movements
// POST /production-orders/:id/cancel
func (h *ProductionOrderHandler) Cancel(c *gin.Context) {
	h.transition(c, h.svc.Cancel)
}

// SetStatus moves an order along its lifecycle
// POST /production-orders/:id/status
func (h *ProductionOrderHandler) SetStatus(c *gin.Context) {
	id, ok := h.pathID(c, "production order")
	if !ok {
		return
	}

	var req production.SetStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.svc.SetStatus(c.Request.Context(), id, req, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Complete records produced and scrapped quantities
// POST /production-orders/:id/complete
func (h *ProductionOrderHandler) Complete(c *gin.Context) {
	id, ok := h.pathID(c, "production order")
	if !ok {
		return
	}

	var req production.CompleteRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.svc.Complete(c.Request.Context(), id, req, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

type orderAction func(ctx context.Context, id uuid.UUID, actor shared.Actor) (*production.OrderResponse, error)

func (h *ProductionOrderHandler) transition(c *gin.Context, action orderAction) {
	id, ok := h.pathID(c, "production order")
	if !ok {
		return
	}

	order, err := action(c.Request.Context(), id, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
