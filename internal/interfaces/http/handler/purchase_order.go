package handler

import (
	"github.com/erp/stockengine/internal/application/purchasing"
	"github.com/gin-gonic/gin"
)

// PurchaseOrderHandler handles purchase order endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	svc *purchasing.Service
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(svc *purchasing.Service) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{svc: svc}
}

// Create splits the requested lines by vendor and creates one order per vendor
// POST /purchase-orders
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req purchasing.CreateGroupedRequest
	if !h.bindJSON(c, &req) {
		return
	}

	orders, err := h.svc.CreateGrouped(c.Request.Context(), req, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, orders)
}

// List lists purchase orders
// GET /purchase-orders
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var filter purchasing.OrderListFilter
	vendorID, ok := h.queryID(c, "vendor_id")
	if !ok {
		return
	}
	var query struct {
		Search   string `form:"search"`
		Status   string `form:"status"`
		Page     int    `form:"page" binding:"omitempty,min=1"`
		PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
		OrderBy  string `form:"order_by"`
		OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	}
	if !h.bindQuery(c, &query) {
		return
	}
	filter = purchasing.OrderListFilter{
		Search:   query.Search,
		Status:   query.Status,
		VendorID: vendorID,
		Page:     query.Page,
		PageSize: query.PageSize,
		OrderBy:  query.OrderBy,
		OrderDir: query.OrderDir,
	}

	orders, total, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	f := filter.ToFilter()
	h.SuccessWithMeta(c, orders, total, f.Page, f.PageSize)
}

// GetByID returns one purchase order
// GET /purchase-orders/:id
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "purchase order")
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

// Receive books received quantities into stock. An empty body receives
// everything still pending.
// POST /purchase-orders/:id/receive
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	id, ok := h.pathID(c, "purchase order")
	if !ok {
		return
	}

	var req purchasing.ReceiveRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	order, err := h.svc.Receive(c.Request.Context(), id, req, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Cancel stops further receipts on an order
// POST /purchase-orders/:id/cancel
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	id, ok := h.pathID(c, "purchase order")
	if !ok {
		return
	}

	order, err := h.svc.Cancel(c.Request.Context(), id, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Reopen moves a cancelled order back to Ordered
// POST /purchase-orders/:id/reopen
func (h *PurchaseOrderHandler) Reopen(c *gin.Context) {
	id, ok := h.pathID(c, "purchase order")
	if !ok {
		return
	}

	order, err := h.svc.Reopen(c.Request.Context(), id, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
