package handler

import (
	"time"

	"github.com/erp/stockengine/internal/application/stock"
	"github.com/gin-gonic/gin"
)

// MaterialHandler handles material account and ledger endpoints
type MaterialHandler struct {
	BaseHandler
	svc *stock.Service
}

// NewMaterialHandler creates a new MaterialHandler
func NewMaterialHandler(svc *stock.Service) *MaterialHandler {
	return &MaterialHandler{svc: svc}
}

// Register registers a raw material or MRO account
// POST /materials
func (h *MaterialHandler) Register(c *gin.Context) {
	var req stock.RegisterMaterialRequest
	if !h.bindJSON(c, &req) {
		return
	}

	account, err := h.svc.RegisterMaterial(c.Request.Context(), req, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// List lists material accounts
// GET /materials
func (h *MaterialHandler) List(c *gin.Context) {
	var filter stock.AccountListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	accounts, total, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	f := filter.ToFilter()
	h.SuccessWithMeta(c, accounts, total, f.Page, f.PageSize)
}

// ListLowStock lists accounts at or below their reorder threshold
// GET /materials/low-stock
func (h *MaterialHandler) ListLowStock(c *gin.Context) {
	var filter stock.AccountListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	accounts, total, err := h.svc.ListLowStock(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	f := filter.ToFilter()
	h.SuccessWithMeta(c, accounts, total, f.Page, f.PageSize)
}

// GetByID returns one account with its balance
// GET /materials/:id
func (h *MaterialHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "account")
	if !ok {
		return
	}

	account, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Update replaces the details and vendors of a raw material or MRO item
// PUT /materials/:id
func (h *MaterialHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "account")
	if !ok {
		return
	}

	var req stock.UpdateMaterialRequest
	if !h.bindJSON(c, &req) {
		return
	}

	account, err := h.svc.UpdateMaterial(c.Request.Context(), id, req, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Adjust applies a manual correction to an account
// POST /materials/:id/adjust
func (h *MaterialHandler) Adjust(c *gin.Context) {
	id, ok := h.pathID(c, "account")
	if !ok {
		return
	}

	var req stock.AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.AccountID = id

	account, err := h.svc.AdjustStock(c.Request.Context(), req, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Ledger lists ledger entries by account, by reference or by date range.
// Dates use YYYY-MM-DD and both bounds are inclusive.
// GET /ledger
func (h *MaterialHandler) Ledger(c *gin.Context) {
	var filter stock.LedgerListFilter
	var ok bool

	if filter.AccountID, ok = h.queryID(c, "account_id"); !ok {
		return
	}
	if filter.ReferenceID, ok = h.queryID(c, "reference_id"); !ok {
		return
	}
	if filter.From, ok = h.queryDate(c, "from"); !ok {
		return
	}
	if filter.To, ok = h.queryDate(c, "to"); !ok {
		return
	}
	filter.ReferenceKind = c.Query("reference_kind")

	var page struct {
		Page     int `form:"page" binding:"omitempty,min=1"`
		PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
	}
	if !h.bindQuery(c, &page) {
		return
	}
	filter.Page, filter.PageSize = page.Page, page.PageSize

	entries, total, err := h.svc.ListLedger(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	f := filter.ToFilter()
	h.SuccessWithMeta(c, entries, total, f.Page, f.PageSize)
}

func (h *MaterialHandler) queryDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" date, expected YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}
