package handler

import (
	"github.com/erp/stockengine/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// ProductHandler handles finished product and BOM endpoints
type ProductHandler struct {
	BaseHandler
	svc *catalog.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(svc *catalog.ProductService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

// Create creates a product together with its finished goods account
// POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req catalog.CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.svc.Create(c.Request.Context(), req, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// List lists products
// GET /products
func (h *ProductHandler) List(c *gin.Context) {
	var filter catalog.ProductListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	products, total, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	f := filter.ToFilter()
	h.SuccessWithMeta(c, products, total, f.Page, f.PageSize)
}

// GetByID returns one product
// GET /products/:id
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "product")
	if !ok {
		return
	}

	product, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Update renames a product
// PUT /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "product")
	if !ok {
		return
	}

	var req catalog.UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.svc.Update(c.Request.Context(), id, req, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// ReplaceBOM replaces the product's bill of materials
// PUT /products/:id/bom
func (h *ProductHandler) ReplaceBOM(c *gin.Context) {
	id, ok := h.pathID(c, "product")
	if !ok {
		return
	}

	var req catalog.ReplaceBOMRequest
	if !h.bindJSON(c, &req) {
		return
	}

	bom, err := h.svc.ReplaceBOM(c.Request.Context(), id, req, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bom)
}

// GetBOM returns the product's bill of materials
// GET /products/:id/bom
func (h *ProductHandler) GetBOM(c *gin.Context) {
	id, ok := h.pathID(c, "product")
	if !ok {
		return
	}

	bom, err := h.svc.GetBOM(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bom)
}
