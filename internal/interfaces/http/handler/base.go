// Package handler adapts HTTP requests to the stock engine services.
package handler

import (
	"net/http"

	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/logger"
	"github.com/erp/stockengine/internal/interfaces/http/dto"
	"github.com/erp/stockengine/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func requestID(c *gin.Context) string {
	return c.GetString(logger.GinKeyRequestID)
}

// actor returns the caller resolved by the actor middleware
func actor(c *gin.Context) shared.Actor {
	return middleware.ActorFrom(c)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// BadRequest sends a 400 with ERR_BAD_REQUEST
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.abort(c, http.StatusBadRequest, dto.ErrorInfo{Code: dto.ErrCodeBadRequest, Message: message})
}

// HandleError writes err as the standard error envelope. Domain errors keep
// their code, details and retry hint; anything else is a logged 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	status, info := dto.FromError(err, requestID(c))
	if status >= http.StatusInternalServerError {
		logger.GetGinLogger(c).Error("request failed", zap.Error(err))
	}
	h.abort(c, status, info)
}

func (h *BaseHandler) abort(c *gin.Context, status int, info dto.ErrorInfo) {
	if info.RequestID == "" {
		info.RequestID = requestID(c)
	}
	c.Set(logger.GinKeyErrorCode, info.Code)
	_ = c.Error(errorMessage(info))
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(info))
}

// bindJSON binds the body into dst, writing a 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// bindQuery binds query parameters into dst, writing a 400 on failure
func (h *BaseHandler) bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// pathID parses the :id path parameter
func (h *BaseHandler) pathID(c *gin.Context, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid "+entity+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional UUID query parameter
func (h *BaseHandler) queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.BadRequest(c, "Invalid "+name+" format")
		return nil, false
	}
	return &id, true
}

type errorMessage dto.ErrorInfo

func (e errorMessage) Error() string {
	return e.Code + ": " + e.Message
}
