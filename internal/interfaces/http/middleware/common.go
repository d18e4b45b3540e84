// Package middleware holds the gin middleware chain of the stock engine API.
package middleware

import (
	"fmt"
	"time"

	"github.com/erp/stockengine/internal/infrastructure/logger"
	"github.com/erp/stockengine/internal/interfaces/http/dto"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Request and actor headers
const (
	HeaderRequestID      = "X-Request-ID"
	HeaderActorID        = "X-Actor-ID"
	HeaderActorName      = "X-Actor-Name"
	HeaderIdempotencyKey = "Idempotency-Key"

	maxRequestIDLength = 128
)

// CORS allows cross-origin calls from origins. An empty list allows any
// origin without credentials.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AddAllowHeaders(HeaderRequestID, HeaderActorID, HeaderActorName, HeaderIdempotencyKey, "Accept")
	cfg.AddExposeHeaders(HeaderRequestID, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After")
	cfg.MaxAge = 12 * time.Hour
	return cors.New(cfg)
}

// RequestID propagates X-Request-ID or generates one. The id is stored in the
// gin context and attached to base, which becomes the request context logger.
func RequestID(base *zap.Logger) gin.HandlerFunc {
	if base == nil {
		base = zap.NewNop()
	}

	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}
		c.Set(logger.GinKeyRequestID, requestID)
		c.Writer.Header().Set(HeaderRequestID, requestID)

		ctx := c.Request.Context()
		ctx, _ = logger.WithRequestID(ctx, base, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// SecurityConfig holds configuration for security headers
type SecurityConfig struct {
	HSTSEnabled           bool
	HSTSMaxAge            int // in seconds
	HSTSIncludeSubdomains bool
}

// DefaultSecurityConfig returns settings for plain HTTP behind a proxy
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
	}
}

// Secure adds security headers to responses using default configuration
func Secure() gin.HandlerFunc {
	return SecureWithConfig(DefaultSecurityConfig())
}

// SecureWithConfig adds security headers to responses. The API only serves
// JSON, so the content security policy denies everything.
func SecureWithConfig(cfg SecurityConfig) gin.HandlerFunc {
	var hstsValue string
	if cfg.HSTSEnabled {
		hstsValue = fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			hstsValue += "; includeSubDomains"
		}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", "no-store")
		if hstsValue != "" {
			h.Set("Strict-Transport-Security", hstsValue)
		}
		c.Next()
	}
}

// abortWithError stops the chain with the standard error envelope
func abortWithError(c *gin.Context, status int, info dto.ErrorInfo) {
	info.RequestID = c.GetString(logger.GinKeyRequestID)
	c.Set(logger.GinKeyErrorCode, info.Code)
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(info))
}
