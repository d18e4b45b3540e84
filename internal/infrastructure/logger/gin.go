package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Gin context keys shared with the HTTP middleware
const (
	GinKeyLogger    = "logger"
	GinKeyRequestID = "request_id"
	GinKeyActorID   = "actor_id"
	GinKeyErrorCode = "error_code"
)

const errCodeInternal = "ERR_INTERNAL"

// GinMiddleware writes one access log entry per request once the handler
// chain has finished. The level follows the status: 5xx error, 4xx warn.
func GinMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLogger := logger.With(
			zap.String("request_id", c.GetString(GinKeyRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
		c.Set(GinKeyLogger, reqLogger)
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if route := c.FullPath(); route != "" {
			fields = append(fields, zap.String("route", route))
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		// Actor middleware runs inside the api group, after this one
		if actorID := c.GetString(GinKeyActorID); actorID != "" {
			fields = append(fields, zap.String("actor_id", actorID))
		}
		if name := GetActorName(c.Request.Context()); name != "" {
			fields = append(fields, zap.String("actor_name", name))
		}
		if code := c.GetString(GinKeyErrorCode); code != "" {
			fields = append(fields, zap.String("error_code", code))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		if ce := reqLogger.Check(levelFor(status), "HTTP Request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func levelFor(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// Recovery turns a panic into a 500 ERR_INTERNAL response and logs the stack
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			l := logger
			if scoped, ok := c.Get(GinKeyLogger); ok {
				if sl, ok := scoped.(*zap.Logger); ok {
					l = sl
				}
			}
			l.Error("Panic recovered",
				zap.String("request_id", c.GetString(GinKeyRequestID)),
				zap.String("route", c.FullPath()),
				zap.Any("error", rec),
				zap.Stack("stacktrace"),
			)
			c.Set(GinKeyErrorCode, errCodeInternal)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":       errCodeInternal,
					"message":    "An unexpected error occurred",
					"retryable":  false,
					"request_id": c.GetString(GinKeyRequestID),
				},
			})
		}()
		c.Next()
	}
}

// GetGinLogger returns the request logger set by GinMiddleware, or a no-op logger
func GetGinLogger(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(GinKeyLogger); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}
