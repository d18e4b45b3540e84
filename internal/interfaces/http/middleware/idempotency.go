package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/logger"
	"github.com/erp/stockengine/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxIdempotencyKeyLength = 128

// Idempotency rejects a replayed POST carrying an Idempotency-Key that was
// already accepted within ttl. The key is scoped to the actor and route. It
// is released again when the request fails with a retryable or server
// error, so the client may retry with the same key.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyConfig().TTL
	}

	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if c.Request.Method != http.MethodPost || key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			abortWithError(c, http.StatusBadRequest, dto.ErrorInfo{
				Code:    dto.ErrCodeInvalidInput,
				Message: HeaderIdempotencyKey + " is too long",
			})
			return
		}

		ctx := c.Request.Context()
		storeKey := idempotencyKey(c, key)
		isNew, err := store.MarkProcessed(ctx, storeKey, ttl)
		if err != nil {
			// Store outage: proceed without deduplication.
			logger.FromContext(ctx).Warn("idempotency store unavailable",
				zap.String("key", storeKey), zap.Error(err))
			c.Next()
			return
		}
		if !isNew {
			abortWithError(c, http.StatusConflict, dto.ErrorInfo{
				Code:    dto.ErrCodeDuplicateRequest,
				Message: "A request with this " + HeaderIdempotencyKey + " was already accepted",
			})
			return
		}

		c.Next()

		if status := c.Writer.Status(); status == http.StatusConflict || status >= http.StatusInternalServerError {
			if err := store.Forget(ctx, storeKey); err != nil {
				logger.FromContext(ctx).Warn("failed to release idempotency key",
					zap.String("key", storeKey), zap.Error(err))
			}
		}
	}
}

func idempotencyKey(c *gin.Context, key string) string {
	return "http:" + ActorFrom(c).ID.String() + ":" + c.Request.URL.Path + ":" + key
}
