package middleware

import (
	"net/http"
	"strings"

	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/logger"
	"github.com/erp/stockengine/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ginKeyActor = "actor"

const maxActorNameLength = 150

// Actor reads the caller from X-Actor-ID and X-Actor-Name. Authentication
// happens upstream; the headers are trusted. Without an id the request runs
// as the system actor, or is rejected when required is set.
func Actor(required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawID := strings.TrimSpace(c.GetHeader(HeaderActorID))
		name := strings.TrimSpace(c.GetHeader(HeaderActorName))
		if len(name) > maxActorNameLength {
			name = name[:maxActorNameLength]
		}

		actor := shared.SystemActor()
		if rawID != "" {
			id, err := uuid.Parse(rawID)
			if err != nil {
				abortWithError(c, http.StatusBadRequest, dto.ErrorInfo{
					Code:    dto.ErrCodeInvalidInput,
					Message: HeaderActorID + " must be a UUID",
				})
				return
			}
			actor = shared.NewActor(id, name)
		} else if required {
			abortWithError(c, http.StatusUnauthorized, dto.ErrorInfo{
				Code:    dto.ErrCodeMissingActor,
				Message: HeaderActorID + " header is required",
			})
			return
		}

		c.Set(ginKeyActor, actor)

		ctx := c.Request.Context()
		actorID := ""
		if !actor.IsSystem() {
			actorID = actor.ID.String()
			c.Set(logger.GinKeyActorID, actorID)
		}
		ctx, _ = logger.WithActor(ctx, logger.FromContext(ctx), actorID, actor.Label())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ActorFrom returns the actor resolved by Actor, or the system actor
func ActorFrom(c *gin.Context) shared.Actor {
	if v, ok := c.Get(ginKeyActor); ok {
		if actor, ok := v.(shared.Actor); ok {
			return actor
		}
	}
	return shared.SystemActor()
}
