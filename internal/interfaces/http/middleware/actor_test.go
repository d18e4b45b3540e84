package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func actorRouter(required bool, seen *shared.Actor, ctxActor *string) *gin.Engine {
	router := gin.New()
	router.Use(Actor(required))
	router.POST("/test", func(c *gin.Context) {
		*seen = ActorFrom(c)
		*ctxActor = logger.GetActorID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestActor(t *testing.T) {
	id := uuid.New()

	t.Run("reads id and name", func(t *testing.T) {
		var seen shared.Actor
		var ctxActor string
		router := actorRouter(false, &seen, &ctxActor)

		req := httptest.NewRequest(http.MethodPost, "/test", nil)
		req.Header.Set(HeaderActorID, id.String())
		req.Header.Set(HeaderActorName, "Priya")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, shared.NewActor(id, "Priya"), seen)
		assert.Equal(t, id.String(), ctxActor)
	})

	t.Run("missing headers fall back to the system actor", func(t *testing.T) {
		var seen shared.Actor
		var ctxActor string
		router := actorRouter(false, &seen, &ctxActor)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", nil))

		require.Equal(t, http.StatusNoContent, w.Code)
		assert.True(t, seen.IsSystem())
		assert.Empty(t, ctxActor)
	})

	t.Run("required actor missing", func(t *testing.T) {
		var seen shared.Actor
		var ctxActor string
		router := actorRouter(true, &seen, &ctxActor)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/test", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_MISSING_ACTOR")
	})

	t.Run("malformed id", func(t *testing.T) {
		var seen shared.Actor
		var ctxActor string
		router := actorRouter(false, &seen, &ctxActor)

		req := httptest.NewRequest(http.MethodPost, "/test", nil)
		req.Header.Set(HeaderActorID, "not-a-uuid")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_INVALID_INPUT")
	})
}

func TestActorFrom_WithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.True(t, ActorFrom(c).IsSystem())
}
