package handler_test

import (
	"testing"

	"github.com/erp/stockengine/internal/interfaces/http/handler"
	"github.com/erp/stockengine/internal/interfaces/http/middleware"
	"github.com/erp/stockengine/internal/interfaces/http/router"
	"github.com/erp/stockengine/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testActorID = "9b2f3c1e-2d7c-4f7a-9a55-0d7d7e0f3a11"

// newAPI mounts every handler on the production middleware chain
func newAPI(t *testing.T) (*testutil.Harness, *gin.Engine) {
	t.Helper()

	h := testutil.NewHarness(t)
	opts := router.EngineOptions{}
	engine, err := router.NewEngine(opts)
	require.NoError(t, err)

	sqlDB, err := h.DB.DB()
	require.NoError(t, err)

	router.Mount(engine, router.Handlers{
		System:          handler.NewSystemHandler(sqlDB, "test"),
		Materials:       handler.NewMaterialHandler(h.Stock),
		Partners:        handler.NewPartnerHandler(h.Partners),
		Products:        handler.NewProductHandler(h.Products),
		ProductionOrder: handler.NewProductionOrderHandler(h.Production),
		PurchaseOrder:   handler.NewPurchaseOrderHandler(h.Purchasing),
	}, opts)
	return h, engine
}

func asOperator() map[string]string {
	return map[string]string{
		middleware.HeaderActorID:   testActorID,
		middleware.HeaderActorName: "Priya",
	}
}
