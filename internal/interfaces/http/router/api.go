package router

import (
	"time"

	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/logger"
	"github.com/erp/stockengine/internal/infrastructure/telemetry"
	"github.com/erp/stockengine/internal/interfaces/http/handler"
	"github.com/erp/stockengine/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultMaxBodySize = 1 << 20

// Handlers bundles the domain handlers mounted by the API
type Handlers struct {
	System          *handler.SystemHandler
	Materials       *handler.MaterialHandler
	Partners        *handler.PartnerHandler
	Products        *handler.ProductHandler
	ProductionOrder *handler.ProductionOrderHandler
	PurchaseOrder   *handler.PurchaseOrderHandler
}

// EngineOptions configures the middleware chain
type EngineOptions struct {
	Logger         *zap.Logger
	ServiceName    string
	MeterProvider  *telemetry.MeterProvider
	TracingEnabled bool
	CORSOrigins    []string
	MaxBodySize    int64
	TrustedProxies []string
	Security       middleware.SecurityConfig
	RequireActor   bool
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *middleware.RateLimiter
	// Idempotency is optional; nil disables Idempotency-Key handling.
	Idempotency    shared.IdempotencyStore
	IdempotencyTTL time.Duration
}

// NewEngine builds a gin engine with the standard middleware chain
func NewEngine(opts EngineOptions) (*gin.Engine, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = defaultMaxBodySize
	}
	if opts.ServiceName == "" {
		opts.ServiceName = middleware.DefaultTracingConfig().ServiceName
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		middleware.RequestID(log),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: opts.ServiceName,
			Enabled:     opts.TracingEnabled,
		}),
		middleware.SpanErrorMarker(),
		middleware.SecureWithConfig(opts.Security),
		middleware.CORS(opts.CORSOrigins),
		middleware.BodyLimit(opts.MaxBodySize),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: opts.MeterProvider,
			Enabled:       opts.MeterProvider != nil && opts.MeterProvider.IsEnabled(),
		}),
	)
	return engine, nil
}

// APIMiddleware returns the per-caller middleware applied to domain routes
func APIMiddleware(opts EngineOptions) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{
		middleware.Actor(opts.RequireActor),
		middleware.TracingAttributeInjector(),
	}
	if opts.RateLimiter != nil {
		chain = append(chain, middleware.RateLimit(opts.RateLimiter))
	}
	if opts.Idempotency != nil {
		chain = append(chain, middleware.Idempotency(opts.Idempotency, opts.IdempotencyTTL))
	}
	return chain
}

// Mount registers the health probes and every domain group on engine
func Mount(engine *gin.Engine, h Handlers, opts EngineOptions) *Router {
	if h.System != nil {
		engine.GET("/health", h.System.Health)
		engine.GET("/ping", h.System.Ping)
	}

	chain := APIMiddleware(opts)
	r := NewRouter(engine)

	if h.Materials != nil {
		r.Register(
			NewDomainGroup("materials", "/materials").Use(chain...).
				POST("", h.Materials.Register).
				GET("", h.Materials.List).
				GET("/low-stock", h.Materials.ListLowStock).
				GET("/:id", h.Materials.GetByID).
				PUT("/:id", h.Materials.Update).
				POST("/:id/adjust", h.Materials.Adjust),
			NewDomainGroup("ledger", "/ledger").Use(chain...).
				GET("", h.Materials.Ledger),
		)
	}
	if h.Partners != nil {
		r.Register(NewDomainGroup("partners", "/partners").Use(chain...).
			POST("", h.Partners.Create).
			GET("", h.Partners.List).
			GET("/:id", h.Partners.GetByID))
	}
	if h.Products != nil {
		r.Register(NewDomainGroup("products", "/products").Use(chain...).
			POST("", h.Products.Create).
			GET("", h.Products.List).
			GET("/:id", h.Products.GetByID).
			PUT("/:id", h.Products.Update).
			PUT("/:id/bom", h.Products.ReplaceBOM).
			GET("/:id/bom", h.Products.GetBOM))
	}
	if h.ProductionOrder != nil {
		r.Register(NewDomainGroup("production", "/production-orders").Use(chain...).
			POST("", h.ProductionOrder.Create).
			GET("", h.ProductionOrder.List).
			GET("/:id", h.ProductionOrder.GetByID).
			POST("/:id/release", h.ProductionOrder.Release).
			POST("/:id/reject", h.ProductionOrder.Reject).
			POST("/:id/status", h.ProductionOrder.SetStatus).
			POST("/:id/complete", h.ProductionOrder.Complete).
			POST("/:id/cancel", h.ProductionOrder.Cancel))
	}
	if h.PurchaseOrder != nil {
		r.Register(NewDomainGroup("purchasing", "/purchase-orders").Use(chain...).
			POST("", h.PurchaseOrder.Create).
			GET("", h.PurchaseOrder.List).
			GET("/:id", h.PurchaseOrder.GetByID).
			POST("/:id/receive", h.PurchaseOrder.Receive).
			POST("/:id/cancel", h.PurchaseOrder.Cancel).
			POST("/:id/reopen", h.PurchaseOrder.Reopen))
	}

	r.Setup()
	return r
}
