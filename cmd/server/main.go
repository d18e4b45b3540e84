// Command server runs the stock engine HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/erp/stockengine/internal/application/catalog"
	eventapp "github.com/erp/stockengine/internal/application/event"
	"github.com/erp/stockengine/internal/application/partner"
	"github.com/erp/stockengine/internal/application/production"
	"github.com/erp/stockengine/internal/application/purchasing"
	"github.com/erp/stockengine/internal/application/stock"
	"github.com/erp/stockengine/internal/infrastructure/cache"
	"github.com/erp/stockengine/internal/infrastructure/config"
	"github.com/erp/stockengine/internal/infrastructure/event"
	"github.com/erp/stockengine/internal/infrastructure/logger"
	"github.com/erp/stockengine/internal/infrastructure/migration"
	"github.com/erp/stockengine/internal/infrastructure/persistence"
	"github.com/erp/stockengine/internal/infrastructure/persistence/models"
	"github.com/erp/stockengine/internal/infrastructure/telemetry"
	"github.com/erp/stockengine/internal/interfaces/http/handler"
	"github.com/erp/stockengine/internal/interfaces/http/middleware"
	"github.com/erp/stockengine/internal/interfaces/http/router"
	"github.com/erp/stockengine/migrations"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "stockengine: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Environment:       cfg.App.Env,
		Insecure:          cfg.Telemetry.Insecure,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telCfg, bootLog)
	if err != nil {
		return err
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telCfg, bootLog)
	if err != nil {
		return err
	}
	logProvider, err := telemetry.NewLoggerProvider(ctx, telCfg, bootLog)
	if err != nil {
		return err
	}
	defer func() {
		// flush with a fresh context; ctx is already cancelled here
		shutdownCtx := context.Background()
		_ = logProvider.Shutdown(shutdownCtx)
		_ = meterProvider.Shutdown(shutdownCtx)
		_ = tracerProvider.Shutdown(shutdownCtx)
	}()

	var extra []zapcore.Core
	if logProvider.IsEnabled() {
		extra = append(extra, logProvider.Core(zapcore.InfoLevel))
	}
	log, err := logger.New(logCfg, extra...)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync(log) }()

	log.Info("Starting stock engine",
		zap.String("version", version),
		zap.String("env", cfg.App.Env),
		zap.String("driver", cfg.Database.Driver),
		zap.String("port", cfg.App.Port),
	)

	db, err := openDatabase(ctx, cfg, meterProvider, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	backend, err := cache.NewBackend(ctx, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
		cache.WithLockLease(cfg.Engine.OrderLockTTL, cfg.Engine.LockTimeout),
	)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	engineMetrics, err := telemetry.NewEngineMetrics(telemetry.EngineMetricsConfig{
		Meter:         meterProvider.Meter("stockengine"),
		Logger:        log,
		StockProvider: telemetry.NewGormStockMetricsProvider(db.DB),
	})
	if err != nil {
		return fmt.Errorf("create engine metrics: %w", err)
	}
	if meterProvider.IsEnabled() {
		engineMetrics.StartPeriodicCollection(ctx, 0)
	}
	defer engineMetrics.Stop()

	bus := event.NewInMemoryEventBus(log)
	subscribe(bus, backend, engineMetrics, db, log)
	if err := bus.Start(ctx); err != nil {
		return err
	}

	scope := persistence.NewGormTransactionScope(db.DB, cfg.Engine.LockTimeout)
	repos := persistence.NewRepositories(db.DB)

	stockSvc := stock.NewService(scope, repos)
	stockSvc.SetEventPublisher(bus)
	stockSvc.SetMetrics(engineMetrics)
	stockSvc.SetLogger(log)
	stockSvc.SetLocker(backend.Locker)

	productSvc := catalog.NewProductService(scope, repos)
	productSvc.SetEventPublisher(bus)
	productSvc.SetMetrics(engineMetrics)
	productSvc.SetLogger(log)

	partnerSvc := partner.NewPartnerService(scope, repos)
	partnerSvc.SetEventPublisher(bus)
	partnerSvc.SetLogger(log)

	productionSvc := production.NewService(scope, repos)
	productionSvc.SetEventPublisher(bus)
	productionSvc.SetMetrics(engineMetrics)
	productionSvc.SetLogger(log)
	productionSvc.SetLocker(backend.Locker)

	purchasingSvc := purchasing.NewService(scope, repos)
	purchasingSvc.SetEventPublisher(bus)
	purchasingSvc.SetMetrics(engineMetrics)
	purchasingSvc.SetLogger(log)
	purchasingSvc.SetLocker(backend.Locker)
	purchasingSvc.SetEnforceVendorCatalog(cfg.Engine.EnforceVendorCatalog)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
		defer limiter.Close()
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}

	opts := router.EngineOptions{
		Logger:         log,
		ServiceName:    cfg.Telemetry.ServiceName,
		MeterProvider:  meterProvider,
		TracingEnabled: tracerProvider.IsEnabled(),
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Security:       middleware.DefaultSecurityConfig(),
		RateLimiter:    limiter,
		Idempotency:    backend.Idempotency,
		IdempotencyTTL: cfg.HTTP.IdempotencyTTL,
	}
	engine, err := router.NewEngine(opts)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}
	router.Mount(engine, router.Handlers{
		System:          handler.NewSystemHandler(sqlDB, version),
		Materials:       handler.NewMaterialHandler(stockSvc),
		Partners:        handler.NewPartnerHandler(partnerSvc),
		Products:        handler.NewProductHandler(productSvc),
		ProductionOrder: handler.NewProductionOrderHandler(productionSvc),
		PurchaseOrder:   handler.NewPurchaseOrderHandler(purchasingSvc),
	}, opts)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not drain", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}

// openDatabase connects with the zap-backed GORM logger, registers query
// instrumentation and brings the schema up to date when configured to.
func openDatabase(ctx context.Context, cfg *config.Config, mp *telemetry.MeterProvider, log *zap.Logger) (*persistence.Database, error) {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithLockWaitThreshold(cfg.Engine.LockTimeout/2),
		logger.WithContentionClassifier(persistence.IsLockContention),
	)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		return nil, err
	}

	dbSystem := "postgresql"
	if db.Driver() == config.DriverSQLite {
		dbSystem = "sqlite"
	}
	inst, err := telemetry.NewDBInstrumentation(mp.Meter("stockengine/db"), telemetry.DBConfig{
		DBSystem:           dbSystem,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		Tracing:            cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		IncludeQueryVars:   cfg.Telemetry.DBLogFullSQL,
	}, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create db instrumentation: %w", err)
	}
	if err := db.DB.Use(inst); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("register db instrumentation: %w", err)
	}
	if mp.IsEnabled() {
		inst.StartPoolStatsCollection(ctx)
	}

	if cfg.Database.AutoMigrate {
		if err := migrateSchema(cfg, db, log); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	log.Info("Database connected", zap.String("driver", db.Driver()))
	return db, nil
}

func migrateSchema(cfg *config.Config, db *persistence.Database, log *zap.Logger) error {
	if db.Driver() == config.DriverSQLite {
		log.Info("Creating sqlite schema")
		return db.AutoMigrate(models.AllModels()...)
	}

	// the migrator closes its connection, so it gets its own
	sqlDB, err := migration.OpenDB(cfg.Database.DSN())
	if err != nil {
		return err
	}
	m, err := migration.NewEmbedded(sqlDB, migrations.FS, log)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}

// subscribe registers the committed-event consumers. The audit log dedupes
// on event id itself; the reorder alert goes through the idempotency store.
func subscribe(bus *event.InMemoryEventBus, backend *cache.Backend, metrics *telemetry.EngineMetrics, db *persistence.Database, log *zap.Logger) {
	bus.Subscribe(persistence.NewAuditLogHandler(db.DB, logger.ForService(log, "audit")))
	bus.Subscribe(eventapp.NewMetricsHandler(metrics))

	reorderLog := logger.ForService(log, "reorder")
	threshold := stock.NewStockBelowThresholdHandler(reorderLog).
		WithNotifier(stock.NewLoggingStockAlertNotifier(reorderLog))
	bus.Subscribe(event.NewIdempotentHandler(threshold, backend.Idempotency, reorderLog,
		event.WithKeyPrefix("reorder:"),
	))
}
