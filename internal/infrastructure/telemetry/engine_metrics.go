package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineMetrics tracks stock movements, order transitions and the outcome
// of every engine operation.
type EngineMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	stockMovementTotal   *Counter
	stockQuantityTotal   *FloatCounter
	orderTransitionTotal *Counter
	operationTotal       *Counter
	shortageTotal        *Counter
	concurrencyConflicts *Counter
	operationDuration    *Histogram

	// Gauge metrics (point-in-time values)
	lowStockCount *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	stockProvider StockMetricsProvider
}

// StockMetricsProvider provides stock data for periodic metrics collection
// without the telemetry layer depending on the inventory domain.
type StockMetricsProvider interface {
	// GetLowStockCount returns the number of accounts at or below their reorder threshold
	GetLowStockCount(ctx context.Context) (int64, error)
}

// EngineMetricsConfig holds configuration for engine metrics.
type EngineMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	StockProvider   StockMetricsProvider
}

// NewEngineMetrics creates a new EngineMetrics instance.
func NewEngineMetrics(cfg EngineMetricsConfig) (*EngineMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &EngineMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		stockProvider: cfg.StockProvider,
	}

	var err error
	if m.stockMovementTotal, err = NewCounter(cfg.Meter,
		"stockengine_stock_movement_total",
		"Total number of ledger entries written",
		"{entries}",
	); err != nil {
		return nil, err
	}
	if m.stockQuantityTotal, err = NewFloatCounter(cfg.Meter,
		"stockengine_stock_quantity_total",
		"Total quantity moved through ledger entries",
		"{units}",
	); err != nil {
		return nil, err
	}
	if m.orderTransitionTotal, err = NewCounter(cfg.Meter,
		"stockengine_order_transition_total",
		"Total number of order status transitions",
		"{transitions}",
	); err != nil {
		return nil, err
	}
	if m.operationTotal, err = NewCounter(cfg.Meter,
		"stockengine_operation_total",
		"Total number of engine operations by outcome",
		"{operations}",
	); err != nil {
		return nil, err
	}
	if m.shortageTotal, err = NewCounter(cfg.Meter,
		"stockengine_insufficient_stock_total",
		"Total number of operations rejected for insufficient stock",
		"{operations}",
	); err != nil {
		return nil, err
	}
	if m.concurrencyConflicts, err = NewCounter(cfg.Meter,
		"stockengine_concurrency_conflict_total",
		"Total number of operations that failed on lock contention",
		"{operations}",
	); err != nil {
		return nil, err
	}
	if m.operationDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "stockengine_operation_duration_seconds",
		Description: "Duration of engine operations",
		Unit:        "s",
		Boundaries:  []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}); err != nil {
		return nil, err
	}
	if m.lowStockCount, err = NewGauge(cfg.Meter,
		"stockengine_low_stock_count",
		"Number of accounts at or below their reorder threshold",
		"{accounts}",
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordStockMovement records one ledger entry.
func (m *EngineMetrics) RecordStockMovement(ctx context.Context, accountKind, direction, referenceKind string, quantity decimal.Decimal) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrAccountKind.String(accountKind),
		AttrDirection.String(direction),
		AttrReferenceKind.String(referenceKind),
	}
	m.stockMovementTotal.Inc(ctx, attrs...)
	m.stockQuantityTotal.Add(ctx, quantity.InexactFloat64(), attrs...)
}

// RecordTransition records an order status change. from is empty on creation.
func (m *EngineMetrics) RecordTransition(ctx context.Context, aggregate, from, to string) {
	if m == nil {
		return
	}
	if from == "" {
		from = "NEW"
	}
	m.orderTransitionTotal.Inc(ctx,
		AttrAggregate.String(aggregate),
		AttrFromStatus.String(from),
		AttrToStatus.String(to),
	)
}

// RecordOperation records the duration and outcome of an engine operation.
// outcome is "ok" or the error kind.
func (m *EngineMetrics) RecordOperation(ctx context.Context, operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrOperation.String(operation),
		AttrOutcome.String(outcome),
	}
	m.operationTotal.Inc(ctx, attrs...)
	m.operationDuration.RecordDuration(ctx, duration, attrs...)

	switch outcome {
	case "insufficient_stock":
		m.shortageTotal.Inc(ctx, AttrOperation.String(operation))
	case "concurrency":
		m.concurrencyConflicts.Inc(ctx, AttrOperation.String(operation))
	}
}

// RecordLowStockCount records the number of accounts at or below threshold.
func (m *EngineMetrics) RecordLowStockCount(ctx context.Context, count int64) {
	if m == nil {
		return
	}
	m.lowStockCount.Record(ctx, count)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (m *EngineMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	m.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go m.runPeriodicCollection(ctx, interval)
	})
}

func (m *EngineMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.collectStockMetrics(ctx)

	for {
		select {
		case <-m.stopChan:
			m.logger.Info("Stopping periodic engine metrics collection")
			return
		case <-ctx.Done():
			m.logger.Info("Context cancelled, stopping periodic engine metrics collection")
			return
		case <-ticker.C:
			m.collectStockMetrics(ctx)
		}
	}
}

func (m *EngineMetrics) collectStockMetrics(ctx context.Context) {
	if m.stockProvider == nil {
		m.logger.Debug("No stock provider configured, skipping stock metrics collection")
		return
	}
	count, err := m.stockProvider.GetLowStockCount(ctx)
	if err != nil {
		m.logger.Warn("Failed to get low stock count", zap.Error(err))
		return
	}
	m.RecordLowStockCount(ctx, count)
}

// Stop stops the periodic collection.
func (m *EngineMetrics) Stop() {
	if m == nil {
		return
	}
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewEngineMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
