package telemetry

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dbStartKey = "stockengine:query_start"

// DBConfig configures query instrumentation.
type DBConfig struct {
	// DBSystem names the database in spans ("postgresql", "sqlite")
	DBSystem           string
	SlowQueryThreshold time.Duration // Default: 200ms
	PoolStatsInterval  time.Duration // Default: 15s
	// Tracing registers otelgorm spans in addition to metrics
	Tracing bool
	// IncludeQueryVars keeps bind values in span statements
	IncludeQueryVars bool
}

// DBInstrumentation is a GORM plugin that records query counts, durations,
// slow queries and row-lock waits, plus periodic pool statistics.
type DBInstrumentation struct {
	config DBConfig
	logger *zap.Logger

	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter
	lockWait       *Histogram
	poolConns      *Gauge

	sqlDB    *sql.DB
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDBInstrumentation creates the plugin. Register it with db.Use.
func NewDBInstrumentation(meter metric.Meter, cfg DBConfig, logger *zap.Logger) (*DBInstrumentation, error) {
	if meter == nil {
		return nil, &MetricsError{Op: "NewDBInstrumentation", Err: "meter cannot be nil"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = 15 * time.Second
	}

	d := &DBInstrumentation{config: cfg, logger: logger, stopCh: make(chan struct{})}
	var err error
	if d.queryTotal, err = NewCounter(meter, "db_query_total", "Total number of database queries", "{queries}"); err != nil {
		return nil, err
	}
	if d.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Duration of database queries",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if d.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total", "Queries slower than the slow query threshold", "{queries}"); err != nil {
		return nil, err
	}
	if d.lockWait, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_row_lock_wait_seconds",
		Description: "Time spent acquiring row locks with SELECT ... FOR UPDATE",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if d.poolConns, err = NewGauge(meter, "db_pool_connections", "Connections in the pool by state", "{connections}"); err != nil {
		return nil, err
	}
	return d, nil
}

// Name implements gorm.Plugin.
func (d *DBInstrumentation) Name() string {
	return "stockengine:db_instrumentation"
}

// Initialize implements gorm.Plugin.
func (d *DBInstrumentation) Initialize(db *gorm.DB) error {
	if d.config.Tracing {
		opts := []otelgorm.Option{otelgorm.WithDBName(d.config.DBSystem)}
		if !d.config.IncludeQueryVars {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	before := func(tx *gorm.DB) {
		tx.InstanceSet(dbStartKey, time.Now())
	}
	cb := db.Callback()
	for _, reg := range []struct {
		name   string
		before func(string) error
		after  func(string) error
	}{
		{"create", func(n string) error { return cb.Create().Before("gorm:create").Register(n, before) },
			func(n string) error { return cb.Create().After("gorm:create").Register(n, d.after) }},
		{"query", func(n string) error { return cb.Query().Before("gorm:query").Register(n, before) },
			func(n string) error { return cb.Query().After("gorm:query").Register(n, d.after) }},
		{"update", func(n string) error { return cb.Update().Before("gorm:update").Register(n, before) },
			func(n string) error { return cb.Update().After("gorm:update").Register(n, d.after) }},
		{"delete", func(n string) error { return cb.Delete().Before("gorm:delete").Register(n, before) },
			func(n string) error { return cb.Delete().After("gorm:delete").Register(n, d.after) }},
		{"row", func(n string) error { return cb.Row().Before("gorm:row").Register(n, before) },
			func(n string) error { return cb.Row().After("gorm:row").Register(n, d.after) }},
		{"raw", func(n string) error { return cb.Raw().Before("gorm:raw").Register(n, before) },
			func(n string) error { return cb.Raw().After("gorm:raw").Register(n, d.after) }},
	} {
		if err := reg.before("db_instrumentation:before_" + reg.name); err != nil {
			return err
		}
		if err := reg.after("db_instrumentation:after_" + reg.name); err != nil {
			return err
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		d.sqlDB = sqlDB
	}
	return nil
}

func (d *DBInstrumentation) after(tx *gorm.DB) {
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	var elapsed time.Duration
	if v, ok := tx.InstanceGet(dbStartKey); ok {
		if start, ok := v.(time.Time); ok {
			elapsed = time.Since(start)
		}
	}
	d.RecordQuery(ctx, tx.Statement.SQL.String(), tx.Statement.Table, elapsed)
}

// RecordQuery records one executed statement.
func (d *DBInstrumentation) RecordQuery(ctx context.Context, sqlText, table string, elapsed time.Duration) {
	op := OperationOf(sqlText)
	d.queryTotal.Inc(ctx, AttrDBOperation.String(op))
	d.queryDuration.RecordDuration(ctx, elapsed, AttrDBOperation.String(op))
	if op == "LOCK" {
		d.lockWait.RecordDuration(ctx, elapsed, AttrDBTable.String(tableOrUnknown(table)))
	}
	if elapsed > d.config.SlowQueryThreshold {
		d.slowQueryTotal.Inc(ctx, AttrDBTable.String(tableOrUnknown(table)))
	}
}

// StartPoolStatsCollection samples sql.DB pool stats until Stop or ctx ends.
func (d *DBInstrumentation) StartPoolStatsCollection(ctx context.Context) {
	if d.sqlDB == nil {
		d.logger.Warn("Cannot start pool stats collection: database handle not set")
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(d.config.PoolStatsInterval)
		defer ticker.Stop()

		d.collectPoolStats(ctx)
		for {
			select {
			case <-ticker.C:
				d.collectPoolStats(ctx)
			case <-d.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (d *DBInstrumentation) collectPoolStats(ctx context.Context) {
	stats := d.sqlDB.Stats()
	d.poolConns.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	d.poolConns.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	d.poolConns.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
	d.poolConns.Record(ctx, int64(stats.MaxOpenConnections), AttrDBState.String("max"))
}

// Stop ends pool stats collection. Safe to call multiple times.
func (d *DBInstrumentation) Stop() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		close(d.stopCh)
		d.wg.Wait()
	})
}

// OperationOf classifies a statement. Row-locking selects report as LOCK.
func OperationOf(sqlText string) string {
	s := strings.ToUpper(strings.TrimSpace(sqlText))
	switch {
	case strings.HasPrefix(s, "SELECT"):
		if strings.Contains(s, "FOR UPDATE") {
			return "LOCK"
		}
		return "SELECT"
	case strings.HasPrefix(s, "INSERT"):
		return "INSERT"
	case strings.HasPrefix(s, "UPDATE"):
		return "UPDATE"
	case strings.HasPrefix(s, "DELETE"):
		return "DELETE"
	case s == "":
		return "UNKNOWN"
	default:
		return "OTHER"
	}
}

func tableOrUnknown(table string) string {
	if table == "" {
		return "unknown"
	}
	return table
}
