// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the inventory system.
// It tracks movement activity and stock health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	movementExecutedTotal *Counter
	movementQuantityTotal *Counter
	movementFailedTotal   *Counter

	// Histogram metrics (distributions)
	movementDuration *Histogram

	// Gauge metrics (point-in-time values)
	lowStockCount   *Gauge
	expiredLotCount *Gauge
	valuationTotal  *FloatGauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	stockProvider StockMetricsProvider
}

// StockMetricsProvider provides stock data for periodic metrics collection.
// This interface allows the telemetry layer to query stock state without
// depending on the inventory domain directly.
type StockMetricsProvider interface {
	// GetLowStockCount returns the count of products at or below their reorder point
	GetLowStockCount(ctx context.Context) (int64, error)

	// GetExpiredLotCountByWarehouse returns the count of expired lots that still
	// hold quantity, grouped by warehouse
	GetExpiredLotCountByWarehouse(ctx context.Context) (map[uuid.UUID]int64, error)

	// GetTotalValuation returns the total value of stock on hand, summed over
	// active lots at their recorded unit cost
	GetTotalValuation(ctx context.Context) (float64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	StockProvider   StockMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		stockProvider: cfg.StockProvider,
	}

	in := NewInstruments(cfg.Meter)
	var err error

	bm.movementExecutedTotal, err = in.Counter(
		"inventory_movement_executed_total",
		"Total number of movements executed",
		"{movements}",
	)
	if err != nil {
		return nil, err
	}

	bm.movementQuantityTotal, err = in.Counter(
		"inventory_movement_quantity_total",
		"Total moved quantity in ten-thousandths of a unit",
		"{0.0001 units}",
	)
	if err != nil {
		return nil, err
	}

	bm.movementFailedTotal, err = in.Counter(
		"inventory_movement_failed_total",
		"Total number of movement executions that failed",
		"{movements}",
	)
	if err != nil {
		return nil, err
	}

	bm.movementDuration, err = in.Histogram(HistogramOpts{
		Name:        "inventory_movement_execution_seconds",
		Description: "Wall-clock duration of movement executions",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	bm.lowStockCount, err = in.Gauge(
		"inventory_low_stock_count",
		"Number of products at or below their reorder point",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	bm.expiredLotCount, err = in.Gauge(
		"inventory_expired_lot_count",
		"Number of expired lots that still hold quantity",
		"{lots}",
	)
	if err != nil {
		return nil, err
	}

	bm.valuationTotal, err = in.FloatGauge(
		"inventory_valuation_total",
		"Total value of stock on hand at recorded unit cost",
		"{currency}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Movement Metrics
// =============================================================================

// RecordMovementExecuted records a successful movement execution.
// This should be called from the application layer when a movement is executed.
func (bm *BusinessMetrics) RecordMovementExecuted(ctx context.Context, movementType string) {
	bm.movementExecutedTotal.Inc(ctx,
		AttrMovementType.String(movementType),
	)
}

// RecordMovementQuantity records the quantity moved by an executed movement.
// Quantity is recorded in ten-thousandths of a unit to keep four decimal
// places of precision in an integer counter.
func (bm *BusinessMetrics) RecordMovementQuantity(ctx context.Context, movementType string, quantityTenThousandths int64) {
	bm.movementQuantityTotal.Add(ctx, quantityTenThousandths,
		AttrMovementType.String(movementType),
	)
}

// RecordMovementWithQuantity is a convenience method that records both the
// execution count and the moved quantity.
func (bm *BusinessMetrics) RecordMovementWithQuantity(ctx context.Context, movementType string, quantity decimal.Decimal) {
	bm.RecordMovementExecuted(ctx, movementType)

	tenThousandths := quantity.Mul(decimal.NewFromInt(10000)).IntPart()
	bm.RecordMovementQuantity(ctx, movementType, tenThousandths)
}

// RecordMovementDuration records how long a movement execution took,
// including the failed ones.
func (bm *BusinessMetrics) RecordMovementDuration(ctx context.Context, movementType string, elapsed time.Duration) {
	bm.movementDuration.RecordDuration(ctx, elapsed,
		AttrMovementType.String(movementType),
	)
}

// RecordMovementFailed records a movement execution that failed.
func (bm *BusinessMetrics) RecordMovementFailed(ctx context.Context, movementType, reason string) {
	bm.movementFailedTotal.Inc(ctx,
		AttrMovementType.String(movementType),
		AttrFailureReason.String(reason),
	)
}

// =============================================================================
// Stock Metrics
// =============================================================================

// RecordLowStockCount records the number of products at or below their
// reorder point. This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordLowStockCount(ctx context.Context, count int64) {
	bm.lowStockCount.Record(ctx, count)
}

// RecordExpiredLotCount records the number of expired lots still holding
// quantity for a warehouse. This is a gauge metric that should be updated
// periodically.
func (bm *BusinessMetrics) RecordExpiredLotCount(ctx context.Context, warehouseID uuid.UUID, count int64) {
	bm.expiredLotCount.Record(ctx, count,
		AttrWarehouseID.String(warehouseID.String()),
	)
}

// RecordTotalValuation records the total stock valuation. This is a gauge
// metric that should be updated periodically.
func (bm *BusinessMetrics) RecordTotalValuation(ctx context.Context, value float64) {
	bm.valuationTotal.Record(ctx, value)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects stock metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectStockMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectStockMetrics(ctx)
		}
	}
}

// collectStockMetrics collects stock gauge metrics.
func (bm *BusinessMetrics) collectStockMetrics(ctx context.Context) {
	if bm.stockProvider == nil {
		bm.logger.Debug("No stock provider configured, skipping stock metrics collection")
		return
	}

	lowStockCount, err := bm.stockProvider.GetLowStockCount(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get low stock count", zap.Error(err))
	} else {
		bm.RecordLowStockCount(ctx, lowStockCount)
	}

	expiredByWarehouse, err := bm.stockProvider.GetExpiredLotCountByWarehouse(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get expired lot counts", zap.Error(err))
	} else {
		for warehouseID, count := range expiredByWarehouse {
			bm.RecordExpiredLotCount(ctx, warehouseID, count)
		}
	}

	valuation, err := bm.stockProvider.GetTotalValuation(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get total valuation", zap.Error(err))
	} else {
		bm.RecordTotalValuation(ctx, valuation)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// =============================================================================
// Attribute Key Constants
// =============================================================================

// Business metrics attribute keys not already defined in metrics.go
var (
	AttrFailureReason = attribute.Key("failure_reason")
)
