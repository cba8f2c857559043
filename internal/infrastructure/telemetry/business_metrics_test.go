package telemetry_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/inventory/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

func TestNewBusinessMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  meter,
		Logger: zap.NewNop(),
	})

	require.NoError(t, err)
	require.NotNil(t, bm)
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  nil,
		Logger: zap.NewNop(),
	})

	require.Error(t, err)
	assert.Nil(t, bm)
	assert.Equal(t, "NewBusinessMetrics: meter cannot be nil", err.Error())
}

func TestBusinessMetrics_RecordMovementExecuted(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()

	// Should not panic
	bm.RecordMovementExecuted(ctx, "ENTRY")
	bm.RecordMovementExecuted(ctx, "EXIT")
	bm.RecordMovementExecuted(ctx, "TRANSFER")
}

func TestBusinessMetrics_RecordMovementQuantity(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()

	bm.RecordMovementQuantity(ctx, "ENTRY", 1000000)
	bm.RecordMovementQuantity(ctx, "EXIT", 25000)
}

func TestBusinessMetrics_RecordMovementWithQuantity(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()

	bm.RecordMovementWithQuantity(ctx, "ENTRY", decimal.NewFromFloat(12.5))
	bm.RecordMovementWithQuantity(ctx, "EXIT", decimal.NewFromInt(3))
}

func TestBusinessMetrics_RecordMovementFailed(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()

	bm.RecordMovementFailed(ctx, "EXIT", "INSUFFICIENT_STOCK")
	bm.RecordMovementFailed(ctx, "EXIT", "LOT_UNAVAILABLE")
}

func TestBusinessMetrics_RecordGauges(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()

	bm.RecordLowStockCount(ctx, 7)
	bm.RecordExpiredLotCount(ctx, uuid.New(), 2)
	bm.RecordTotalValuation(ctx, 15230.75)
}

func TestBusinessMetrics_RecordMovementDuration(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()

	bm.RecordMovementDuration(ctx, "ENTRY", 12*time.Millisecond)
	bm.RecordMovementDuration(ctx, "TRANSFER", 250*time.Millisecond)
}

// stubStockProvider is a StockMetricsProvider for collection tests.
type stubStockProvider struct {
	mu           sync.Mutex
	lowStock     int64
	expired      map[uuid.UUID]int64
	valuation    float64
	lowStockErr  error
	expiredErr   error
	valuationErr error
	lowStockHits int
}

func (p *stubStockProvider) GetLowStockCount(ctx context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lowStockHits++
	if p.lowStockErr != nil {
		return 0, p.lowStockErr
	}
	return p.lowStock, nil
}

func (p *stubStockProvider) GetExpiredLotCountByWarehouse(ctx context.Context) (map[uuid.UUID]int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.expiredErr != nil {
		return nil, p.expiredErr
	}
	return p.expired, nil
}

func (p *stubStockProvider) GetTotalValuation(ctx context.Context) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.valuationErr != nil {
		return 0, p.valuationErr
	}
	return p.valuation, nil
}

func (p *stubStockProvider) hits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lowStockHits
}

func TestBusinessMetrics_PeriodicCollection(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	provider := &stubStockProvider{
		lowStock: 3,
		expired:  map[uuid.UUID]int64{uuid.New(): 1},
	}

	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:         meter,
		Logger:        zap.NewNop(),
		StockProvider: provider,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bm.StartPeriodicCollection(ctx, 10*time.Millisecond)
	defer bm.Stop()

	// First collection happens immediately, so one hit arrives quickly.
	assert.Eventually(t, func() bool {
		return provider.hits() >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestBusinessMetrics_StopIsIdempotent(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	bm.Stop()
	bm.Stop()
}

func TestBusinessMetrics_StartIsOncePerInstance(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	provider := &stubStockProvider{lowStock: 1}

	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:         meter,
		Logger:        zap.NewNop(),
		StockProvider: provider,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Second call is a no-op.
	bm.StartPeriodicCollection(ctx, time.Hour)
	bm.StartPeriodicCollection(ctx, time.Hour)
	defer bm.Stop()

	assert.Eventually(t, func() bool {
		return provider.hits() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestBusinessMetrics_CollectionWithoutProvider(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  meter,
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// No provider configured: collection loop runs and skips silently.
	bm.StartPeriodicCollection(ctx, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	bm.Stop()
}

func TestBusinessMetrics_AttributeKeys(t *testing.T) {
	assert.Equal(t, "failure_reason", string(telemetry.AttrFailureReason))
}
