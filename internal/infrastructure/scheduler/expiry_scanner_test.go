package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	inventoryapp "github.com/erp/inventory/internal/application/inventory"
)

type fakeReportProvider struct {
	mu           sync.Mutex
	expiring     []inventoryapp.LotResponse
	expired      []inventoryapp.LotResponse
	expiringErr  error
	expiredErr   error
	expiringCall int
}

func (f *fakeReportProvider) ExpiringLots(ctx context.Context, days int, warehouseID *uuid.UUID) (*inventoryapp.ExpiryReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expiringCall++
	if f.expiringErr != nil {
		return nil, f.expiringErr
	}
	return &inventoryapp.ExpiryReport{
		GeneratedAt: time.Now(),
		WithinDays:  days,
		Lots:        f.expiring,
	}, nil
}

func (f *fakeReportProvider) ExpiredLots(ctx context.Context, warehouseID *uuid.UUID) (*inventoryapp.ExpiryReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.expiredErr != nil {
		return nil, f.expiredErr
	}
	return &inventoryapp.ExpiryReport{
		GeneratedAt: time.Now(),
		Lots:        f.expired,
	}, nil
}

func (f *fakeReportProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expiringCall
}

func testLot() inventoryapp.LotResponse {
	return inventoryapp.LotResponse{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		LotNumber: "LOT-001",
	}
}

func TestExpiryScanConfigValidate(t *testing.T) {
	t.Run("default is valid", func(t *testing.T) {
		assert.NoError(t, DefaultExpiryScanConfig().Validate())
	})

	tests := []struct {
		name   string
		modify func(*ExpiryScanConfig)
	}{
		{"hour out of range", func(c *ExpiryScanConfig) { c.ScanHour = 24 }},
		{"negative hour", func(c *ExpiryScanConfig) { c.ScanHour = -1 }},
		{"minute out of range", func(c *ExpiryScanConfig) { c.ScanMinute = 60 }},
		{"zero check interval", func(c *ExpiryScanConfig) { c.CheckInterval = 0 }},
		{"zero window", func(c *ExpiryScanConfig) { c.WindowDays = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultExpiryScanConfig()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestNewExpiryScannerRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultExpiryScanConfig()
	cfg.WindowDays = -1

	_, err := NewExpiryScanner(cfg, &fakeReportProvider{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestExpiryScannerRunOnce(t *testing.T) {
	t.Run("counts expiring and expired lots", func(t *testing.T) {
		provider := &fakeReportProvider{
			expiring: []inventoryapp.LotResponse{testLot(), testLot()},
			expired:  []inventoryapp.LotResponse{testLot()},
		}
		scanner, err := NewExpiryScanner(DefaultExpiryScanConfig(), provider, zap.NewNop())
		require.NoError(t, err)

		result, err := scanner.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, result.ExpiringCount)
		assert.Equal(t, 1, result.ExpiredCount)
	})

	t.Run("propagates provider errors", func(t *testing.T) {
		provider := &fakeReportProvider{expiringErr: errors.New("db gone")}
		scanner, err := NewExpiryScanner(DefaultExpiryScanConfig(), provider, zap.NewNop())
		require.NoError(t, err)

		_, err = scanner.RunOnce(context.Background())
		assert.Error(t, err)
	})
}

func TestExpiryScannerRunIfDue(t *testing.T) {
	newScanner := func(t *testing.T, provider *fakeReportProvider, at time.Time) *ExpiryScanner {
		t.Helper()
		cfg := DefaultExpiryScanConfig()
		cfg.ScanHour = 6
		cfg.ScanMinute = 0
		scanner, err := NewExpiryScanner(cfg, provider, zap.NewNop())
		require.NoError(t, err)
		scanner.now = func() time.Time { return at }
		return scanner
	}

	t.Run("runs after scheduled time", func(t *testing.T) {
		provider := &fakeReportProvider{}
		at := time.Date(2025, 3, 10, 6, 30, 0, 0, time.UTC)
		scanner := newScanner(t, provider, at)

		scanner.runIfDue(context.Background())
		assert.Equal(t, 1, provider.calls())
	})

	t.Run("does not run before scheduled time", func(t *testing.T) {
		provider := &fakeReportProvider{}
		at := time.Date(2025, 3, 10, 5, 59, 0, 0, time.UTC)
		scanner := newScanner(t, provider, at)

		scanner.runIfDue(context.Background())
		assert.Equal(t, 0, provider.calls())
	})

	t.Run("runs at most once per day", func(t *testing.T) {
		provider := &fakeReportProvider{}
		at := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC)
		scanner := newScanner(t, provider, at)

		scanner.runIfDue(context.Background())
		scanner.runIfDue(context.Background())
		assert.Equal(t, 1, provider.calls())

		// Next day runs again
		scanner.now = func() time.Time { return at.Add(24 * time.Hour) }
		scanner.runIfDue(context.Background())
		assert.Equal(t, 2, provider.calls())
	})
}

func TestExpiryScannerStartStop(t *testing.T) {
	provider := &fakeReportProvider{}
	cfg := DefaultExpiryScanConfig()
	cfg.CheckInterval = 10 * time.Millisecond

	scanner, err := NewExpiryScanner(cfg, provider, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, scanner.Start())
	assert.ErrorIs(t, scanner.Start(), ErrScannerAlreadyRunning)

	require.NoError(t, scanner.Stop())
	assert.ErrorIs(t, scanner.Stop(), ErrScannerNotRunning)
}
