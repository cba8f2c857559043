package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	inventoryapp "github.com/erp/inventory/internal/application/inventory"
	"github.com/erp/inventory/internal/infrastructure/telemetry"
)

// ExpiryReportProvider supplies the lot expiry reports the scanner runs on.
// *inventoryapp.ReportService satisfies it.
type ExpiryReportProvider interface {
	ExpiringLots(ctx context.Context, days int, warehouseID *uuid.UUID) (*inventoryapp.ExpiryReport, error)
	ExpiredLots(ctx context.Context, warehouseID *uuid.UUID) (*inventoryapp.ExpiryReport, error)
}

// ExpiryScanConfig holds configuration for the daily expiry scan
type ExpiryScanConfig struct {
	// ScanHour and ScanMinute set the local time of day to run (24h format)
	ScanHour   int
	ScanMinute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration

	// WindowDays is the expiring-lot horizon
	WindowDays int
}

// DefaultExpiryScanConfig returns default scan configuration
func DefaultExpiryScanConfig() ExpiryScanConfig {
	return ExpiryScanConfig{
		ScanHour:      6,
		ScanMinute:    0,
		CheckInterval: time.Minute,
		WindowDays:    30,
	}
}

// Validate checks the configuration
func (c ExpiryScanConfig) Validate() error {
	if c.ScanHour < 0 || c.ScanHour > 23 {
		return fmt.Errorf("%w: scan hour %d out of range", ErrInvalidConfig, c.ScanHour)
	}
	if c.ScanMinute < 0 || c.ScanMinute > 59 {
		return fmt.Errorf("%w: scan minute %d out of range", ErrInvalidConfig, c.ScanMinute)
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("%w: check interval must be positive", ErrInvalidConfig)
	}
	if c.WindowDays <= 0 {
		return fmt.Errorf("%w: window days must be positive", ErrInvalidConfig)
	}
	return nil
}

// ExpiryScanResult summarizes a completed scan
type ExpiryScanResult struct {
	RanAt         time.Time
	ExpiringCount int
	ExpiredCount  int
}

// ExpiryScanner runs a daily scan for lots that are expired or close to
// expiry and logs an alert for each finding. It checks the clock every
// CheckInterval and runs once per calendar day at the configured time.
type ExpiryScanner struct {
	config   ExpiryScanConfig
	provider ExpiryReportProvider
	logger   *zap.Logger

	now func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewExpiryScanner creates a new expiry scanner
func NewExpiryScanner(config ExpiryScanConfig, provider ExpiryReportProvider, logger *zap.Logger) (*ExpiryScanner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpiryScanner{
		config:   config,
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Start begins the background check loop
func (s *ExpiryScanner) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return ErrScannerAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.isRunning = true

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Expiry scanner started",
		zap.Int("hour", s.config.ScanHour),
		zap.Int("minute", s.config.ScanMinute),
		zap.Int("window_days", s.config.WindowDays),
	)
	return nil
}

// Stop halts the check loop and waits for an in-flight scan to finish
func (s *ExpiryScanner) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrScannerNotRunning
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("Expiry scanner stopped")
	return nil
}

func (s *ExpiryScanner) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runIfDue(ctx)
		}
	}
}

// runIfDue runs the scan when the configured time of day has passed and
// no scan has run yet today.
func (s *ExpiryScanner) runIfDue(ctx context.Context) {
	now := s.now()
	today := now.Format("2006-01-02")

	s.mu.Lock()
	alreadyRan := s.lastRunDate == today
	s.mu.Unlock()

	if alreadyRan {
		return
	}

	due := time.Date(now.Year(), now.Month(), now.Day(),
		s.config.ScanHour, s.config.ScanMinute, 0, 0, now.Location())
	if now.Before(due) {
		return
	}

	s.mu.Lock()
	s.lastRunDate = today
	s.mu.Unlock()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("Expiry scan failed", zap.Error(err))
	}
}

// RunOnce executes a single scan across all warehouses
func (s *ExpiryScanner) RunOnce(ctx context.Context) (result *ExpiryScanResult, err error) {
	started := s.now()

	ctx, span := telemetry.StartSpan(ctx, "scheduler.expiry_scan",
		attribute.Int("window_days", s.config.WindowDays))
	defer func() { telemetry.FinishSpan(span, err) }()

	expiring, err := s.provider.ExpiringLots(ctx, s.config.WindowDays, nil)
	if err != nil {
		return nil, fmt.Errorf("expiring lots scan: %w", err)
	}

	expired, err := s.provider.ExpiredLots(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("expired lots scan: %w", err)
	}

	for _, lot := range expired.Lots {
		s.logger.Warn("Lot past expiry with remaining stock",
			zap.String("lot_id", lot.ID.String()),
			zap.String("lot_number", lot.LotNumber),
			zap.String("product_id", lot.ProductID.String()),
			zap.String("remaining", lot.CurrentQuantity.String()),
		)
	}
	for _, lot := range expiring.Lots {
		s.logger.Info("Lot approaching expiry",
			zap.String("lot_id", lot.ID.String()),
			zap.String("lot_number", lot.LotNumber),
			zap.String("product_id", lot.ProductID.String()),
			zap.String("remaining", lot.CurrentQuantity.String()),
		)
	}

	result = &ExpiryScanResult{
		RanAt:         started,
		ExpiringCount: len(expiring.Lots),
		ExpiredCount:  len(expired.Lots),
	}
	telemetry.AddEvent(span, "scan_counts",
		attribute.Int("expiring", result.ExpiringCount),
		attribute.Int("expired", result.ExpiredCount))

	s.logger.Info("Expiry scan completed",
		zap.Int("expiring", result.ExpiringCount),
		zap.Int("expired", result.ExpiredCount),
		zap.Duration("elapsed", s.now().Sub(started)),
	)
	return result, nil
}
