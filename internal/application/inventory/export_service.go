package inventory

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/erp/inventory/internal/infrastructure/logger"
	"github.com/erp/inventory/internal/infrastructure/telemetry"
)

// ReportStorage is the object storage surface the export service needs.
type ReportStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// exportDownloadExpiry is how long export download links stay valid.
const exportDownloadExpiry = 15 * time.Minute

// ExportResult describes a stored report export
type ExportResult struct {
	StorageKey  string    `json:"storage_key"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
	Rows        int       `json:"rows"`
}

// ExportService renders reports to CSV and stores them in object storage
type ExportService struct {
	reports *ReportService
	storage ReportStorage
	logger  *zap.Logger
}

// NewExportService creates a new ExportService
func NewExportService(reports *ReportService, storage ReportStorage, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		reports: reports,
		storage: storage,
		logger:  logger,
	}
}

// log returns the service logger enriched with the trace and request IDs
// carried by ctx.
func (s *ExportService) log(ctx context.Context) *logger.ContextLogger {
	return logger.WithLogger(ctx, s.logger)
}

// ExportValuation generates the valuation report, stores it as CSV and
// returns a presigned download link.
func (s *ExportService) ExportValuation(ctx context.Context, warehouseID *uuid.UUID) (result *ExportResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "export.valuation",
		attribute.String(telemetry.SpanAttrReportFormat, "csv"))
	defer func() { telemetry.FinishSpan(span, err) }()

	report, err := s.reports.Valuation(ctx, warehouseID)
	if err != nil {
		return nil, err
	}

	var data []byte
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("export_valuation", nil), func(context.Context) {
		data, err = valuationCSV(report)
	})
	if err != nil {
		return nil, fmt.Errorf("render valuation csv: %w", err)
	}

	key := fmt.Sprintf("exports/valuation/%s/valuation-%s.csv",
		report.GeneratedAt.Format("2006/01"),
		report.GeneratedAt.Format("20060102-150405"))

	if err := s.storage.Upload(ctx, key, data, "text/csv"); err != nil {
		return nil, fmt.Errorf("store valuation export: %w", err)
	}

	downloadURL, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, exportDownloadExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign valuation export: %w", err)
	}

	telemetry.AddEvent(span, "export_stored",
		attribute.String(telemetry.SpanAttrObjectKey, key),
		attribute.Int("rows", len(report.Lines)))
	s.log(ctx).Info("valuation export stored",
		zap.String("key", key),
		zap.Int("rows", len(report.Lines)))

	return &ExportResult{
		StorageKey:  key,
		DownloadURL: downloadURL,
		ExpiresAt:   expiresAt,
		Rows:        len(report.Lines),
	}, nil
}

func valuationCSV(report *ValuationReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"product_code", "product_name", "warehouse", "quantity", "avg_cost", "total_value"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, line := range report.Lines {
		record := []string{
			line.ProductCode,
			line.ProductName,
			line.Warehouse,
			line.Quantity.String(),
			line.AvgCost.String(),
			line.TotalValue.String(),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	if err := w.Write([]string{"", "", "TOTAL", "", "", report.TotalValue.String()}); err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
