package inventory

import (
	"context"
	"time"

	"github.com/erp/inventory/internal/domain/shared"
	"github.com/erp/inventory/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReportService produces valuation and expiry reports over current stock
type ReportService struct {
	txScope TransactionScope
	logger  *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(txScope TransactionScope, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		txScope: txScope,
		logger:  logger,
	}
}

// log returns the service logger enriched with the trace and request IDs
// carried by ctx.
func (s *ReportService) log(ctx context.Context) *logger.ContextLogger {
	return logger.WithLogger(ctx, s.logger)
}

// Valuation reports the stock value at average cost, optionally scoped
// to a single warehouse
func (s *ReportService) Valuation(ctx context.Context, warehouseID *uuid.UUID) (*ValuationReport, error) {
	var report *ValuationReport

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		rows, err := repos.StockRecords().Valuation(ctx, warehouseID)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, row := range rows {
			total = total.Add(row.TotalValue)
		}

		report = &ValuationReport{
			GeneratedAt: time.Now(),
			WarehouseID: warehouseID,
			TotalItems:  len(rows),
			TotalValue:  total,
			Lines:       rows,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("valuation report generated",
		zap.Int("items", report.TotalItems),
		zap.String("total_value", report.TotalValue.String()))
	return report, nil
}

// ExpiringLots lists lots with remaining stock that expire within the
// given number of days, soonest first
func (s *ReportService) ExpiringLots(ctx context.Context, days int, warehouseID *uuid.UUID) (*ExpiryReport, error) {
	var report *ExpiryReport

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		lots, err := repos.Lots().FindExpiringWithin(ctx, days, warehouseID)
		if err != nil {
			return err
		}
		report = &ExpiryReport{
			GeneratedAt: time.Now(),
			WarehouseID: warehouseID,
			WithinDays:  days,
			Lots:        ToLotResponses(lots),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ExpiredLots lists lots with remaining stock past their expiry date
func (s *ReportService) ExpiredLots(ctx context.Context, warehouseID *uuid.UUID) (*ExpiryReport, error) {
	var report *ExpiryReport

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		lots, err := repos.Lots().FindExpired(ctx, warehouseID)
		if err != nil {
			return err
		}
		report = &ExpiryReport{
			GeneratedAt: time.Now(),
			WarehouseID: warehouseID,
			Lots:        ToLotResponses(lots),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// AverageCost computes the quantity-weighted average cost of a product
// across all warehouses. With no positive stock anywhere it falls back
// to the product's last purchase price.
func (s *ReportService) AverageCost(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var avgCost decimal.Decimal

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.Products().FindByID(ctx, productID)
		if err != nil {
			return err
		}

		records, err := repos.StockRecords().FindByProduct(ctx, productID)
		if err != nil {
			return err
		}

		totalQty := decimal.Zero
		totalValue := decimal.Zero
		for i := range records {
			if records[i].Quantity.GreaterThan(decimal.Zero) {
				totalQty = totalQty.Add(records[i].Quantity)
				totalValue = totalValue.Add(records[i].TotalValue())
			}
		}

		if totalQty.GreaterThan(decimal.Zero) {
			avgCost = totalValue.Div(totalQty).Round(4)
		} else {
			avgCost = product.PurchasePrice
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return avgCost, nil
}

// LowStock lists stock records at or below the owning product's reorder point
func (s *ReportService) LowStock(ctx context.Context, warehouseID uuid.UUID) ([]StockRecordResponse, error) {
	var responses []StockRecordResponse

	lowFilter := shared.DefaultFilter()
	lowFilter.OrderBy = "quantity"
	lowFilter.OrderDir = "asc"

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		records, err := repos.StockRecords().FindByWarehouse(ctx, warehouseID, lowFilter)
		if err != nil {
			return err
		}

		responses = make([]StockRecordResponse, 0, len(records))
		for i := range records {
			product, err := repos.Products().FindByID(ctx, records[i].ProductID)
			if err != nil {
				continue
			}
			if records[i].IsBelowReorder(product.ReorderThreshold()) {
				responses = append(responses, ToStockRecordResponse(&records[i]))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return responses, nil
}
