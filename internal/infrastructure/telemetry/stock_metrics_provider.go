// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockMetricsProvider implements StockMetricsProvider using GORM.
// It queries the stock_records and lots tables directly for aggregated metrics.
type GormStockMetricsProvider struct {
	db *gorm.DB
}

// NewGormStockMetricsProvider creates a new GormStockMetricsProvider.
func NewGormStockMetricsProvider(db *gorm.DB) *GormStockMetricsProvider {
	return &GormStockMetricsProvider{db: db}
}

// GetLowStockCount returns the count of products at or below their reorder point.
// Products without a reorder point are ignored.
func (p *GormStockMetricsProvider) GetLowStockCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("products").
		Joins("JOIN stock_records ON stock_records.product_id = products.id").
		Where("products.active AND products.track_stock AND products.reorder_point > 0").
		Where("stock_records.active").
		Group("products.id, products.reorder_point").
		Having("COALESCE(SUM(stock_records.quantity), 0) <= products.reorder_point").
		Select("products.id").
		Count(&count).Error

	return count, err
}

// GetExpiredLotCountByWarehouse returns the count of expired lots that still
// hold quantity, grouped by warehouse.
func (p *GormStockMetricsProvider) GetExpiredLotCountByWarehouse(ctx context.Context) (map[uuid.UUID]int64, error) {
	type result struct {
		WarehouseID uuid.UUID `gorm:"column:warehouse_id"`
		LotCount    int64     `gorm:"column:lot_count"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("lots").
		Select("warehouse_id, COUNT(*) as lot_count").
		Where("active AND current_quantity > 0").
		Where("expiry_date IS NOT NULL AND expiry_date < NOW()").
		Group("warehouse_id").
		Find(&results).Error

	if err != nil {
		return nil, err
	}

	m := make(map[uuid.UUID]int64, len(results))
	for _, r := range results {
		m[r.WarehouseID] = r.LotCount
	}

	return m, nil
}

// GetTotalValuation returns the value of stock on hand, summing active lots
// at their recorded unit cost.
func (p *GormStockMetricsProvider) GetTotalValuation(ctx context.Context) (float64, error) {
	var total float64
	err := p.db.WithContext(ctx).
		Table("lots").
		Select("COALESCE(SUM(current_quantity * unit_cost), 0)").
		Where("active AND current_quantity > 0").
		Scan(&total).Error

	return total, err
}
