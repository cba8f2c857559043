package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/erp/inventory/internal/domain/inventory"
	"github.com/erp/inventory/internal/domain/shared"
)

// GormStockRecordRepository persists per-product-per-warehouse stock
// records through GORM.
type GormStockRecordRepository struct {
	db *gorm.DB
}

func NewGormStockRecordRepository(db *gorm.DB) *GormStockRecordRepository {
	return &GormStockRecordRepository{db: db}
}

func (r *GormStockRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockRecord, error) {
	return fetchOne[inventory.StockRecord](ctx, r.db, "id = ?", id)
}

// FindByProductAndWarehouse loads the record for one product-warehouse
// pair. The pair is unique by schema constraint.
func (r *GormStockRecordRepository) FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.StockRecord, error) {
	return r.fetchPair(r.db.WithContext(ctx), productID, warehouseID)
}

// FindForUpdate loads the pair's record under FOR UPDATE, so the row
// stays locked for the rest of the surrounding transaction.
func (r *GormStockRecordRepository) FindForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.StockRecord, error) {
	locked := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	return r.fetchPair(locked, productID, warehouseID)
}

func (r *GormStockRecordRepository) fetchPair(query *gorm.DB, productID, warehouseID uuid.UUID) (*inventory.StockRecord, error) {
	var record inventory.StockRecord
	err := query.
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// GetOrCreate returns the pair's record, inserting a zero-quantity one
// when none exists yet. ON CONFLICT DO NOTHING plus a refetch keeps
// concurrent first movements for the same pair from failing.
func (r *GormStockRecordRepository) GetOrCreate(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.StockRecord, error) {
	record, err := r.FindByProductAndWarehouse(ctx, productID, warehouseID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	record, err = inventory.NewStockRecord(productID, warehouseID)
	if err != nil {
		return nil, err
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}, {Name: "warehouse_id"}},
			DoNothing: true,
		}).
		Create(record)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// lost the insert race, the winner's row is the record
		return r.FindByProductAndWarehouse(ctx, productID, warehouseID)
	}
	return record, nil
}

// FindByWarehouse lists records held in one warehouse.
func (r *GormStockRecordRepository) FindByWarehouse(ctx context.Context, warehouseID uuid.UUID, filter shared.Filter) ([]inventory.StockRecord, error) {
	var records []inventory.StockRecord
	query := r.db.WithContext(ctx).Model(&inventory.StockRecord{}).
		Where("warehouse_id = ?", warehouseID)
	query = pageAndSort(r.filtered(query, filter), filter, stockRecordSortable, newestFirst)

	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindByProduct lists a product's records across all warehouses.
func (r *GormStockRecordRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]inventory.StockRecord, error) {
	var records []inventory.StockRecord
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *GormStockRecordRepository) Save(ctx context.Context, record *inventory.StockRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// SaveWithLock updates only the mutable columns and guards them with
// the version the caller loaded. Zero rows affected means another
// transaction won the race.
func (r *GormStockRecordRepository) SaveWithLock(ctx context.Context, record *inventory.StockRecord) error {
	result := r.db.WithContext(ctx).
		Model(record).
		Where("id = ? AND version = ?", record.ID, record.Version-1).
		Updates(map[string]interface{}{
			"quantity":      record.Quantity,
			"reserved":      record.Reserved,
			"avg_cost":      record.AvgCost,
			"last_entry_at": record.LastEntryAt,
			"last_exit_at":  record.LastExitAt,
			"active":        record.Active,
			"version":       record.Version,
			"updated_at":    record.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Stock record was modified by another transaction")
	}
	return nil
}

// Valuation reports valuation rows for records with positive stock,
// optionally scoped to one warehouse.
func (r *GormStockRecordRepository) Valuation(ctx context.Context, warehouseID *uuid.UUID) ([]inventory.ValuationRow, error) {
	var rows []inventory.ValuationRow
	query := r.db.WithContext(ctx).
		Table("stock_records sr").
		Select(`sr.product_id,
			p.code AS product_code,
			p.name AS product_name,
			sr.warehouse_id,
			w.name AS warehouse,
			sr.quantity,
			sr.avg_cost,
			sr.quantity * sr.avg_cost AS total_value`).
		Joins("JOIN products p ON p.id = sr.product_id").
		Joins("JOIN warehouses w ON w.id = sr.warehouse_id").
		Where("sr.quantity > 0")
	if warehouseID != nil {
		query = query.Where("sr.warehouse_id = ?", *warehouseID)
	}

	if err := query.Order("p.code ASC, w.name ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GormStockRecordRepository) filtered(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "has_stock":
			if value == true {
				query = query.Where("quantity > 0")
			}
		case "active":
			query = query.Where("active = ?", value)
		}
	}
	return query
}
