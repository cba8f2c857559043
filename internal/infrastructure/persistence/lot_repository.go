package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/inventory/internal/domain/inventory"
	"github.com/erp/inventory/internal/domain/shared"
)

// fifoOrder is the consumption order: oldest ingress first, lot number
// as the tiebreaker.
const fifoOrder = "ingress_date ASC, lot_number ASC"

// GormLotRepository persists lots through GORM.
type GormLotRepository struct {
	db *gorm.DB
}

func NewGormLotRepository(db *gorm.DB) *GormLotRepository {
	return &GormLotRepository{db: db}
}

func (r *GormLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Lot, error) {
	return fetchOne[inventory.Lot](ctx, r.db, "id = ?", id)
}

// FindByLotNumber looks up one lot by number within a product-warehouse
// pair.
func (r *GormLotRepository) FindByLotNumber(ctx context.Context, productID, warehouseID uuid.UUID, lotNumber string) (*inventory.Lot, error) {
	return fetchOne[inventory.Lot](ctx, r.db,
		"product_id = ? AND warehouse_id = ? AND lot_number = ?", productID, warehouseID, lotNumber)
}

// FindConsumable lists the lots an exit may draw from, in consumption
// order. Quarantined and rejected lots are excluded; expired lots are
// not, expiry is the forced-exit path's concern.
func (r *GormLotRepository) FindConsumable(ctx context.Context, productID, warehouseID uuid.UUID) ([]inventory.Lot, error) {
	var lots []inventory.Lot
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND warehouse_id = ? AND active = ? AND quality = ? AND current_quantity > 0",
			productID, warehouseID, true, inventory.LotQualityGood).
		Order(fifoOrder).
		Find(&lots).Error
	if err != nil {
		return nil, err
	}
	return lots, nil
}

// FindByProduct lists a product's lots, optionally scoped to one
// warehouse.
func (r *GormLotRepository) FindByProduct(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID, filter shared.Filter) ([]inventory.Lot, error) {
	query := r.db.WithContext(ctx).Model(&inventory.Lot{}).
		Where("product_id = ?", productID)
	if warehouseID != nil {
		query = query.Where("warehouse_id = ?", *warehouseID)
	}
	query = pageAndSort(r.filtered(query, filter), filter, lotSortable, fifoOrder)

	var lots []inventory.Lot
	if err := query.Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// FindExpiringWithin lists lots with stock whose expiry falls inside
// the next days, soonest first.
func (r *GormLotRepository) FindExpiringWithin(ctx context.Context, days int, warehouseID *uuid.UUID) ([]inventory.Lot, error) {
	deadline := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	return r.listByExpiry(ctx, "expiry_date IS NOT NULL AND expiry_date <= ? AND active = ? AND current_quantity > 0", deadline, warehouseID)
}

// FindExpired lists lots with stock already past their expiry.
func (r *GormLotRepository) FindExpired(ctx context.Context, warehouseID *uuid.UUID) ([]inventory.Lot, error) {
	return r.listByExpiry(ctx, "expiry_date IS NOT NULL AND expiry_date < ? AND active = ? AND current_quantity > 0", time.Now(), warehouseID)
}

func (r *GormLotRepository) listByExpiry(ctx context.Context, cond string, cutoff time.Time, warehouseID *uuid.UUID) ([]inventory.Lot, error) {
	query := r.db.WithContext(ctx).Where(cond, cutoff, true)
	if warehouseID != nil {
		query = query.Where("warehouse_id = ?", *warehouseID)
	}

	var lots []inventory.Lot
	if err := query.Order("expiry_date ASC").Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

func (r *GormLotRepository) Save(ctx context.Context, lot *inventory.Lot) error {
	return r.db.WithContext(ctx).Save(lot).Error
}

// SaveAll persists a batch of lots, typically the ones touched by one
// exit plan.
func (r *GormLotRepository) SaveAll(ctx context.Context, lots []*inventory.Lot) error {
	if len(lots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(lots).Error
}

func (r *GormLotRepository) filtered(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "has_stock":
			if value == true {
				query = query.Where("current_quantity > 0")
			}
		case "quality":
			query = query.Where("quality = ?", value)
		case "active":
			query = query.Where("active = ?", value)
		}
	}
	return query
}
