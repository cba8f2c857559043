package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/inventory/internal/domain/inventory"
	"github.com/erp/inventory/internal/domain/shared"
)

// GormWarehouseRepository persists warehouses through GORM.
type GormWarehouseRepository struct {
	db *gorm.DB
}

func NewGormWarehouseRepository(db *gorm.DB) *GormWarehouseRepository {
	return &GormWarehouseRepository{db: db}
}

func (r *GormWarehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Warehouse, error) {
	return fetchOne[inventory.Warehouse](ctx, r.db, "id = ?", id)
}

// FindByCode looks a warehouse up by its unique code.
func (r *GormWarehouseRepository) FindByCode(ctx context.Context, code string) (*inventory.Warehouse, error) {
	return fetchOne[inventory.Warehouse](ctx, r.db, "code = ?", code)
}

func (r *GormWarehouseRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.Warehouse, error) {
	var warehouses []inventory.Warehouse
	query := pageAndSort(r.filtered(ctx, filter), filter, warehouseSortable, newestFirst)
	if err := query.Find(&warehouses).Error; err != nil {
		return nil, err
	}
	return warehouses, nil
}

func (r *GormWarehouseRepository) Save(ctx context.Context, warehouse *inventory.Warehouse) error {
	return r.db.WithContext(ctx).Save(warehouse).Error
}

func (r *GormWarehouseRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// filtered builds the base query with search and field filters applied,
// pagination left to the caller.
func (r *GormWarehouseRepository) filtered(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&inventory.Warehouse{})

	if filter.Search != "" {
		pattern := searchPattern(filter.Search)
		query = query.Where("code ILIKE ? OR name ILIKE ?", pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "active":
			query = query.Where("active = ?", value)
		case "code":
			query = query.Where("code = ?", value)
		}
	}
	return query
}
