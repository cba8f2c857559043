package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/inventory/internal/domain/inventory"
	"github.com/erp/inventory/internal/domain/shared"
)

// GormProductRepository persists products through GORM.
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	return fetchOne[inventory.Product](ctx, r.db, "id = ?", id)
}

// FindByCode looks a product up by its unique code.
func (r *GormProductRepository) FindByCode(ctx context.Context, code string) (*inventory.Product, error) {
	return fetchOne[inventory.Product](ctx, r.db, "code = ?", code)
}

func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.Product, error) {
	var products []inventory.Product
	query := pageAndSort(r.filtered(ctx, filter), filter, productSortable, newestFirst)
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormProductRepository) Save(ctx context.Context, product *inventory.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// SaveWithLock updates only the mutable columns and guards them with
// the version the caller loaded. Zero rows affected means another
// transaction won the race.
func (r *GormProductRepository) SaveWithLock(ctx context.Context, product *inventory.Product) error {
	result := r.db.WithContext(ctx).
		Model(product).
		Where("id = ? AND version = ?", product.ID, product.Version-1).
		Updates(map[string]interface{}{
			"reorder_point":      product.ReorderPoint,
			"min_stock":          product.MinStock,
			"max_stock":          product.MaxStock,
			"purchase_price":     product.PurchasePrice,
			"sale_price":         product.SalePrice,
			"quantity_purchased": product.QuantityPurchased,
			"quantity_sold":      product.QuantitySold,
			"last_purchase_at":   product.LastPurchaseAt,
			"last_sale_at":       product.LastSaleAt,
			"active":             product.Active,
			"version":            product.Version,
			"updated_at":         product.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Product was modified by another transaction")
	}
	return nil
}

func (r *GormProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// filtered builds the base query with search and field filters applied,
// pagination left to the caller.
func (r *GormProductRepository) filtered(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&inventory.Product{})

	if filter.Search != "" {
		pattern := searchPattern(filter.Search)
		query = query.Where("code ILIKE ? OR name ILIKE ?", pattern, pattern)
	}
	for key, value := range filter.Filters {
		switch key {
		case "active":
			query = query.Where("active = ?", value)
		case "track_stock":
			query = query.Where("track_stock = ?", value)
		case "requires_lot":
			query = query.Where("requires_lot = ?", value)
		case "code":
			query = query.Where("code = ?", value)
		}
	}
	return query
}
