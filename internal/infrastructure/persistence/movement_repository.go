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

// GormMovementRepository persists movements and their details through
// GORM. Details are loaded eagerly, a movement without them is useless
// to every caller.
type GormMovementRepository struct {
	db *gorm.DB
}

func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

func (r *GormMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Movement, error) {
	return r.fetchWithDetails(ctx, "id = ?", id)
}

// FindByNumber looks a movement up by its document number.
func (r *GormMovementRepository) FindByNumber(ctx context.Context, number string) (*inventory.Movement, error) {
	return r.fetchWithDetails(ctx, "number = ?", number)
}

func (r *GormMovementRepository) fetchWithDetails(ctx context.Context, cond string, arg interface{}) (*inventory.Movement, error) {
	var movement inventory.Movement
	err := r.db.WithContext(ctx).
		Preload("Details").
		First(&movement, cond, arg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &movement, nil
}

func (r *GormMovementRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.Movement, error) {
	return r.list(r.filtered(ctx, filter), filter)
}

// FindByProduct lists movements for one product.
func (r *GormMovementRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.Movement, error) {
	query := r.filtered(ctx, filter).Where("product_id = ?", productID)
	return r.list(query, filter)
}

// FindByStatus lists movements in the given lifecycle status.
func (r *GormMovementRepository) FindByStatus(ctx context.Context, status inventory.MovementStatus, filter shared.Filter) ([]inventory.Movement, error) {
	query := r.filtered(ctx, filter).Where("status = ?", status)
	return r.list(query, filter)
}

func (r *GormMovementRepository) list(query *gorm.DB, filter shared.Filter) ([]inventory.Movement, error) {
	var movements []inventory.Movement
	if err := pageAndSort(query, filter, movementSortable, newestFirst).Preload("Details").Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// Save upserts a movement together with its details.
func (r *GormMovementRepository) Save(ctx context.Context, movement *inventory.Movement) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Save(movement).Error
}

// SaveWithLock updates the movement row guarded by the version the
// caller loaded. Details are append-only and upserted separately.
func (r *GormMovementRepository) SaveWithLock(ctx context.Context, movement *inventory.Movement) error {
	result := r.db.WithContext(ctx).
		Model(movement).
		Where("id = ? AND version = ?", movement.ID, movement.Version-1).
		Updates(map[string]interface{}{
			"status":         movement.Status,
			"unit_cost":      movement.UnitCost,
			"total_cost":     movement.TotalCost,
			"balance_before": movement.BalanceBefore,
			"balance_after":  movement.BalanceAfter,
			"reason":         movement.Reason,
			"authorized_at":  movement.AuthorizedAt,
			"executed_at":    movement.ExecutedAt,
			"cancelled_at":   movement.CancelledAt,
			"version":        movement.Version,
			"updated_at":     movement.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Movement was modified by another transaction")
	}

	if len(movement.Details) > 0 {
		if err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&movement.Details).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *GormMovementRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// filtered builds the base query with field filters applied,
// pagination left to the caller.
func (r *GormMovementRepository) filtered(ctx context.Context, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&inventory.Movement{})

	for key, value := range filter.Filters {
		switch key {
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "warehouse_id":
			query = query.Where("warehouse_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "type":
			query = query.Where("type = ?", value)
		case "reference":
			query = query.Where("reference = ?", value)
		}
	}
	return query
}
