package persistence

import (
	"context"

	appinventory "github.com/erp/inventory/internal/application/inventory"
	"github.com/erp/inventory/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope on a single database
// transaction. Every repository handed to the callback runs on the same tx,
// so row locks taken through FindForUpdate are held until commit or rollback.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn inside a database transaction. Driver failures such
// as deadlocks or a lost connection come back as domain errors, so
// callers see CONCURRENCY_CONFLICT or STORAGE_ERROR instead of raw
// SQLSTATEs.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinventory.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return translateError(err)
}

// gormTransactionalRepositories provides repositories bound to one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Products() inventory.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) Warehouses() inventory.WarehouseRepository {
	return NewGormWarehouseRepository(r.tx)
}

func (r *gormTransactionalRepositories) Lots() inventory.LotRepository {
	return NewGormLotRepository(r.tx)
}

func (r *gormTransactionalRepositories) StockRecords() inventory.StockRecordRepository {
	return NewGormStockRecordRepository(r.tx)
}

func (r *gormTransactionalRepositories) Movements() inventory.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

var (
	_ appinventory.TransactionScope          = (*GormTransactionScope)(nil)
	_ appinventory.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
	_ inventory.ProductRepository            = (*GormProductRepository)(nil)
	_ inventory.WarehouseRepository          = (*GormWarehouseRepository)(nil)
	_ inventory.LotRepository                = (*GormLotRepository)(nil)
	_ inventory.StockRecordRepository        = (*GormStockRecordRepository)(nil)
	_ inventory.MovementRepository           = (*GormMovementRepository)(nil)
)
