package inventory

import (
	"context"

	"github.com/erp/inventory/internal/domain/inventory"
)

// TransactionScope provides transactional access to inventory repositories.
// When a function is executed within a transaction scope, all repository operations
// are part of the same database transaction and commit or roll back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all inventory repositories
// within a transaction. All repositories returned share the same underlying
// database transaction, so row locks taken via FindForUpdate are held until
// the scope commits or rolls back.
type TransactionalRepositories interface {
	// Products returns the product repository scoped to the current transaction
	Products() inventory.ProductRepository
	// Warehouses returns the warehouse repository scoped to the current transaction
	Warehouses() inventory.WarehouseRepository
	// Lots returns the lot repository scoped to the current transaction
	Lots() inventory.LotRepository
	// StockRecords returns the stock record repository scoped to the current transaction
	StockRecords() inventory.StockRecordRepository
	// Movements returns the movement repository scoped to the current transaction
	Movements() inventory.MovementRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// Useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	productRepo   inventory.ProductRepository
	warehouseRepo inventory.WarehouseRepository
	lotRepo       inventory.LotRepository
	stockRepo     inventory.StockRecordRepository
	movementRepo  inventory.MovementRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	productRepo inventory.ProductRepository,
	warehouseRepo inventory.WarehouseRepository,
	lotRepo inventory.LotRepository,
	stockRepo inventory.StockRecordRepository,
	movementRepo inventory.MovementRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		lotRepo:       lotRepo,
		stockRepo:     stockRepo,
		movementRepo:  movementRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Products returns the product repository.
func (s *NoOpTransactionScope) Products() inventory.ProductRepository {
	return s.productRepo
}

// Warehouses returns the warehouse repository.
func (s *NoOpTransactionScope) Warehouses() inventory.WarehouseRepository {
	return s.warehouseRepo
}

// Lots returns the lot repository.
func (s *NoOpTransactionScope) Lots() inventory.LotRepository {
	return s.lotRepo
}

// StockRecords returns the stock record repository.
func (s *NoOpTransactionScope) StockRecords() inventory.StockRecordRepository {
	return s.stockRepo
}

// Movements returns the movement repository.
func (s *NoOpTransactionScope) Movements() inventory.MovementRepository {
	return s.movementRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
