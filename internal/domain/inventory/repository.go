package inventory

import (
	"context"

	"github.com/erp/inventory/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByCode finds a product by its unique code
	FindByCode(ctx context.Context, code string) (*Product, error)

	// FindAll finds products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, product *Product) error

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// WarehouseRepository defines the interface for warehouse persistence
type WarehouseRepository interface {
	// FindByID finds a warehouse by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Warehouse, error)

	// FindByCode finds a warehouse by its unique code
	FindByCode(ctx context.Context, code string) (*Warehouse, error)

	// FindAll finds warehouses matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Warehouse, error)

	// Save creates or updates a warehouse
	Save(ctx context.Context, warehouse *Warehouse) error

	// Count counts warehouses matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// LotRepository defines the interface for lot persistence
type LotRepository interface {
	// FindByID finds a lot by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Lot, error)

	// FindByLotNumber finds a lot by number for a product at a warehouse
	FindByLotNumber(ctx context.Context, productID, warehouseID uuid.UUID, lotNumber string) (*Lot, error)

	// FindConsumable finds consumable lots for a product at a warehouse
	// in FIFO order: ingress date ascending, lot number as tiebreak
	FindConsumable(ctx context.Context, productID, warehouseID uuid.UUID) ([]Lot, error)

	// FindByProduct finds all lots for a product, optionally scoped to a warehouse
	FindByProduct(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID, filter shared.Filter) ([]Lot, error)

	// FindExpiringWithin finds lots with stock expiring within the given number of days,
	// ordered by expiry date ascending
	FindExpiringWithin(ctx context.Context, days int, warehouseID *uuid.UUID) ([]Lot, error)

	// FindExpired finds lots with stock that have already expired
	FindExpired(ctx context.Context, warehouseID *uuid.UUID) ([]Lot, error)

	// Save creates or updates a lot
	Save(ctx context.Context, lot *Lot) error

	// SaveAll creates or updates multiple lots
	SaveAll(ctx context.Context, lots []*Lot) error
}

// ValuationRow is one line of the valuation report
type ValuationRow struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Warehouse   string          `json:"warehouse"`
	Quantity    decimal.Decimal `json:"quantity"`
	AvgCost     decimal.Decimal `json:"avg_cost"`
	TotalValue  decimal.Decimal `json:"total_value"`
}

// StockRecordRepository defines the interface for stock record persistence
type StockRecordRepository interface {
	// FindByID finds a stock record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockRecord, error)

	// FindByProductAndWarehouse finds the record for a product-warehouse combination
	FindByProductAndWarehouse(ctx context.Context, productID, warehouseID uuid.UUID) (*StockRecord, error)

	// FindForUpdate finds the record for a product-warehouse combination
	// holding a row lock for the duration of the surrounding transaction
	FindForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*StockRecord, error)

	// GetOrCreate gets the existing record or creates a zero-quantity one
	GetOrCreate(ctx context.Context, productID, warehouseID uuid.UUID) (*StockRecord, error)

	// FindByWarehouse finds all records in a warehouse
	FindByWarehouse(ctx context.Context, warehouseID uuid.UUID, filter shared.Filter) ([]StockRecord, error)

	// FindByProduct finds records for a product across warehouses
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]StockRecord, error)

	// Save creates or updates a stock record
	Save(ctx context.Context, record *StockRecord) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, record *StockRecord) error

	// Valuation returns valuation rows for records with positive stock,
	// optionally scoped to a warehouse
	Valuation(ctx context.Context, warehouseID *uuid.UUID) ([]ValuationRow, error)
}

// MovementRepository defines the interface for movement persistence
type MovementRepository interface {
	// FindByID finds a movement by its ID, including its details
	FindByID(ctx context.Context, id uuid.UUID) (*Movement, error)

	// FindByNumber finds a movement by its document number
	FindByNumber(ctx context.Context, number string) (*Movement, error)

	// FindAll finds movements matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Movement, error)

	// FindByProduct finds movements for a product, newest first
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]Movement, error)

	// FindByStatus finds movements in a given status
	FindByStatus(ctx context.Context, status MovementStatus, filter shared.Filter) ([]Movement, error)

	// Save creates or updates a movement and its details
	Save(ctx context.Context, movement *Movement) error

	// SaveWithLock saves with optimistic locking (checks version)
	SaveWithLock(ctx context.Context, movement *Movement) error

	// Count counts movements matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}
