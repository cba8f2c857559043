package inventory

import (
	"time"

	"github.com/erp/inventory/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockRecord is the stock aggregate for a product at a warehouse.
// It tracks the running quantity, reservations and the moving weighted average cost.
// The composite identifier is ProductID + WarehouseID.
type StockRecord struct {
	shared.BaseAggregateRoot
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_records_product_warehouse,priority:1"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_records_product_warehouse,priority:2"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Reserved    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AvgCost     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Moving weighted average cost
	LastEntryAt *time.Time      `gorm:"type:timestamptz"`
	LastExitAt  *time.Time      `gorm:"type:timestamptz"`
	Active      bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (StockRecord) TableName() string {
	return "stock_records"
}

// NewStockRecord creates a new stock record for a product-warehouse combination
func NewStockRecord(productID, warehouseID uuid.UUID) (*StockRecord, error) {
	if productID == uuid.Nil {
		return nil, shared.ErrProductNotFound
	}
	if warehouseID == uuid.Nil {
		return nil, shared.ErrWarehouseNotFound
	}

	return &StockRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		WarehouseID:       warehouseID,
		Quantity:          decimal.Zero,
		Reserved:          decimal.Zero,
		AvgCost:           decimal.Zero,
		Active:            true,
	}, nil
}

// Available returns the quantity not held by reservations
func (s *StockRecord) Available() decimal.Decimal {
	return s.Quantity.Sub(s.Reserved)
}

// TotalValue returns the stock value at the current average cost
func (s *StockRecord) TotalValue() decimal.Decimal {
	return s.Quantity.Mul(s.AvgCost)
}

// CanFulfill returns true if the current quantity covers the requested quantity
func (s *StockRecord) CanFulfill(quantity decimal.Decimal) bool {
	return s.Quantity.GreaterThanOrEqual(quantity)
}

// ApplyEntry increases stock and recalculates the moving weighted average cost.
// New Cost = (Old Quantity * Old Cost + Quantity * Unit Cost) / (Old Quantity + Quantity)
func (s *StockRecord) ApplyEntry(quantity, unitCost decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.ErrInvalidQuantity
	}
	if unitCost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	if s.Quantity.LessThanOrEqual(decimal.Zero) {
		// No prior stock to average against; the incoming cost becomes the average
		s.AvgCost = unitCost
	} else {
		totalValue := s.Quantity.Mul(s.AvgCost).Add(quantity.Mul(unitCost))
		totalQuantity := s.Quantity.Add(quantity)
		s.AvgCost = totalValue.Div(totalQuantity).Round(4)
	}

	s.Quantity = s.Quantity.Add(quantity)
	now := time.Now()
	s.LastEntryAt = &now
	s.Touch()
	s.IncrementVersion()

	s.AddDomainEvent(NewStockEnteredEvent(s, quantity, unitCost))
	return nil
}

// ApplyExit decreases stock. The average cost is unchanged by exits.
// With allowShortfall the quantity may go negative (forced exits).
func (s *StockRecord) ApplyExit(quantity decimal.Decimal, allowShortfall bool) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.ErrInvalidQuantity
	}
	if !allowShortfall && s.Quantity.LessThan(quantity) {
		return shared.NewDomainErrorf("INSUFFICIENT_STOCK",
			"Insufficient stock: have %s, need %s", s.Quantity.String(), quantity.String())
	}

	s.Quantity = s.Quantity.Sub(quantity)
	now := time.Now()
	s.LastExitAt = &now
	s.Touch()
	s.IncrementVersion()

	s.AddDomainEvent(NewStockExitedEvent(s, quantity))
	return nil
}

// AdjustTo sets the stock to the counted quantity and returns the signed difference.
func (s *StockRecord) AdjustTo(actualQuantity decimal.Decimal, reason string) (decimal.Decimal, error) {
	if actualQuantity.IsNegative() {
		return decimal.Zero, shared.NewDomainError("INVALID_QUANTITY", "Actual quantity cannot be negative")
	}
	if reason == "" {
		return decimal.Zero, shared.NewDomainError("INVALID_REASON", "Adjustment reason is required")
	}

	oldQuantity := s.Quantity
	difference := actualQuantity.Sub(oldQuantity)

	s.Quantity = actualQuantity
	s.Touch()
	s.IncrementVersion()

	s.AddDomainEvent(NewStockAdjustedEvent(s, oldQuantity, actualQuantity, difference, reason))
	return difference, nil
}

// Reserve holds a quantity against future exits
func (s *StockRecord) Reserve(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.ErrInvalidQuantity
	}
	if s.Available().LessThan(quantity) {
		return shared.ErrInsufficientStock
	}

	s.Reserved = s.Reserved.Add(quantity)
	s.Touch()
	s.IncrementVersion()
	return nil
}

// ReleaseReservation returns a held quantity to available stock
func (s *StockRecord) ReleaseReservation(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.ErrInvalidQuantity
	}
	if s.Reserved.LessThan(quantity) {
		return shared.NewDomainError("INVALID_QUANTITY", "Cannot release more than the reserved quantity")
	}

	s.Reserved = s.Reserved.Sub(quantity)
	s.Touch()
	s.IncrementVersion()
	return nil
}

// IsBelowReorder returns true if the quantity has fallen below the given threshold
func (s *StockRecord) IsBelowReorder(reorderPoint decimal.Decimal) bool {
	return reorderPoint.GreaterThan(decimal.Zero) && s.Quantity.LessThan(reorderPoint)
}
