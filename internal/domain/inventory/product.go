package inventory

import (
	"time"

	"github.com/erp/inventory/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product represents a stockable product tracked by the inventory engine.
type Product struct {
	shared.BaseAggregateRoot
	Code          string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name          string          `gorm:"type:varchar(255);not null"`
	Description   string          `gorm:"type:varchar(500)"`
	Unit          string          `gorm:"type:varchar(20);not null;default:'NIU'"`
	TrackStock    bool            `gorm:"not null;default:true"`  // Products that do not track stock are always available
	RequiresLot   bool            `gorm:"not null;default:false"` // Entries must carry a lot number (autogenerated if absent)
	TrackExpiry   bool            `gorm:"not null;default:false"`
	ReorderPoint  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MinStock      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MaxStock      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Zero means no upper bound
	PurchasePrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Fallback unit cost when no lot history exists
	SalePrice     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	// Rolling purchase/sale statistics
	QuantityPurchased decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	QuantitySold      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LastPurchaseAt    *time.Time
	LastSaleAt        *time.Time

	Active bool `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(code, name, unit string) (*Product, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	unit, err := ValidateUnitCode(unit)
	if err != nil {
		return nil, err
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Unit:              unit,
		TrackStock:        true,
		ReorderPoint:      decimal.Zero,
		MinStock:          decimal.Zero,
		MaxStock:          decimal.Zero,
		PurchasePrice:     decimal.Zero,
		SalePrice:         decimal.Zero,
		QuantityPurchased: decimal.Zero,
		QuantitySold:      decimal.Zero,
		Active:            true,
	}, nil
}

// RecordPurchase updates purchase statistics and the fallback purchase price
func (p *Product) RecordPurchase(quantity, unitCost decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.ErrInvalidQuantity
	}
	if unitCost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	p.QuantityPurchased = p.QuantityPurchased.Add(quantity)
	if unitCost.GreaterThan(decimal.Zero) {
		p.PurchasePrice = unitCost
	}
	now := time.Now()
	p.LastPurchaseAt = &now
	p.Touch()
	p.IncrementVersion()
	return nil
}

// RecordSale updates sale statistics
func (p *Product) RecordSale(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.ErrInvalidQuantity
	}

	p.QuantitySold = p.QuantitySold.Add(quantity)
	now := time.Now()
	p.LastSaleAt = &now
	p.Touch()
	p.IncrementVersion()
	return nil
}

// SetReorderPoint sets the minimum stock threshold for alerts
func (p *Product) SetReorderPoint(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Reorder point cannot be negative")
	}
	p.ReorderPoint = quantity
	p.Touch()
	p.IncrementVersion()
	return nil
}

// SetStockBounds sets the minimum and maximum stock levels. A zero
// maximum disables the upper bound.
func (p *Product) SetStockBounds(minStock, maxStock decimal.Decimal) error {
	if minStock.IsNegative() || maxStock.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Stock bounds cannot be negative")
	}
	if maxStock.GreaterThan(decimal.Zero) && maxStock.LessThan(minStock) {
		return shared.NewDomainError("INVALID_QUANTITY", "Maximum stock cannot be below minimum stock")
	}
	p.MinStock = minStock
	p.MaxStock = maxStock
	p.Touch()
	p.IncrementVersion()
	return nil
}

// ReorderThreshold is the quantity that triggers a low-stock alert.
// MinStock stands in when no explicit reorder point is set.
func (p *Product) ReorderThreshold() decimal.Decimal {
	if p.ReorderPoint.GreaterThan(decimal.Zero) {
		return p.ReorderPoint
	}
	return p.MinStock
}

// ExceedsMaximum reports whether quantity is above the configured
// maximum stock level.
func (p *Product) ExceedsMaximum(quantity decimal.Decimal) bool {
	return p.MaxStock.GreaterThan(decimal.Zero) && quantity.GreaterThan(p.MaxStock)
}

// Deactivate soft-deletes the product
func (p *Product) Deactivate() {
	p.Active = false
	p.Touch()
	p.IncrementVersion()
}

// Activate restores a deactivated product
func (p *Product) Activate() {
	p.Active = true
	p.Touch()
	p.IncrementVersion()
}
