package inventory

import (
	"time"

	"github.com/erp/inventory/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotQuality represents the quality state of a lot
type LotQuality string

const (
	LotQualityGood        LotQuality = "GOOD"
	LotQualityQuarantined LotQuality = "QUARANTINED"
	LotQualityRejected    LotQuality = "REJECTED"
)

// IsValid returns true if the lot quality is valid
func (q LotQuality) IsValid() bool {
	switch q {
	case LotQualityGood, LotQualityQuarantined, LotQualityRejected:
		return true
	}
	return false
}

// String returns the string representation
func (q LotQuality) String() string {
	return string(q)
}

// Lot number prefixes for autogenerated lots
const (
	LotNumberPrefix      = "LOTE-"
	TransferNumberPrefix = "TRANS-"
)

// GenerateLotNumber builds a lot number from the given prefix and timestamp
func GenerateLotNumber(prefix string, at time.Time) string {
	return prefix + at.Format("20060102150405")
}

// Lot represents a batch of stock received together at a single unit cost.
// Exits consume lots in FIFO order: oldest ingress first, lot number as tiebreak.
type Lot struct {
	shared.BaseEntity
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_lots_identity,priority:1"`
	WarehouseID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_lots_identity,priority:2"`
	LotNumber       string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_lots_identity,priority:3"`
	IngressDate     time.Time       `gorm:"type:timestamptz;not null;index"`
	ExpiryDate      *time.Time      `gorm:"type:timestamptz"`
	InitialQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CurrentQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SupplierRef     string          `gorm:"type:varchar(100)"` // Supplier the batch was received from
	SourceDoc       string          `gorm:"type:varchar(100)"` // Receipt or invoice backing the ingress
	Quality         LotQuality      `gorm:"type:varchar(20);not null;default:'GOOD'"`
	Active          bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Lot) TableName() string {
	return "lots"
}

// NewLot creates a new lot
func NewLot(
	productID, warehouseID uuid.UUID,
	lotNumber string,
	quantity, unitCost decimal.Decimal,
	expiryDate *time.Time,
) (*Lot, error) {
	if productID == uuid.Nil {
		return nil, shared.ErrProductNotFound
	}
	if warehouseID == uuid.Nil {
		return nil, shared.ErrWarehouseNotFound
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidQuantity
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	now := time.Now()
	if lotNumber == "" {
		lotNumber = GenerateLotNumber(LotNumberPrefix, now)
	}

	return &Lot{
		BaseEntity:      shared.NewBaseEntity(),
		ProductID:       productID,
		WarehouseID:     warehouseID,
		LotNumber:       lotNumber,
		IngressDate:     now,
		ExpiryDate:      expiryDate,
		InitialQuantity: quantity,
		CurrentQuantity: quantity,
		UnitCost:        unitCost,
		Quality:         LotQualityGood,
		Active:          true,
	}, nil
}

// WithSource records where the batch came from
func (l *Lot) WithSource(supplierRef, sourceDoc string) *Lot {
	l.SupplierRef = supplierRef
	l.SourceDoc = sourceDoc
	return l
}

// IsExpired returns true if the lot has passed its expiry date
func (l *Lot) IsExpired() bool {
	if l.ExpiryDate == nil {
		return false
	}
	return l.ExpiryDate.Before(time.Now())
}

// WillExpireWithin returns true if the lot will expire within the given duration
func (l *Lot) WillExpireWithin(duration time.Duration) bool {
	if l.ExpiryDate == nil {
		return false
	}
	return l.ExpiryDate.Before(time.Now().Add(duration))
}

// DaysUntilExpiry returns the number of days until expiry, -1 if no expiry date
func (l *Lot) DaysUntilExpiry() int {
	if l.ExpiryDate == nil {
		return -1
	}
	return int(time.Until(*l.ExpiryDate).Hours() / 24)
}

// HasStock returns true if the lot has remaining quantity
func (l *Lot) HasStock() bool {
	return l.CurrentQuantity.GreaterThan(decimal.Zero)
}

// IsConsumable returns true if the lot can be consumed by an exit.
// Expired lots remain consumable; only quality gating and soft deletion exclude a lot.
func (l *Lot) IsConsumable() bool {
	return l.Active && l.Quality == LotQualityGood && l.HasStock()
}

// Consume reduces the lot quantity. Lots gated out by quality or
// deactivated cannot be consumed unless force is set.
// Returns the actual quantity consumed, which may be less than requested.
func (l *Lot) Consume(quantity decimal.Decimal, force bool) (decimal.Decimal, error) {
	if !force {
		if !l.Active {
			return decimal.Zero, shared.NewDomainErrorf("LOT_UNAVAILABLE",
				"Lot %s is deactivated", l.LotNumber)
		}
		if l.Quality != LotQualityGood {
			return decimal.Zero, shared.NewDomainErrorf("LOT_UNAVAILABLE",
				"Lot %s quality is %s", l.LotNumber, l.Quality)
		}
	}

	if quantity.GreaterThan(l.CurrentQuantity) {
		consumed := l.CurrentQuantity
		l.CurrentQuantity = decimal.Zero
		l.Touch()
		return consumed, nil
	}

	l.CurrentQuantity = l.CurrentQuantity.Sub(quantity)
	l.Touch()
	return quantity, nil
}

// Replenish increases the lot quantity (compensation for reversed exits)
func (l *Lot) Replenish(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.ErrInvalidQuantity
	}
	l.CurrentQuantity = l.CurrentQuantity.Add(quantity)
	l.Touch()
	return nil
}

// Quarantine gates the lot out of FIFO consumption
func (l *Lot) Quarantine() {
	l.Quality = LotQualityQuarantined
	l.Touch()
}

// Reject marks the lot as rejected
func (l *Lot) Reject() {
	l.Quality = LotQualityRejected
	l.Touch()
}

// Release returns a gated lot to consumable state
func (l *Lot) Release() {
	l.Quality = LotQualityGood
	l.Touch()
}

// Deactivate soft-deletes the lot
func (l *Lot) Deactivate() {
	l.Active = false
	l.Touch()
}

// TotalValue returns the remaining value of this lot
func (l *Lot) TotalValue() decimal.Decimal {
	return l.CurrentQuantity.Mul(l.UnitCost)
}
