package inventory

import (
	"github.com/erp/inventory/internal/domain/shared"
)

// Warehouse represents a physical or logical stock location.
type Warehouse struct {
	shared.BaseAggregateRoot
	Code     string `gorm:"type:varchar(20);not null;uniqueIndex"`
	Name     string `gorm:"type:varchar(255);not null"`
	Location string `gorm:"type:varchar(255)"`
	IsMain   bool   `gorm:"not null;default:false"`
	Active   bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Warehouse) TableName() string {
	return "warehouses"
}

// NewWarehouse creates a new warehouse
func NewWarehouse(code, name string) (*Warehouse, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Warehouse code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Warehouse name cannot be empty")
	}

	return &Warehouse{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Active:            true,
	}, nil
}

// MarkAsMain flags the warehouse as the main location
func (w *Warehouse) MarkAsMain() {
	w.IsMain = true
	w.Touch()
	w.IncrementVersion()
}

// Deactivate soft-deletes the warehouse
func (w *Warehouse) Deactivate() {
	w.Active = false
	w.Touch()
	w.IncrementVersion()
}

// Activate restores a deactivated warehouse
func (w *Warehouse) Activate() {
	w.Active = true
	w.Touch()
	w.IncrementVersion()
}
