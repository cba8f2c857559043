package inventory

import (
	"github.com/erp/inventory/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeStockRecord = "StockRecord"
	AggregateTypeMovement    = "Movement"
)

// Event type constants
const (
	EventTypeStockEntered      = "StockEntered"
	EventTypeStockExited       = "StockExited"
	EventTypeStockAdjusted     = "StockAdjusted"
	EventTypeStockBelowReorder = "StockBelowReorder"
	EventTypeMovementExecuted  = "MovementExecuted"
)

// StockEnteredEvent is raised when stock enters a warehouse
type StockEnteredEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	NewAvgCost  decimal.Decimal `json:"new_avg_cost"`
}

// NewStockEnteredEvent creates a new StockEnteredEvent
func NewStockEnteredEvent(record *StockRecord, quantity, unitCost decimal.Decimal) *StockEnteredEvent {
	return &StockEnteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockEntered, AggregateTypeStockRecord, record.ID),
		ProductID:       record.ProductID,
		WarehouseID:     record.WarehouseID,
		Quantity:        quantity,
		UnitCost:        unitCost,
		NewAvgCost:      record.AvgCost,
	}
}

// EventType returns the event type name
func (e *StockEnteredEvent) EventType() string {
	return EventTypeStockEntered
}

// StockExitedEvent is raised when stock leaves a warehouse
type StockExitedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	AvgCost     decimal.Decimal `json:"avg_cost"`
}

// NewStockExitedEvent creates a new StockExitedEvent
func NewStockExitedEvent(record *StockRecord, quantity decimal.Decimal) *StockExitedEvent {
	return &StockExitedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockExited, AggregateTypeStockRecord, record.ID),
		ProductID:       record.ProductID,
		WarehouseID:     record.WarehouseID,
		Quantity:        quantity,
		AvgCost:         record.AvgCost,
	}
}

// EventType returns the event type name
func (e *StockExitedEvent) EventType() string {
	return EventTypeStockExited
}

// StockAdjustedEvent is raised when stock is set to a counted quantity
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID       `json:"product_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	OldQuantity decimal.Decimal `json:"old_quantity"`
	NewQuantity decimal.Decimal `json:"new_quantity"`
	Difference  decimal.Decimal `json:"difference"`
	Reason      string          `json:"reason"`
}

// NewStockAdjustedEvent creates a new StockAdjustedEvent
func NewStockAdjustedEvent(record *StockRecord, oldQty, newQty, difference decimal.Decimal, reason string) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdjusted, AggregateTypeStockRecord, record.ID),
		ProductID:       record.ProductID,
		WarehouseID:     record.WarehouseID,
		OldQuantity:     oldQty,
		NewQuantity:     newQty,
		Difference:      difference,
		Reason:          reason,
	}
}

// EventType returns the event type name
func (e *StockAdjustedEvent) EventType() string {
	return EventTypeStockAdjusted
}

// StockBelowReorderEvent is raised when stock falls below the product reorder point
type StockBelowReorderEvent struct {
	shared.BaseDomainEvent
	ProductID    uuid.UUID       `json:"product_id"`
	ProductCode  string          `json:"product_code"`
	WarehouseID  uuid.UUID       `json:"warehouse_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
}

// NewStockBelowReorderEvent creates a new StockBelowReorderEvent
func NewStockBelowReorderEvent(record *StockRecord, productCode string, reorderPoint decimal.Decimal) *StockBelowReorderEvent {
	return &StockBelowReorderEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowReorder, AggregateTypeStockRecord, record.ID),
		ProductID:       record.ProductID,
		ProductCode:     productCode,
		WarehouseID:     record.WarehouseID,
		Quantity:        record.Quantity,
		ReorderPoint:    reorderPoint,
	}
}

// EventType returns the event type name
func (e *StockBelowReorderEvent) EventType() string {
	return EventTypeStockBelowReorder
}

// MovementExecutedEvent is raised when a movement is applied to stock
type MovementExecutedEvent struct {
	shared.BaseDomainEvent
	MovementID   uuid.UUID       `json:"movement_id"`
	Number       string          `json:"number"`
	MovementType MovementType    `json:"movement_type"`
	ProductID    uuid.UUID       `json:"product_id"`
	WarehouseID  uuid.UUID       `json:"warehouse_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	TotalCost    decimal.Decimal `json:"total_cost"`
}

// NewMovementExecutedEvent creates a new MovementExecutedEvent
func NewMovementExecutedEvent(m *Movement) *MovementExecutedEvent {
	return &MovementExecutedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMovementExecuted, AggregateTypeMovement, m.ID),
		MovementID:      m.ID,
		Number:          m.Number,
		MovementType:    m.Type,
		ProductID:       m.ProductID,
		WarehouseID:     m.WarehouseID,
		Quantity:        m.Quantity,
		TotalCost:       m.TotalCost,
	}
}

// EventType returns the event type name
func (e *MovementExecutedEvent) EventType() string {
	return EventTypeMovementExecuted
}
