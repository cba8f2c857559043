package inventory

import (
	"time"

	"github.com/erp/inventory/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryRequest describes a stock entry (purchase receipt, return, initial load)
type EntryRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID       `json:"warehouse_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost    decimal.Decimal `json:"unit_cost" binding:"required"`
	LotNumber   string          `json:"lot_number"`
	ExpiryDate  *time.Time      `json:"expiry_date"`
	SupplierRef string          `json:"supplier_ref"`
	Reference   string          `json:"reference"`
	Reason      string          `json:"reason"`
}

// EntryResult is the outcome of a processed entry
type EntryResult struct {
	MovementID     uuid.UUID       `json:"movement_id"`
	MovementNumber string          `json:"movement_number"`
	LotID          uuid.UUID       `json:"lot_id"`
	LotNumber      string          `json:"lot_number"`
	NewQuantity    decimal.Decimal `json:"new_quantity"`
	NewAvgCost     decimal.Decimal `json:"new_avg_cost"`
}

// ExitRequest describes a stock exit. ForceIfShort converts shortfalls from
// errors into reported remainders.
type ExitRequest struct {
	ProductID    uuid.UUID       `json:"product_id" binding:"required"`
	WarehouseID  uuid.UUID       `json:"warehouse_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	ForceIfShort bool            `json:"force_if_short"`
	Reference    string          `json:"reference"`
	Reason       string          `json:"reason"`
}

// ExitResult is the outcome of a processed exit, including the FIFO cost breakdown
type ExitResult struct {
	MovementID          uuid.UUID                  `json:"movement_id"`
	MovementNumber      string                     `json:"movement_number"`
	QuantityFulfilled   decimal.Decimal            `json:"quantity_fulfilled"`
	QuantityShort       decimal.Decimal            `json:"quantity_short"`
	CostBreakdown       []inventory.LotConsumption `json:"cost_breakdown"`
	TotalCost           decimal.Decimal            `json:"total_cost"`
	WeightedAverageCost decimal.Decimal            `json:"weighted_average_cost"`
	NewQuantity         decimal.Decimal            `json:"new_quantity"`
}

// AdjustRequest sets stock to a counted quantity
type AdjustRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	WarehouseID uuid.UUID       `json:"warehouse_id" binding:"required"`
	NewQuantity decimal.Decimal `json:"new_quantity"`
	Reason      string          `json:"reason" binding:"required,min=1,max=255"`
}

// AdjustResult is the outcome of a stock adjustment
type AdjustResult struct {
	MovementID       uuid.UUID       `json:"movement_id"`
	MovementNumber   string          `json:"movement_number"`
	PreviousQuantity decimal.Decimal `json:"previous_quantity"`
	NewQuantity      decimal.Decimal `json:"new_quantity"`
	Delta            decimal.Decimal `json:"delta"`
}

// TransferRequest moves stock between warehouses
type TransferRequest struct {
	ProductID         uuid.UUID       `json:"product_id" binding:"required"`
	OriginWarehouseID uuid.UUID       `json:"origin_warehouse_id" binding:"required"`
	DestWarehouseID   uuid.UUID       `json:"dest_warehouse_id" binding:"required"`
	Quantity          decimal.Decimal `json:"quantity" binding:"required"`
	Reference         string          `json:"reference"`
}

// TransferResult is the outcome of a transfer
type TransferResult struct {
	Exit            *ExitResult     `json:"exit"`
	Entry           *EntryResult    `json:"entry"`
	CarriedUnitCost decimal.Decimal `json:"carried_unit_cost"`
}

// AvailabilityResult answers a checkAvailability query
type AvailabilityResult struct {
	Available         bool            `json:"available"`
	CurrentQuantity   decimal.Decimal `json:"current_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	Requested         decimal.Decimal `json:"requested"`
}

// StockRecordResponse represents a stock record in API responses
type StockRecordResponse struct {
	ID                uuid.UUID       `json:"id"`
	ProductID         uuid.UUID       `json:"product_id"`
	WarehouseID       uuid.UUID       `json:"warehouse_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	Reserved          decimal.Decimal `json:"reserved"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	AvgCost           decimal.Decimal `json:"avg_cost"`
	TotalValue        decimal.Decimal `json:"total_value"`
	LastEntryAt       *time.Time      `json:"last_entry_at,omitempty"`
	LastExitAt        *time.Time      `json:"last_exit_at,omitempty"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// ToStockRecordResponse maps a stock record to its response form
func ToStockRecordResponse(record *inventory.StockRecord) StockRecordResponse {
	return StockRecordResponse{
		ID:                record.ID,
		ProductID:         record.ProductID,
		WarehouseID:       record.WarehouseID,
		Quantity:          record.Quantity,
		Reserved:          record.Reserved,
		AvailableQuantity: record.Available(),
		AvgCost:           record.AvgCost,
		LastEntryAt:       record.LastEntryAt,
		LastExitAt:        record.LastExitAt,
		TotalValue:        record.TotalValue(),
		UpdatedAt:         record.UpdatedAt,
		Version:           record.Version,
	}
}

// LotResponse represents a lot in API responses
type LotResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	WarehouseID     uuid.UUID       `json:"warehouse_id"`
	LotNumber       string          `json:"lot_number"`
	IngressDate     time.Time       `json:"ingress_date"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`
	InitialQuantity decimal.Decimal `json:"initial_quantity"`
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	SupplierRef     string          `json:"supplier_ref,omitempty"`
	SourceDoc       string          `json:"source_doc,omitempty"`
	Quality         string          `json:"quality"`
	DaysUntilExpiry int             `json:"days_until_expiry"`
	Expired         bool            `json:"expired"`
}

// ToLotResponse maps a lot to its response form
func ToLotResponse(lot *inventory.Lot) LotResponse {
	return LotResponse{
		ID:              lot.ID,
		ProductID:       lot.ProductID,
		WarehouseID:     lot.WarehouseID,
		LotNumber:       lot.LotNumber,
		IngressDate:     lot.IngressDate,
		ExpiryDate:      lot.ExpiryDate,
		InitialQuantity: lot.InitialQuantity,
		CurrentQuantity: lot.CurrentQuantity,
		UnitCost:        lot.UnitCost,
		SupplierRef:     lot.SupplierRef,
		SourceDoc:       lot.SourceDoc,
		Quality:         lot.Quality.String(),
		DaysUntilExpiry: lot.DaysUntilExpiry(),
		Expired:         lot.IsExpired(),
	}
}

// ToLotResponses maps a slice of lots
func ToLotResponses(lots []inventory.Lot) []LotResponse {
	responses := make([]LotResponse, 0, len(lots))
	for i := range lots {
		responses = append(responses, ToLotResponse(&lots[i]))
	}
	return responses
}

// MovementDetailResponse represents a movement detail line
type MovementDetailResponse struct {
	LotID     *uuid.UUID      `json:"lot_id,omitempty"`
	LotNumber string          `json:"lot_number,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// MovementResponse represents a movement in API responses
type MovementResponse struct {
	ID              uuid.UUID                `json:"id"`
	Number          string                   `json:"number"`
	Type            string                   `json:"type"`
	Status          string                   `json:"status"`
	ProductID       uuid.UUID                `json:"product_id"`
	WarehouseID     uuid.UUID                `json:"warehouse_id"`
	DestWarehouseID *uuid.UUID               `json:"dest_warehouse_id,omitempty"`
	Quantity        decimal.Decimal          `json:"quantity"`
	UnitCost        decimal.Decimal          `json:"unit_cost"`
	TotalCost       decimal.Decimal          `json:"total_cost"`
	BalanceBefore   decimal.Decimal          `json:"balance_before"`
	BalanceAfter    decimal.Decimal          `json:"balance_after"`
	Reference       string                   `json:"reference,omitempty"`
	Reason          string                   `json:"reason,omitempty"`
	ReversalOf      *uuid.UUID               `json:"reversal_of,omitempty"`
	AuthorizedAt    *time.Time               `json:"authorized_at,omitempty"`
	ExecutedAt      *time.Time               `json:"executed_at,omitempty"`
	CancelledAt     *time.Time               `json:"cancelled_at,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	Details         []MovementDetailResponse `json:"details"`
}

// ToMovementResponse maps a movement to its response form
func ToMovementResponse(m *inventory.Movement) MovementResponse {
	details := make([]MovementDetailResponse, 0, len(m.Details))
	for _, d := range m.Details {
		details = append(details, MovementDetailResponse{
			LotID:     d.LotID,
			LotNumber: d.LotNumber,
			Quantity:  d.Quantity,
			UnitCost:  d.UnitCost,
			TotalCost: d.TotalCost,
		})
	}
	return MovementResponse{
		ID:              m.ID,
		Number:          m.Number,
		Type:            m.Type.String(),
		Status:          m.Status.String(),
		ProductID:       m.ProductID,
		WarehouseID:     m.WarehouseID,
		DestWarehouseID: m.DestWarehouseID,
		Quantity:        m.Quantity,
		UnitCost:        m.UnitCost,
		TotalCost:       m.TotalCost,
		BalanceBefore:   m.BalanceBefore,
		BalanceAfter:    m.BalanceAfter,
		Reference:       m.Reference,
		Reason:          m.Reason,
		ReversalOf:      m.ReversalOf,
		AuthorizedAt:    m.AuthorizedAt,
		ExecutedAt:      m.ExecutedAt,
		CancelledAt:     m.CancelledAt,
		CreatedAt:       m.CreatedAt,
		Details:         details,
	}
}

// ToMovementResponses maps a slice of movements
func ToMovementResponses(movements []inventory.Movement) []MovementResponse {
	responses := make([]MovementResponse, 0, len(movements))
	for i := range movements {
		responses = append(responses, ToMovementResponse(&movements[i]))
	}
	return responses
}

// CreateMovementRequest creates a movement through the deferred authorization path
type CreateMovementRequest struct {
	Type            string          `json:"type" binding:"required"`
	ProductID       uuid.UUID       `json:"product_id" binding:"required"`
	WarehouseID     uuid.UUID       `json:"warehouse_id" binding:"required"`
	DestWarehouseID *uuid.UUID      `json:"dest_warehouse_id"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	Reference       string          `json:"reference"`
	Reason          string          `json:"reason"`
}

// MovementListFilter represents filter options for movement listing
type MovementListFilter struct {
	ProductID *uuid.UUID `form:"product_id"`
	Status    string     `form:"status"`
	Type      string     `form:"type"`
	Page      int        `form:"page"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ValuationReport aggregates stock value at average cost
type ValuationReport struct {
	GeneratedAt time.Time                `json:"generated_at"`
	WarehouseID *uuid.UUID               `json:"warehouse_id,omitempty"`
	TotalItems  int                      `json:"total_items"`
	TotalValue  decimal.Decimal          `json:"total_value"`
	Lines       []inventory.ValuationRow `json:"lines"`
}

// ExpiryReport lists lots close to or past expiry
type ExpiryReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	WarehouseID *uuid.UUID    `json:"warehouse_id,omitempty"`
	WithinDays  int           `json:"within_days"`
	Lots        []LotResponse `json:"lots"`
}
