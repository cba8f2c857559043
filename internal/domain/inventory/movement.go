package inventory

import (
	"time"

	"github.com/erp/inventory/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType represents the type of stock movement
type MovementType string

const (
	MovementTypeEntry         MovementType = "ENTRY"
	MovementTypeExit          MovementType = "EXIT"
	MovementTypeAdjustmentIn  MovementType = "ADJUSTMENT_IN"
	MovementTypeAdjustmentOut MovementType = "ADJUSTMENT_OUT"
	MovementTypeTransferIn    MovementType = "TRANSFER_IN"
	MovementTypeTransferOut   MovementType = "TRANSFER_OUT"
	MovementTypeReturn        MovementType = "RETURN"
)

// String returns the string representation
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeEntry,
		MovementTypeExit,
		MovementTypeAdjustmentIn,
		MovementTypeAdjustmentOut,
		MovementTypeTransferIn,
		MovementTypeTransferOut,
		MovementTypeReturn:
		return true
	}
	return false
}

// IsIncrease returns true if this movement type increases stock
func (t MovementType) IsIncrease() bool {
	switch t {
	case MovementTypeEntry, MovementTypeAdjustmentIn, MovementTypeTransferIn, MovementTypeReturn:
		return true
	}
	return false
}

// IsDecrease returns true if this movement type decreases stock
func (t MovementType) IsDecrease() bool {
	switch t {
	case MovementTypeExit, MovementTypeAdjustmentOut, MovementTypeTransferOut:
		return true
	}
	return false
}

// RequiresAuthorization returns true if this movement type must be
// explicitly authorized before execution. Adjustments and transfers do;
// ordinary entries, exits and returns execute immediately.
func (t MovementType) RequiresAuthorization() bool {
	switch t {
	case MovementTypeAdjustmentIn, MovementTypeAdjustmentOut,
		MovementTypeTransferIn, MovementTypeTransferOut:
		return true
	}
	return false
}

// MovementStatus represents the lifecycle state of a movement
type MovementStatus string

const (
	MovementStatusCreated    MovementStatus = "CREATED"
	MovementStatusPending    MovementStatus = "PENDING"
	MovementStatusAuthorized MovementStatus = "AUTHORIZED"
	MovementStatusExecuted   MovementStatus = "EXECUTED"
	MovementStatusCancelled  MovementStatus = "CANCELLED"
)

// String returns the string representation
func (s MovementStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is valid
func (s MovementStatus) IsValid() bool {
	switch s {
	case MovementStatusCreated, MovementStatusPending, MovementStatusAuthorized,
		MovementStatusExecuted, MovementStatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true if no further transitions are possible
func (s MovementStatus) IsTerminal() bool {
	return s == MovementStatusExecuted || s == MovementStatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s MovementStatus) CanTransitionTo(target MovementStatus) bool {
	switch s {
	case MovementStatusCreated:
		return target == MovementStatusPending ||
			target == MovementStatusAuthorized ||
			target == MovementStatusCancelled
	case MovementStatusPending:
		return target == MovementStatusAuthorized ||
			target == MovementStatusCancelled
	case MovementStatusAuthorized:
		return target == MovementStatusExecuted ||
			target == MovementStatusCancelled
	}
	return false
}

// MovementDetail records the per-lot breakdown of an executed movement
type MovementDetail struct {
	shared.BaseEntity
	MovementID uuid.UUID       `gorm:"type:uuid;not null;index"`
	LotID      *uuid.UUID      `gorm:"type:uuid;index"`
	LotNumber  string          `gorm:"type:varchar(50)"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalCost  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (MovementDetail) TableName() string {
	return "movement_details"
}

// Movement is the auditable record of a stock change.
// Executed movements are immutable; corrections are made with compensating movements.
type Movement struct {
	shared.BaseAggregateRoot
	Number          string          `gorm:"type:varchar(30);not null;uniqueIndex"`
	Type            MovementType    `gorm:"type:varchar(20);not null;index"`
	Status          MovementStatus  `gorm:"type:varchar(20);not null;index"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	WarehouseID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	DestWarehouseID *uuid.UUID      `gorm:"type:uuid;index"` // Transfers only
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalCost       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceBefore   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	BalanceAfter    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Reference       string          `gorm:"type:varchar(100)"` // Source document reference
	Reason          string          `gorm:"type:varchar(255)"`
	ReversalOf      *uuid.UUID      `gorm:"type:uuid;index"` // Set on compensating movements
	AuthorizedAt    *time.Time      `gorm:"type:timestamptz"`
	ExecutedAt      *time.Time      `gorm:"type:timestamptz"`
	CancelledAt     *time.Time      `gorm:"type:timestamptz"`

	Details []MovementDetail `gorm:"foreignKey:MovementID;references:ID"`
}

// TableName returns the table name for GORM
func (Movement) TableName() string {
	return "movements"
}

// NewMovement creates a new movement in CREATED state
func NewMovement(
	movementType MovementType,
	productID, warehouseID uuid.UUID,
	quantity, unitCost decimal.Decimal,
) (*Movement, error) {
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}
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

	base := shared.NewBaseAggregateRoot()
	return &Movement{
		BaseAggregateRoot: base,
		Number:            generateMovementNumber(base.ID),
		Type:              movementType,
		Status:            MovementStatusCreated,
		ProductID:         productID,
		WarehouseID:       warehouseID,
		Quantity:          quantity,
		UnitCost:          unitCost,
		TotalCost:         quantity.Mul(unitCost),
		Details:           make([]MovementDetail, 0),
	}, nil
}

// generateMovementNumber builds a readable unique movement number
func generateMovementNumber(id uuid.UUID) string {
	return "MOV-" + time.Now().Format("20060102") + "-" + id.String()[:8]
}

// WithDestWarehouse sets the destination warehouse for transfer movements
func (m *Movement) WithDestWarehouse(warehouseID uuid.UUID) *Movement {
	m.DestWarehouseID = &warehouseID
	return m
}

// WithReference sets the source document reference
func (m *Movement) WithReference(reference string) *Movement {
	m.Reference = reference
	return m
}

// WithReason sets the reason
func (m *Movement) WithReason(reason string) *Movement {
	m.Reason = reason
	return m
}

// WithReversalOf links this movement to the executed movement it compensates
func (m *Movement) WithReversalOf(movementID uuid.UUID) *Movement {
	m.ReversalOf = &movementID
	return m
}

// AddDetail appends a per-lot consumption line
func (m *Movement) AddDetail(lotID *uuid.UUID, lotNumber string, quantity, unitCost decimal.Decimal) {
	m.Details = append(m.Details, MovementDetail{
		BaseEntity: shared.NewBaseEntity(),
		MovementID: m.ID,
		LotID:      lotID,
		LotNumber:  lotNumber,
		Quantity:   quantity,
		UnitCost:   unitCost,
		TotalCost:  quantity.Mul(unitCost),
	})
}

// AddDetailsFromPlan appends detail lines from a FIFO exit plan
func (m *Movement) AddDetailsFromPlan(plan *ExitPlan) {
	for _, c := range plan.Consumptions {
		lotID := c.LotID
		m.AddDetail(&lotID, c.LotNumber, c.Quantity, c.UnitCost)
	}
}

// Submit moves the movement to PENDING, awaiting authorization
func (m *Movement) Submit() error {
	if !m.Status.CanTransitionTo(MovementStatusPending) {
		return transitionError(m.Status, MovementStatusPending)
	}
	m.Status = MovementStatusPending
	m.Touch()
	m.IncrementVersion()
	return nil
}

// Authorize approves the movement for execution
func (m *Movement) Authorize() error {
	if !m.Status.CanTransitionTo(MovementStatusAuthorized) {
		return transitionError(m.Status, MovementStatusAuthorized)
	}
	now := time.Now()
	m.Status = MovementStatusAuthorized
	m.AuthorizedAt = &now
	m.Touch()
	m.IncrementVersion()
	return nil
}

// Execute marks the movement as applied to stock, recording the balance snapshot
func (m *Movement) Execute(balanceBefore, balanceAfter decimal.Decimal) error {
	if !m.Status.CanTransitionTo(MovementStatusExecuted) {
		return transitionError(m.Status, MovementStatusExecuted)
	}
	now := time.Now()
	m.Status = MovementStatusExecuted
	m.BalanceBefore = balanceBefore
	m.BalanceAfter = balanceAfter
	m.ExecutedAt = &now
	m.Touch()
	m.IncrementVersion()

	m.AddDomainEvent(NewMovementExecutedEvent(m))
	return nil
}

// Cancel aborts a movement that has not been executed
func (m *Movement) Cancel(reason string) error {
	if !m.Status.CanTransitionTo(MovementStatusCancelled) {
		return transitionError(m.Status, MovementStatusCancelled)
	}
	now := time.Now()
	m.Status = MovementStatusCancelled
	m.CancelledAt = &now
	if reason != "" {
		m.Reason = reason
	}
	m.Touch()
	m.IncrementVersion()
	return nil
}

// IsExecuted returns true if the movement has been applied to stock
func (m *Movement) IsExecuted() bool {
	return m.Status == MovementStatusExecuted
}

func transitionError(from, to MovementStatus) error {
	return shared.NewDomainErrorf("INVALID_MOVEMENT_TRANSITION",
		"Cannot transition movement from %s to %s", from, to)
}
