package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/inventory/internal/domain/inventory"
	"github.com/erp/inventory/internal/domain/shared"
	"github.com/erp/inventory/internal/infrastructure/logger"
	"github.com/erp/inventory/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// movementExecuteTTL bounds how long an execution key is remembered
const movementExecuteTTL = 24 * time.Hour

// MovementMetricsRecorder receives execution metrics from the movement
// lifecycle. The telemetry layer provides the implementation.
type MovementMetricsRecorder interface {
	RecordMovementWithQuantity(ctx context.Context, movementType string, quantity decimal.Decimal)
	RecordMovementFailed(ctx context.Context, movementType, reason string)
	RecordMovementDuration(ctx context.Context, movementType string, elapsed time.Duration)
}

// MovementService manages the movement lifecycle for operations that go
// through explicit authorization: create, authorize, execute, cancel.
// Adjustments and transfers require authorization before execution;
// entries, exits and returns are authorized at creation.
type MovementService struct {
	txScope        TransactionScope
	idempotency    shared.IdempotencyStore
	eventPublisher shared.EventPublisher
	metrics        MovementMetricsRecorder
	logger         *zap.Logger
}

// NewMovementService creates a new MovementService
func NewMovementService(txScope TransactionScope, idempotency shared.IdempotencyStore, logger *zap.Logger) *MovementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MovementService{
		txScope:     txScope,
		idempotency: idempotency,
		logger:      logger,
	}
}

// log returns the service logger enriched with the trace and request IDs
// carried by ctx.
func (s *MovementService) log(ctx context.Context) *logger.ContextLogger {
	return logger.WithLogger(ctx, s.logger)
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *MovementService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetricsRecorder sets the recorder for execution metrics
func (s *MovementService) SetMetricsRecorder(metrics MovementMetricsRecorder) {
	s.metrics = metrics
}

func (s *MovementService) recordExecution(ctx context.Context, movementType string, quantity decimal.Decimal, elapsed time.Duration, err error) {
	if s.metrics == nil || movementType == "" {
		return
	}
	s.metrics.RecordMovementDuration(ctx, movementType, elapsed)
	if err == nil {
		s.metrics.RecordMovementWithQuantity(ctx, movementType, quantity)
		return
	}
	reason := "INTERNAL"
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		reason = domainErr.Code
	}
	s.metrics.RecordMovementFailed(ctx, movementType, reason)
}

func (s *MovementService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

// Create registers a movement without applying it to stock.
// Types that require authorization wait in PENDING; the rest are
// authorized immediately and only await execution.
func (s *MovementService) Create(ctx context.Context, req CreateMovementRequest) (*MovementResponse, error) {
	movementType := inventory.MovementType(req.Type)
	if !movementType.IsValid() {
		return nil, shared.NewDomainErrorf("INVALID_MOVEMENT_TYPE", "Invalid movement type: %s", req.Type)
	}
	if movementType == inventory.MovementTypeTransferOut && req.DestWarehouseID == nil {
		return nil, shared.NewDomainError("INVALID_TRANSFER", "Transfer requires a destination warehouse")
	}
	if movementType == inventory.MovementTypeTransferIn {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE",
			"Incoming transfers are created by executing the outgoing leg")
	}

	var response *MovementResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Products().FindByID(ctx, req.ProductID); err != nil {
			return err
		}
		if _, err := repos.Warehouses().FindByID(ctx, req.WarehouseID); err != nil {
			return err
		}
		if req.DestWarehouseID != nil {
			if _, err := repos.Warehouses().FindByID(ctx, *req.DestWarehouseID); err != nil {
				return err
			}
		}

		movement, err := inventory.NewMovement(movementType, req.ProductID, req.WarehouseID, req.Quantity, req.UnitCost)
		if err != nil {
			return err
		}
		movement.WithReference(req.Reference).WithReason(req.Reason)
		if req.DestWarehouseID != nil {
			movement.WithDestWarehouse(*req.DestWarehouseID)
		}

		if movementType.RequiresAuthorization() {
			if err := movement.Submit(); err != nil {
				return err
			}
		} else {
			if err := movement.Authorize(); err != nil {
				return err
			}
		}

		if err := repos.Movements().Save(ctx, movement); err != nil {
			return err
		}
		r := ToMovementResponse(movement)
		response = &r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("movement created",
		zap.String("movement", response.Number),
		zap.String("type", response.Type),
		zap.String("status", response.Status))
	return response, nil
}

// Authorize approves a pending movement for execution
func (s *MovementService) Authorize(ctx context.Context, movementID uuid.UUID) (*MovementResponse, error) {
	var response *MovementResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		movement, err := repos.Movements().FindByID(ctx, movementID)
		if err != nil {
			return err
		}
		if err := movement.Authorize(); err != nil {
			return err
		}
		if err := repos.Movements().SaveWithLock(ctx, movement); err != nil {
			return err
		}
		r := ToMovementResponse(movement)
		response = &r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("movement authorized", zap.String("movement", response.Number))
	return response, nil
}

// Cancel aborts a movement that has not been executed
func (s *MovementService) Cancel(ctx context.Context, movementID uuid.UUID, reason string) (*MovementResponse, error) {
	var response *MovementResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		movement, err := repos.Movements().FindByID(ctx, movementID)
		if err != nil {
			return err
		}
		if err := movement.Cancel(reason); err != nil {
			return err
		}
		if err := repos.Movements().SaveWithLock(ctx, movement); err != nil {
			return err
		}
		r := ToMovementResponse(movement)
		response = &r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("movement cancelled",
		zap.String("movement", response.Number),
		zap.String("reason", reason))
	return response, nil
}

// Execute applies an authorized movement to stock. The idempotency store
// guards against double execution across retries and concurrent callers.
func (s *MovementService) Execute(ctx context.Context, movementID uuid.UUID) (*MovementResponse, error) {
	key := fmt.Sprintf("movement:execute:%s", movementID)
	if s.idempotency != nil {
		first, err := s.idempotency.MarkProcessed(ctx, key, movementExecuteTTL)
		if err != nil {
			return nil, err
		}
		if !first {
			return nil, shared.NewDomainErrorf("MOVEMENT_ALREADY_EXECUTED",
				"Movement %s is already being executed", movementID)
		}
	}

	var response *MovementResponse
	var events []shared.DomainEvent
	var executedType string
	var executedQuantity decimal.Decimal
	started := time.Now()

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		movement, err := repos.Movements().FindByID(ctx, movementID)
		if err != nil {
			return err
		}
		executedType = string(movement.Type)
		executedQuantity = movement.Quantity
		if movement.Status != inventory.MovementStatusAuthorized {
			return shared.NewDomainErrorf("INVALID_MOVEMENT_TRANSITION",
				"Cannot execute movement in status %s", movement.Status)
		}

		switch movement.Type {
		case inventory.MovementTypeEntry, inventory.MovementTypeReturn:
			err = s.executeEntry(ctx, repos, movement, inventory.LotNumberPrefix, &events)
		case inventory.MovementTypeExit:
			err = s.executeExit(ctx, repos, movement, true, &events)
		case inventory.MovementTypeAdjustmentIn, inventory.MovementTypeAdjustmentOut:
			err = s.executeAdjustment(ctx, repos, movement, &events)
		case inventory.MovementTypeTransferOut:
			err = s.executeTransfer(ctx, repos, movement, &events)
		default:
			err = shared.NewDomainErrorf("INVALID_MOVEMENT_TYPE",
				"Movement type %s cannot be executed directly", movement.Type)
		}
		if err != nil {
			return err
		}

		if err := repos.Movements().SaveWithLock(ctx, movement); err != nil {
			return err
		}
		r := ToMovementResponse(movement)
		response = &r
		return nil
	})
	s.recordExecution(ctx, executedType, executedQuantity, time.Since(started), err)
	if err != nil {
		// Release the key so a failed execution stays retryable. Only
		// a committed execution keeps its key for the full TTL.
		if s.idempotency != nil {
			if relErr := s.idempotency.Release(ctx, key); relErr != nil {
				s.log(ctx).Warn("could not release execution key, retries blocked until TTL",
					zap.String("movement_id", movementID.String()),
					zap.Error(relErr))
			}
		}
		return nil, err
	}

	s.publishEvents(ctx, events)
	s.log(ctx).Info("movement executed",
		zap.String("movement", response.Number),
		zap.String("type", response.Type))
	return response, nil
}

// Get retrieves a movement with its detail lines
func (s *MovementService) Get(ctx context.Context, movementID uuid.UUID) (*MovementResponse, error) {
	var response *MovementResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		movement, err := repos.Movements().FindByID(ctx, movementID)
		if err != nil {
			return err
		}
		r := ToMovementResponse(movement)
		response = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// GetByNumber retrieves a movement by its document number
func (s *MovementService) GetByNumber(ctx context.Context, number string) (*MovementResponse, error) {
	var response *MovementResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		movement, err := repos.Movements().FindByNumber(ctx, number)
		if err != nil {
			return err
		}
		r := ToMovementResponse(movement)
		response = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// List retrieves movements with filtering and pagination
func (s *MovementService) List(ctx context.Context, filter MovementListFilter) ([]MovementResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Type != "" {
		domainFilter.Filters["type"] = filter.Type
	}

	var responses []MovementResponse
	var total int64
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var movements []inventory.Movement
		var err error
		if filter.ProductID != nil {
			movements, err = repos.Movements().FindByProduct(ctx, *filter.ProductID, domainFilter)
		} else {
			movements, err = repos.Movements().FindAll(ctx, domainFilter)
		}
		if err != nil {
			return err
		}

		countFilter := domainFilter
		if filter.ProductID != nil {
			countFilter.Filters["product_id"] = *filter.ProductID
		}
		total, err = repos.Movements().Count(ctx, countFilter)
		if err != nil {
			return err
		}

		responses = ToMovementResponses(movements)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return responses, total, nil
}

// executeEntry applies a deferred entry or return movement to stock
func (s *MovementService) executeEntry(
	ctx context.Context,
	repos TransactionalRepositories,
	movement *inventory.Movement,
	lotPrefix string,
	events *[]shared.DomainEvent,
) error {
	product, err := repos.Products().FindByID(ctx, movement.ProductID)
	if err != nil {
		return err
	}
	if _, err := repos.StockRecords().GetOrCreate(ctx, movement.ProductID, movement.WarehouseID); err != nil {
		return err
	}
	record, err := repos.StockRecords().FindForUpdate(ctx, movement.ProductID, movement.WarehouseID)
	if err != nil {
		return err
	}

	balanceBefore := record.Quantity
	if err := record.ApplyEntry(movement.Quantity, movement.UnitCost); err != nil {
		return err
	}

	lot, err := inventory.NewLot(movement.ProductID, movement.WarehouseID,
		inventory.GenerateLotNumber(lotPrefix, time.Now()), movement.Quantity, movement.UnitCost, nil)
	if err != nil {
		return err
	}
	lot.WithSource("", movement.Reference)
	if err := repos.Lots().Save(ctx, lot); err != nil {
		return err
	}

	if err := product.RecordPurchase(movement.Quantity, movement.UnitCost); err != nil {
		return err
	}
	if err := repos.Products().SaveWithLock(ctx, product); err != nil {
		return err
	}

	movement.AddDetail(&lot.ID, lot.LotNumber, movement.Quantity, movement.UnitCost)
	if err := movement.Execute(balanceBefore, record.Quantity); err != nil {
		return err
	}

	if err := repos.StockRecords().SaveWithLock(ctx, record); err != nil {
		return err
	}
	drainEvents(events, record)
	drainEvents(events, movement)
	return nil
}

// executeExit applies a deferred exit movement to stock.
// Deferred exits are never forced; shortfalls are errors.
func (s *MovementService) executeExit(
	ctx context.Context,
	repos TransactionalRepositories,
	movement *inventory.Movement,
	recordSale bool,
	events *[]shared.DomainEvent,
) error {
	product, err := repos.Products().FindByID(ctx, movement.ProductID)
	if err != nil {
		return err
	}
	record, err := repos.StockRecords().FindForUpdate(ctx, movement.ProductID, movement.WarehouseID)
	if err != nil {
		return err
	}
	if record.Available().LessThan(movement.Quantity) {
		return shared.NewDomainErrorf("INSUFFICIENT_STOCK",
			"Insufficient stock: available %s, requested %s",
			record.Available().String(), movement.Quantity.String())
	}

	lots, err := repos.Lots().FindConsumable(ctx, movement.ProductID, movement.WarehouseID)
	if err != nil {
		return err
	}

	// FIFO planning is the hot path worth separating in profiles
	var plan *inventory.ExitPlan
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("fifo_exit_plan", map[string]string{
		telemetry.ProfilingLabelWarehouse: movement.WarehouseID.String(),
	}), func(context.Context) {
		plan, err = inventory.PlanFIFOExit(movement.Quantity, lots)
	})
	if err != nil {
		return err
	}
	if !plan.FullyFulfilled {
		return shared.NewDomainErrorf("INSUFFICIENT_STOCK",
			"Lots cover %s of requested %s",
			plan.TotalConsumed.String(), movement.Quantity.String())
	}

	consumed := make([]*inventory.Lot, 0, len(plan.Consumptions))
	byID := make(map[uuid.UUID]*inventory.Lot, len(lots))
	for i := range lots {
		byID[lots[i].ID] = &lots[i]
	}
	for _, c := range plan.Consumptions {
		if lot, ok := byID[c.LotID]; ok {
			consumed = append(consumed, lot)
		}
	}
	if err := inventory.ApplyExitPlan(consumed, plan); err != nil {
		return err
	}
	if err := repos.Lots().SaveAll(ctx, consumed); err != nil {
		return err
	}

	balanceBefore := record.Quantity
	if err := record.ApplyExit(plan.TotalConsumed, true); err != nil {
		return err
	}

	// Transfers do not count as sales in the product running totals
	if recordSale {
		if err := product.RecordSale(plan.TotalConsumed); err != nil {
			return err
		}
		if err := repos.Products().SaveWithLock(ctx, product); err != nil {
			return err
		}
	}

	movement.UnitCost = plan.WeightedAverageCost
	movement.TotalCost = plan.TotalCost
	movement.AddDetailsFromPlan(plan)
	if err := movement.Execute(balanceBefore, record.Quantity); err != nil {
		return err
	}

	if record.IsBelowReorder(product.ReorderThreshold()) {
		record.AddDomainEvent(inventory.NewStockBelowReorderEvent(record, product.Code, product.ReorderThreshold()))
	}
	if err := repos.StockRecords().SaveWithLock(ctx, record); err != nil {
		return err
	}
	drainEvents(events, record)
	drainEvents(events, movement)
	return nil
}

// executeAdjustment applies a deferred adjustment movement to stock.
// Adjustments move the recorded quantity without touching lot remainders;
// incoming adjustments are valued at the movement's unit cost, outgoing
// ones simply reduce the quantity and may drive it negative.
func (s *MovementService) executeAdjustment(
	ctx context.Context,
	repos TransactionalRepositories,
	movement *inventory.Movement,
	events *[]shared.DomainEvent,
) error {
	product, err := repos.Products().FindByID(ctx, movement.ProductID)
	if err != nil {
		return err
	}
	if _, err := repos.StockRecords().GetOrCreate(ctx, movement.ProductID, movement.WarehouseID); err != nil {
		return err
	}
	record, err := repos.StockRecords().FindForUpdate(ctx, movement.ProductID, movement.WarehouseID)
	if err != nil {
		return err
	}

	balanceBefore := record.Quantity
	if movement.Type == inventory.MovementTypeAdjustmentIn {
		if err := record.ApplyEntry(movement.Quantity, movement.UnitCost); err != nil {
			return err
		}
	} else {
		if err := record.ApplyExit(movement.Quantity, true); err != nil {
			return err
		}
	}

	if err := movement.Execute(balanceBefore, record.Quantity); err != nil {
		return err
	}

	if record.IsBelowReorder(product.ReorderThreshold()) {
		record.AddDomainEvent(inventory.NewStockBelowReorderEvent(record, product.Code, product.ReorderThreshold()))
	}
	if err := repos.StockRecords().SaveWithLock(ctx, record); err != nil {
		return err
	}
	drainEvents(events, record)
	drainEvents(events, movement)
	return nil
}

// executeTransfer applies a deferred transfer: the outgoing leg consumes
// lots at the origin, and an executed incoming leg is recorded at the
// destination carrying the exit's weighted average cost.
func (s *MovementService) executeTransfer(
	ctx context.Context,
	repos TransactionalRepositories,
	movement *inventory.Movement,
	events *[]shared.DomainEvent,
) error {
	if movement.DestWarehouseID == nil {
		return shared.NewDomainError("INVALID_TRANSFER", "Transfer requires a destination warehouse")
	}
	destWarehouseID := *movement.DestWarehouseID

	product, err := repos.Products().FindByID(ctx, movement.ProductID)
	if err != nil {
		return err
	}

	if _, err := repos.StockRecords().GetOrCreate(ctx, movement.ProductID, movement.WarehouseID); err != nil {
		return err
	}
	if _, err := repos.StockRecords().GetOrCreate(ctx, movement.ProductID, destWarehouseID); err != nil {
		return err
	}

	first, second := movement.WarehouseID, destWarehouseID
	if second.String() < first.String() {
		first, second = second, first
	}
	if _, err := repos.StockRecords().FindForUpdate(ctx, movement.ProductID, first); err != nil {
		return err
	}
	if _, err := repos.StockRecords().FindForUpdate(ctx, movement.ProductID, second); err != nil {
		return err
	}

	if err := s.executeExit(ctx, repos, movement, false, events); err != nil {
		return err
	}

	carriedCost := movement.UnitCost
	if carriedCost.LessThanOrEqual(decimal.Zero) {
		carriedCost = product.PurchasePrice
	}

	inbound, err := inventory.NewMovement(inventory.MovementTypeTransferIn,
		movement.ProductID, destWarehouseID, movement.Quantity, carriedCost)
	if err != nil {
		return err
	}
	inbound.WithReference(movement.Number)
	if err := inbound.Authorize(); err != nil {
		return err
	}

	destRecord, err := repos.StockRecords().FindForUpdate(ctx, movement.ProductID, destWarehouseID)
	if err != nil {
		return err
	}
	destBefore := destRecord.Quantity
	if err := destRecord.ApplyEntry(movement.Quantity, carriedCost); err != nil {
		return err
	}

	lot, err := inventory.NewLot(movement.ProductID, destWarehouseID,
		inventory.GenerateLotNumber(inventory.TransferNumberPrefix, time.Now()),
		movement.Quantity, carriedCost, nil)
	if err != nil {
		return err
	}
	lot.WithSource("", movement.Number)
	if err := repos.Lots().Save(ctx, lot); err != nil {
		return err
	}

	inbound.AddDetail(&lot.ID, lot.LotNumber, movement.Quantity, carriedCost)
	if err := inbound.Execute(destBefore, destRecord.Quantity); err != nil {
		return err
	}
	if err := repos.Movements().Save(ctx, inbound); err != nil {
		return err
	}
	if err := repos.StockRecords().SaveWithLock(ctx, destRecord); err != nil {
		return err
	}

	drainEvents(events, destRecord)
	drainEvents(events, inbound)
	return nil
}
