package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/erp/inventory/internal/domain/inventory"
	"github.com/erp/inventory/internal/domain/shared"
	"github.com/erp/inventory/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InventoryService handles stock entries, exits, adjustments and transfers.
// Every mutating operation runs inside a single transaction and publishes
// collected domain events only after the transaction commits.
type InventoryService struct {
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(txScope TransactionScope, logger *zap.Logger) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		txScope: txScope,
		logger:  logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InventoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// log returns the service logger enriched with the trace and request IDs
// carried by ctx.
func (s *InventoryService) log(ctx context.Context) *logger.ContextLogger {
	return logger.WithLogger(ctx, s.logger)
}

// publishEvents publishes collected domain events after a successful commit.
// Errors are logged by the event bus, not propagated.
func (s *InventoryService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

// drainEvents moves domain events from an aggregate into the collector
func drainEvents(collector *[]shared.DomainEvent, root shared.AggregateRoot) {
	*collector = append(*collector, root.GetDomainEvents()...)
	root.ClearDomainEvents()
}

// ProcessEntry registers a stock entry. A lot is always created: the given
// lot number when provided, an autogenerated one otherwise.
func (s *InventoryService) ProcessEntry(ctx context.Context, req EntryRequest) (*EntryResult, error) {
	var result *EntryResult
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := s.processEntryInTx(ctx, repos, inventory.MovementTypeEntry, req, req.LotNumber, &events)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	s.log(ctx).Info("stock entry processed",
		zap.String("movement", result.MovementNumber),
		zap.String("product_id", req.ProductID.String()),
		zap.String("warehouse_id", req.WarehouseID.String()),
		zap.String("quantity", req.Quantity.String()),
		zap.String("lot", result.LotNumber))
	return result, nil
}

// ProcessReturn registers returned goods as a stock entry with a RETURN movement
func (s *InventoryService) ProcessReturn(ctx context.Context, req EntryRequest) (*EntryResult, error) {
	var result *EntryResult
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := s.processEntryInTx(ctx, repos, inventory.MovementTypeReturn, req, req.LotNumber, &events)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	s.log(ctx).Info("stock return processed",
		zap.String("movement", result.MovementNumber),
		zap.String("product_id", req.ProductID.String()),
		zap.String("quantity", req.Quantity.String()))
	return result, nil
}

// ProcessExit registers a stock exit consuming lots in FIFO order.
// Without ForceIfShort an insufficient available quantity is an error;
// with it the exit consumes what the lots cover and reports the remainder.
func (s *InventoryService) ProcessExit(ctx context.Context, req ExitRequest) (*ExitResult, error) {
	var result *ExitResult
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := s.processExitInTx(ctx, repos, inventory.MovementTypeExit, req, nil, &events)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	s.log(ctx).Info("stock exit processed",
		zap.String("movement", result.MovementNumber),
		zap.String("product_id", req.ProductID.String()),
		zap.String("warehouse_id", req.WarehouseID.String()),
		zap.String("fulfilled", result.QuantityFulfilled.String()),
		zap.String("short", result.QuantityShort.String()))
	return result, nil
}

// AdjustStock sets the stock to the counted quantity and records a
// compensating adjustment movement valued at the current average cost.
// Lot remainders are not touched.
func (s *InventoryService) AdjustStock(ctx context.Context, req AdjustRequest) (*AdjustResult, error) {
	var result *AdjustResult
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := s.adjustInTx(ctx, repos, req, &events)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	s.log(ctx).Info("stock adjusted",
		zap.String("product_id", req.ProductID.String()),
		zap.String("warehouse_id", req.WarehouseID.String()),
		zap.String("delta", result.Delta.String()),
		zap.String("reason", req.Reason))
	return result, nil
}

// Transfer moves stock between warehouses atomically: a non-forced FIFO exit
// at the origin and an entry at the destination carrying the exit's weighted
// average cost. Either both legs apply or neither does.
func (s *InventoryService) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	var result *TransferResult
	var events []shared.DomainEvent

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := s.transferInTx(ctx, repos, req, &events)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, events)
	s.log(ctx).Info("stock transferred",
		zap.String("product_id", req.ProductID.String()),
		zap.String("origin", req.OriginWarehouseID.String()),
		zap.String("destination", req.DestWarehouseID.String()),
		zap.String("quantity", req.Quantity.String()),
		zap.String("carried_cost", result.CarriedUnitCost.String()))
	return result, nil
}

// CheckAvailability answers whether the requested quantity can be fulfilled.
// Products that do not track stock are always available.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID, warehouseID uuid.UUID, quantity decimal.Decimal) (*AvailabilityResult, error) {
	var result *AvailabilityResult

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.Products().FindByID(ctx, productID)
		if err != nil {
			return err
		}

		if !product.TrackStock {
			result = &AvailabilityResult{
				Available: true,
				Requested: quantity,
			}
			return nil
		}

		record, err := repos.StockRecords().FindByProductAndWarehouse(ctx, productID, warehouseID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				result = &AvailabilityResult{
					Available: false,
					Requested: quantity,
				}
				return nil
			}
			return err
		}

		result = &AvailabilityResult{
			Available:         record.Available().GreaterThanOrEqual(quantity),
			CurrentQuantity:   record.Quantity,
			AvailableQuantity: record.Available(),
			Requested:         quantity,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetStock retrieves the stock record for a product at a warehouse
func (s *InventoryService) GetStock(ctx context.Context, productID, warehouseID uuid.UUID) (*StockRecordResponse, error) {
	var response *StockRecordResponse

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		record, err := repos.StockRecords().FindByProductAndWarehouse(ctx, productID, warehouseID)
		if err != nil {
			return err
		}
		r := ToStockRecordResponse(record)
		response = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// ListStockByWarehouse retrieves stock records in a warehouse
func (s *InventoryService) ListStockByWarehouse(ctx context.Context, warehouseID uuid.UUID, filter shared.Filter) ([]StockRecordResponse, error) {
	var responses []StockRecordResponse

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		records, err := repos.StockRecords().FindByWarehouse(ctx, warehouseID, filter)
		if err != nil {
			return err
		}
		responses = make([]StockRecordResponse, 0, len(records))
		for i := range records {
			responses = append(responses, ToStockRecordResponse(&records[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// ListStockByProduct retrieves stock records for a product across warehouses
func (s *InventoryService) ListStockByProduct(ctx context.Context, productID uuid.UUID) ([]StockRecordResponse, error) {
	var responses []StockRecordResponse

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		records, err := repos.StockRecords().FindByProduct(ctx, productID)
		if err != nil {
			return err
		}
		responses = make([]StockRecordResponse, 0, len(records))
		for i := range records {
			responses = append(responses, ToStockRecordResponse(&records[i]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// ListLots retrieves lots for a product, optionally scoped to a warehouse
func (s *InventoryService) ListLots(ctx context.Context, productID uuid.UUID, warehouseID *uuid.UUID, filter shared.Filter) ([]LotResponse, error) {
	var responses []LotResponse

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		lots, err := repos.Lots().FindByProduct(ctx, productID, warehouseID, filter)
		if err != nil {
			return err
		}
		responses = ToLotResponses(lots)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// processEntryInTx applies an entry inside the surrounding transaction.
// lotNumber overrides the request's lot number when non-empty.
func (s *InventoryService) processEntryInTx(
	ctx context.Context,
	repos TransactionalRepositories,
	movementType inventory.MovementType,
	req EntryRequest,
	lotNumber string,
	events *[]shared.DomainEvent,
) (*EntryResult, error) {
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidQuantity
	}
	if req.UnitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}

	product, err := repos.Products().FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if _, err := repos.Warehouses().FindByID(ctx, req.WarehouseID); err != nil {
		return nil, err
	}

	if _, err := repos.StockRecords().GetOrCreate(ctx, req.ProductID, req.WarehouseID); err != nil {
		return nil, err
	}
	record, err := repos.StockRecords().FindForUpdate(ctx, req.ProductID, req.WarehouseID)
	if err != nil {
		return nil, err
	}

	balanceBefore := record.Quantity
	if err := record.ApplyEntry(req.Quantity, req.UnitCost); err != nil {
		return nil, err
	}

	lot, err := inventory.NewLot(req.ProductID, req.WarehouseID, lotNumber, req.Quantity, req.UnitCost, req.ExpiryDate)
	if err != nil {
		return nil, err
	}
	lot.WithSource(req.SupplierRef, req.Reference)
	if err := repos.Lots().Save(ctx, lot); err != nil {
		return nil, err
	}

	// Transfers do not count as purchases in the product running totals
	if movementType != inventory.MovementTypeTransferIn {
		if err := product.RecordPurchase(req.Quantity, req.UnitCost); err != nil {
			return nil, err
		}
		if err := repos.Products().SaveWithLock(ctx, product); err != nil {
			return nil, err
		}
	}

	movement, err := inventory.NewMovement(movementType, req.ProductID, req.WarehouseID, req.Quantity, req.UnitCost)
	if err != nil {
		return nil, err
	}
	movement.WithReference(req.Reference).WithReason(req.Reason)
	movement.AddDetail(&lot.ID, lot.LotNumber, req.Quantity, req.UnitCost)
	if err := movement.Authorize(); err != nil {
		return nil, err
	}
	if err := movement.Execute(balanceBefore, record.Quantity); err != nil {
		return nil, err
	}
	if err := repos.Movements().Save(ctx, movement); err != nil {
		return nil, err
	}

	if err := repos.StockRecords().SaveWithLock(ctx, record); err != nil {
		return nil, err
	}

	drainEvents(events, record)
	drainEvents(events, movement)

	return &EntryResult{
		MovementID:     movement.ID,
		MovementNumber: movement.Number,
		LotID:          lot.ID,
		LotNumber:      lot.LotNumber,
		NewQuantity:    record.Quantity,
		NewAvgCost:     record.AvgCost,
	}, nil
}

// processExitInTx applies a FIFO exit inside the surrounding transaction.
// destWarehouseID is set for the outgoing leg of transfers.
func (s *InventoryService) processExitInTx(
	ctx context.Context,
	repos TransactionalRepositories,
	movementType inventory.MovementType,
	req ExitRequest,
	destWarehouseID *uuid.UUID,
	events *[]shared.DomainEvent,
) (*ExitResult, error) {
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidQuantity
	}

	product, err := repos.Products().FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if _, err := repos.Warehouses().FindByID(ctx, req.WarehouseID); err != nil {
		return nil, err
	}

	// Products without stock tracking record the movement but touch no stock
	if !product.TrackStock {
		return s.untrackedExitInTx(ctx, repos, movementType, req, destWarehouseID, product, events)
	}

	record, err := repos.StockRecords().FindForUpdate(ctx, req.ProductID, req.WarehouseID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainErrorf("INSUFFICIENT_STOCK",
				"No stock for product %s at warehouse %s", req.ProductID, req.WarehouseID)
		}
		return nil, err
	}

	if !req.ForceIfShort && record.Available().LessThan(req.Quantity) {
		return nil, shared.NewDomainErrorf("INSUFFICIENT_STOCK",
			"Insufficient stock: available %s, requested %s",
			record.Available().String(), req.Quantity.String())
	}

	lots, err := repos.Lots().FindConsumable(ctx, req.ProductID, req.WarehouseID)
	if err != nil {
		return nil, err
	}

	plan, err := inventory.PlanFIFOExit(req.Quantity, lots)
	if err != nil {
		return nil, err
	}
	if !plan.FullyFulfilled && !req.ForceIfShort {
		return nil, shared.NewDomainErrorf("INSUFFICIENT_STOCK",
			"Lots cover %s of requested %s",
			plan.TotalConsumed.String(), req.Quantity.String())
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
		return nil, err
	}
	if len(consumed) > 0 {
		if err := repos.Lots().SaveAll(ctx, consumed); err != nil {
			return nil, err
		}
	}

	// Stock decreases by what the lots actually covered
	balanceBefore := record.Quantity
	if plan.TotalConsumed.GreaterThan(decimal.Zero) {
		if err := record.ApplyExit(plan.TotalConsumed, true); err != nil {
			return nil, err
		}
	}

	// Transfers do not count as sales in the product running totals
	if movementType != inventory.MovementTypeTransferOut && plan.TotalConsumed.GreaterThan(decimal.Zero) {
		if err := product.RecordSale(plan.TotalConsumed); err != nil {
			return nil, err
		}
		if err := repos.Products().SaveWithLock(ctx, product); err != nil {
			return nil, err
		}
	}

	movement, err := inventory.NewMovement(movementType, req.ProductID, req.WarehouseID, req.Quantity, plan.WeightedAverageCost)
	if err != nil {
		return nil, err
	}
	movement.WithReference(req.Reference).WithReason(req.Reason)
	if destWarehouseID != nil {
		movement.WithDestWarehouse(*destWarehouseID)
	}
	movement.AddDetailsFromPlan(plan)
	if err := movement.Authorize(); err != nil {
		return nil, err
	}
	if err := movement.Execute(balanceBefore, record.Quantity); err != nil {
		return nil, err
	}
	if err := repos.Movements().Save(ctx, movement); err != nil {
		return nil, err
	}

	if record.IsBelowReorder(product.ReorderThreshold()) {
		record.AddDomainEvent(inventory.NewStockBelowReorderEvent(record, product.Code, product.ReorderThreshold()))
	}
	if err := repos.StockRecords().SaveWithLock(ctx, record); err != nil {
		return nil, err
	}

	drainEvents(events, record)
	drainEvents(events, movement)

	return &ExitResult{
		MovementID:          movement.ID,
		MovementNumber:      movement.Number,
		QuantityFulfilled:   plan.TotalConsumed,
		QuantityShort:       plan.Shortfall,
		CostBreakdown:       plan.Consumptions,
		TotalCost:           plan.TotalCost,
		WeightedAverageCost: plan.WeightedAverageCost,
		NewQuantity:         record.Quantity,
	}, nil
}

// untrackedExitInTx records an exit movement for a product that does not
// track stock. The quantity is always fulfilled at the last purchase price.
func (s *InventoryService) untrackedExitInTx(
	ctx context.Context,
	repos TransactionalRepositories,
	movementType inventory.MovementType,
	req ExitRequest,
	destWarehouseID *uuid.UUID,
	product *inventory.Product,
	events *[]shared.DomainEvent,
) (*ExitResult, error) {
	movement, err := inventory.NewMovement(movementType, req.ProductID, req.WarehouseID, req.Quantity, product.PurchasePrice)
	if err != nil {
		return nil, err
	}
	movement.WithReference(req.Reference).WithReason(req.Reason)
	if destWarehouseID != nil {
		movement.WithDestWarehouse(*destWarehouseID)
	}
	if err := movement.Authorize(); err != nil {
		return nil, err
	}
	if err := movement.Execute(decimal.Zero, decimal.Zero); err != nil {
		return nil, err
	}
	if err := repos.Movements().Save(ctx, movement); err != nil {
		return nil, err
	}

	if movementType != inventory.MovementTypeTransferOut {
		if err := product.RecordSale(req.Quantity); err != nil {
			return nil, err
		}
		if err := repos.Products().SaveWithLock(ctx, product); err != nil {
			return nil, err
		}
	}

	drainEvents(events, movement)

	return &ExitResult{
		MovementID:          movement.ID,
		MovementNumber:      movement.Number,
		QuantityFulfilled:   req.Quantity,
		QuantityShort:       decimal.Zero,
		CostBreakdown:       []inventory.LotConsumption{},
		TotalCost:           req.Quantity.Mul(product.PurchasePrice),
		WeightedAverageCost: product.PurchasePrice,
		NewQuantity:         decimal.Zero,
	}, nil
}

// adjustInTx sets stock to the counted quantity inside the surrounding transaction
func (s *InventoryService) adjustInTx(
	ctx context.Context,
	repos TransactionalRepositories,
	req AdjustRequest,
	events *[]shared.DomainEvent,
) (*AdjustResult, error) {
	product, err := repos.Products().FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if _, err := repos.Warehouses().FindByID(ctx, req.WarehouseID); err != nil {
		return nil, err
	}

	if _, err := repos.StockRecords().GetOrCreate(ctx, req.ProductID, req.WarehouseID); err != nil {
		return nil, err
	}
	record, err := repos.StockRecords().FindForUpdate(ctx, req.ProductID, req.WarehouseID)
	if err != nil {
		return nil, err
	}

	balanceBefore := record.Quantity
	difference, err := record.AdjustTo(req.NewQuantity, req.Reason)
	if err != nil {
		return nil, err
	}

	result := &AdjustResult{
		PreviousQuantity: balanceBefore,
		NewQuantity:      record.Quantity,
		Delta:            difference,
	}

	if !difference.IsZero() {
		movementType := inventory.MovementTypeAdjustmentIn
		if difference.IsNegative() {
			movementType = inventory.MovementTypeAdjustmentOut
		}

		// Compensating movement valued at the running average cost
		movement, err := inventory.NewMovement(movementType, req.ProductID, req.WarehouseID, difference.Abs(), record.AvgCost)
		if err != nil {
			return nil, err
		}
		movement.WithReason(req.Reason)
		if err := movement.Authorize(); err != nil {
			return nil, err
		}
		if err := movement.Execute(balanceBefore, record.Quantity); err != nil {
			return nil, err
		}
		if err := repos.Movements().Save(ctx, movement); err != nil {
			return nil, err
		}
		result.MovementID = movement.ID
		result.MovementNumber = movement.Number

		drainEvents(events, movement)
	}

	if record.IsBelowReorder(product.ReorderThreshold()) {
		record.AddDomainEvent(inventory.NewStockBelowReorderEvent(record, product.Code, product.ReorderThreshold()))
	}
	if err := repos.StockRecords().SaveWithLock(ctx, record); err != nil {
		return nil, err
	}

	drainEvents(events, record)
	return result, nil
}

// transferInTx moves stock between warehouses inside the surrounding transaction.
// Both stock records are locked in ascending warehouse ID order to keep
// concurrent opposite transfers from deadlocking.
func (s *InventoryService) transferInTx(
	ctx context.Context,
	repos TransactionalRepositories,
	req TransferRequest,
	events *[]shared.DomainEvent,
) (*TransferResult, error) {
	if req.OriginWarehouseID == req.DestWarehouseID {
		return nil, shared.NewDomainError("INVALID_TRANSFER", "Origin and destination warehouses must differ")
	}
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidQuantity
	}

	product, err := repos.Products().FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if _, err := repos.Warehouses().FindByID(ctx, req.OriginWarehouseID); err != nil {
		return nil, err
	}
	if _, err := repos.Warehouses().FindByID(ctx, req.DestWarehouseID); err != nil {
		return nil, err
	}

	if _, err := repos.StockRecords().GetOrCreate(ctx, req.ProductID, req.OriginWarehouseID); err != nil {
		return nil, err
	}
	if _, err := repos.StockRecords().GetOrCreate(ctx, req.ProductID, req.DestWarehouseID); err != nil {
		return nil, err
	}

	first, second := req.OriginWarehouseID, req.DestWarehouseID
	if second.String() < first.String() {
		first, second = second, first
	}
	if _, err := repos.StockRecords().FindForUpdate(ctx, req.ProductID, first); err != nil {
		return nil, err
	}
	if _, err := repos.StockRecords().FindForUpdate(ctx, req.ProductID, second); err != nil {
		return nil, err
	}

	destID := req.DestWarehouseID
	exitResult, err := s.processExitInTx(ctx, repos, inventory.MovementTypeTransferOut, ExitRequest{
		ProductID:   req.ProductID,
		WarehouseID: req.OriginWarehouseID,
		Quantity:    req.Quantity,
		Reference:   req.Reference,
	}, &destID, events)
	if err != nil {
		return nil, err
	}

	// Cost carried to the destination: the exit's weighted average when lots
	// were consumed, the last purchase price otherwise
	carriedCost := exitResult.WeightedAverageCost
	if len(exitResult.CostBreakdown) == 0 || carriedCost.LessThanOrEqual(decimal.Zero) {
		carriedCost = product.PurchasePrice
	}

	entryResult, err := s.processEntryInTx(ctx, repos, inventory.MovementTypeTransferIn, EntryRequest{
		ProductID:   req.ProductID,
		WarehouseID: req.DestWarehouseID,
		Quantity:    req.Quantity,
		UnitCost:    carriedCost,
		Reference:   req.Reference,
	}, inventory.GenerateLotNumber(inventory.TransferNumberPrefix, time.Now()), events)
	if err != nil {
		return nil, err
	}

	return &TransferResult{
		Exit:            exitResult,
		Entry:           entryResult,
		CarriedUnitCost: carriedCost,
	}, nil
}
