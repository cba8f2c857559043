package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/erp/inventory/internal/domain/inventory"
	"github.com/erp/inventory/internal/domain/shared"
	"github.com/google/uuid"
)

// memStore backs the in-memory repositories used by the service tests
type memStore struct {
	mu         sync.Mutex
	products   map[uuid.UUID]*inventory.Product
	warehouses map[uuid.UUID]*inventory.Warehouse
	lots       map[uuid.UUID]*inventory.Lot
	stocks     map[uuid.UUID]*inventory.StockRecord
	movements  map[uuid.UUID]*inventory.Movement
}

func newMemStore() *memStore {
	return &memStore{
		products:   make(map[uuid.UUID]*inventory.Product),
		warehouses: make(map[uuid.UUID]*inventory.Warehouse),
		lots:       make(map[uuid.UUID]*inventory.Lot),
		stocks:     make(map[uuid.UUID]*inventory.StockRecord),
		movements:  make(map[uuid.UUID]*inventory.Movement),
	}
}

func (s *memStore) scope() *NoOpTransactionScope {
	return NewNoOpTransactionScope(
		&memProductRepo{store: s},
		&memWarehouseRepo{store: s},
		&memLotRepo{store: s},
		&memStockRepo{store: s},
		&memMovementRepo{store: s},
	)
}

type memProductRepo struct{ store *memStore }

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Product, error) {
	if p, ok := r.store.products[id]; ok {
		return p, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) FindByCode(_ context.Context, code string) (*inventory.Product, error) {
	for _, p := range r.store.products {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) FindAll(_ context.Context, _ shared.Filter) ([]inventory.Product, error) {
	out := make([]inventory.Product, 0, len(r.store.products))
	for _, p := range r.store.products {
		out = append(out, *p)
	}
	return out, nil
}

func (r *memProductRepo) Save(_ context.Context, product *inventory.Product) error {
	r.store.products[product.ID] = product
	return nil
}

func (r *memProductRepo) SaveWithLock(ctx context.Context, product *inventory.Product) error {
	return r.Save(ctx, product)
}

func (r *memProductRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.store.products)), nil
}

type memWarehouseRepo struct{ store *memStore }

func (r *memWarehouseRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Warehouse, error) {
	if w, ok := r.store.warehouses[id]; ok {
		return w, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memWarehouseRepo) FindByCode(_ context.Context, code string) (*inventory.Warehouse, error) {
	for _, w := range r.store.warehouses {
		if w.Code == code {
			return w, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memWarehouseRepo) FindAll(_ context.Context, _ shared.Filter) ([]inventory.Warehouse, error) {
	out := make([]inventory.Warehouse, 0, len(r.store.warehouses))
	for _, w := range r.store.warehouses {
		out = append(out, *w)
	}
	return out, nil
}

func (r *memWarehouseRepo) Save(_ context.Context, warehouse *inventory.Warehouse) error {
	r.store.warehouses[warehouse.ID] = warehouse
	return nil
}

func (r *memWarehouseRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.store.warehouses)), nil
}

type memLotRepo struct{ store *memStore }

func (r *memLotRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Lot, error) {
	if l, ok := r.store.lots[id]; ok {
		return l, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memLotRepo) FindByLotNumber(_ context.Context, productID, warehouseID uuid.UUID, lotNumber string) (*inventory.Lot, error) {
	for _, l := range r.store.lots {
		if l.ProductID == productID && l.WarehouseID == warehouseID && l.LotNumber == lotNumber {
			return l, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memLotRepo) FindConsumable(_ context.Context, productID, warehouseID uuid.UUID) ([]inventory.Lot, error) {
	out := make([]inventory.Lot, 0)
	for _, l := range r.store.lots {
		if l.ProductID == productID && l.WarehouseID == warehouseID && l.IsConsumable() {
			out = append(out, *l)
		}
	}
	inventory.SortLotsFIFO(out)
	return out, nil
}

func (r *memLotRepo) FindByProduct(_ context.Context, productID uuid.UUID, warehouseID *uuid.UUID, _ shared.Filter) ([]inventory.Lot, error) {
	out := make([]inventory.Lot, 0)
	for _, l := range r.store.lots {
		if l.ProductID != productID {
			continue
		}
		if warehouseID != nil && l.WarehouseID != *warehouseID {
			continue
		}
		out = append(out, *l)
	}
	inventory.SortLotsFIFO(out)
	return out, nil
}

func (r *memLotRepo) FindExpiringWithin(_ context.Context, days int, warehouseID *uuid.UUID) ([]inventory.Lot, error) {
	limit := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	out := make([]inventory.Lot, 0)
	for _, l := range r.store.lots {
		if warehouseID != nil && l.WarehouseID != *warehouseID {
			continue
		}
		if l.ExpiryDate != nil && l.HasStock() && l.Active && l.ExpiryDate.Before(limit) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *memLotRepo) FindExpired(_ context.Context, warehouseID *uuid.UUID) ([]inventory.Lot, error) {
	out := make([]inventory.Lot, 0)
	for _, l := range r.store.lots {
		if warehouseID != nil && l.WarehouseID != *warehouseID {
			continue
		}
		if l.IsExpired() && l.HasStock() && l.Active {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *memLotRepo) Save(_ context.Context, lot *inventory.Lot) error {
	r.store.lots[lot.ID] = lot
	return nil
}

func (r *memLotRepo) SaveAll(_ context.Context, lots []*inventory.Lot) error {
	for _, lot := range lots {
		r.store.lots[lot.ID] = lot
	}
	return nil
}

type memStockRepo struct{ store *memStore }

func (r *memStockRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockRecord, error) {
	if s, ok := r.store.stocks[id]; ok {
		return s, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memStockRepo) FindByProductAndWarehouse(_ context.Context, productID, warehouseID uuid.UUID) (*inventory.StockRecord, error) {
	for _, s := range r.store.stocks {
		if s.ProductID == productID && s.WarehouseID == warehouseID {
			return s, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memStockRepo) FindForUpdate(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.StockRecord, error) {
	return r.FindByProductAndWarehouse(ctx, productID, warehouseID)
}

func (r *memStockRepo) GetOrCreate(ctx context.Context, productID, warehouseID uuid.UUID) (*inventory.StockRecord, error) {
	if existing, err := r.FindByProductAndWarehouse(ctx, productID, warehouseID); err == nil {
		return existing, nil
	}
	record, err := inventory.NewStockRecord(productID, warehouseID)
	if err != nil {
		return nil, err
	}
	r.store.stocks[record.ID] = record
	return record, nil
}

func (r *memStockRepo) FindByWarehouse(_ context.Context, warehouseID uuid.UUID, _ shared.Filter) ([]inventory.StockRecord, error) {
	out := make([]inventory.StockRecord, 0)
	for _, s := range r.store.stocks {
		if s.WarehouseID == warehouseID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memStockRepo) FindByProduct(_ context.Context, productID uuid.UUID) ([]inventory.StockRecord, error) {
	out := make([]inventory.StockRecord, 0)
	for _, s := range r.store.stocks {
		if s.ProductID == productID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memStockRepo) Save(_ context.Context, record *inventory.StockRecord) error {
	r.store.stocks[record.ID] = record
	return nil
}

func (r *memStockRepo) SaveWithLock(ctx context.Context, record *inventory.StockRecord) error {
	return r.Save(ctx, record)
}

func (r *memStockRepo) Valuation(_ context.Context, warehouseID *uuid.UUID) ([]inventory.ValuationRow, error) {
	out := make([]inventory.ValuationRow, 0)
	for _, s := range r.store.stocks {
		if warehouseID != nil && s.WarehouseID != *warehouseID {
			continue
		}
		if !s.Quantity.IsPositive() {
			continue
		}
		row := inventory.ValuationRow{
			ProductID:   s.ProductID,
			WarehouseID: s.WarehouseID,
			Quantity:    s.Quantity,
			AvgCost:     s.AvgCost,
			TotalValue:  s.TotalValue(),
		}
		if p, ok := r.store.products[s.ProductID]; ok {
			row.ProductCode = p.Code
			row.ProductName = p.Name
		}
		if w, ok := r.store.warehouses[s.WarehouseID]; ok {
			row.Warehouse = w.Name
		}
		out = append(out, row)
	}
	return out, nil
}

type memMovementRepo struct{ store *memStore }

func (r *memMovementRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Movement, error) {
	if m, ok := r.store.movements[id]; ok {
		return m, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memMovementRepo) FindByNumber(_ context.Context, number string) (*inventory.Movement, error) {
	for _, m := range r.store.movements {
		if m.Number == number {
			return m, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memMovementRepo) FindAll(_ context.Context, _ shared.Filter) ([]inventory.Movement, error) {
	out := make([]inventory.Movement, 0, len(r.store.movements))
	for _, m := range r.store.movements {
		out = append(out, *m)
	}
	return out, nil
}

func (r *memMovementRepo) FindByProduct(_ context.Context, productID uuid.UUID, _ shared.Filter) ([]inventory.Movement, error) {
	out := make([]inventory.Movement, 0)
	for _, m := range r.store.movements {
		if m.ProductID == productID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *memMovementRepo) FindByStatus(_ context.Context, status inventory.MovementStatus, _ shared.Filter) ([]inventory.Movement, error) {
	out := make([]inventory.Movement, 0)
	for _, m := range r.store.movements {
		if m.Status == status {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *memMovementRepo) Save(_ context.Context, movement *inventory.Movement) error {
	r.store.movements[movement.ID] = movement
	return nil
}

func (r *memMovementRepo) SaveWithLock(ctx context.Context, movement *inventory.Movement) error {
	return r.Save(ctx, movement)
}

func (r *memMovementRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.store.movements)), nil
}

// movementsByType filters the stored movements for assertions
func (s *memStore) movementsByType(movementType inventory.MovementType) []*inventory.Movement {
	out := make([]*inventory.Movement, 0)
	for _, m := range s.movements {
		if m.Type == movementType {
			out = append(out, m)
		}
	}
	return out
}

// capturePublisher collects published events for assertions
type capturePublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturePublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

// memIdempotencyStore is a map-backed idempotency store
type memIdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{keys: make(map[string]struct{})}
}

func (s *memIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	s.keys[key] = struct{}{}
	return true, nil
}

func (s *memIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok, nil
}

func (s *memIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

func (s *memIdempotencyStore) Close() error {
	return nil
}
