package event

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/erp/inventory/internal/domain/shared"
)

// defaultDedupTTL bounds how long a processed event ID is remembered.
const defaultDedupTTL = 24 * time.Hour

// DedupStats is a point-in-time view of an IdempotentHandler's
// counters.
type DedupStats struct {
	Processed  int64 `json:"processed"`
	Duplicates int64 `json:"duplicates"`
	Failed     int64 `json:"failed"`
}

// IdempotentHandler wraps an EventHandler so each event ID is handled
// at most once within the TTL window, whatever the delivery count.
type IdempotentHandler struct {
	inner shared.EventHandler
	store shared.IdempotencyStore
	ttl   time.Duration
	log   *zap.Logger

	processed  atomic.Int64
	duplicates atomic.Int64
	failed     atomic.Int64
}

// IdempotentHandlerOption adjusts handler construction.
type IdempotentHandlerOption func(*IdempotentHandler)

// WithDedupTTL sets how long processed event IDs are remembered.
func WithDedupTTL(ttl time.Duration) IdempotentHandlerOption {
	return func(h *IdempotentHandler) {
		h.ttl = ttl
	}
}

func NewIdempotentHandler(
	inner shared.EventHandler,
	store shared.IdempotencyStore,
	log *zap.Logger,
	opts ...IdempotentHandlerOption,
) *IdempotentHandler {
	h := &IdempotentHandler{
		inner: inner,
		store: store,
		ttl:   defaultDedupTTL,
		log:   log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes mirrors the wrapped handler's subscriptions.
func (h *IdempotentHandler) EventTypes() []string {
	return h.inner.EventTypes()
}

// Handle marks the event ID before delegating. A store failure does
// not block delivery, a duplicate is cheaper than a lost event.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	eventID := event.EventID().String()
	fields := []zap.Field{
		zap.String("event_id", eventID),
		zap.String("event_type", event.EventType()),
	}

	fresh, err := h.store.MarkProcessed(ctx, eventID, h.ttl)
	switch {
	case err != nil:
		h.log.Warn("Idempotency check failed, processing anyway", append(fields, zap.Error(err))...)
	case !fresh:
		h.duplicates.Add(1)
		h.log.Debug("Skipping duplicate event", fields...)
		return nil
	}

	if err := h.inner.Handle(ctx, event); err != nil {
		h.failed.Add(1)
		// the mark stays on failure, TTL expiry doubles as the retry cooldown
		return err
	}

	h.processed.Add(1)
	return nil
}

// Stats snapshots the dedup counters.
func (h *IdempotentHandler) Stats() DedupStats {
	return DedupStats{
		Processed:  h.processed.Load(),
		Duplicates: h.duplicates.Load(),
		Failed:     h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
