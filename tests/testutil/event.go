package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/erp/inventory/internal/domain/shared"
)

// RecordingEventHandler implements shared.EventHandler and records every
// event it receives. Safe for use from concurrent dispatchers.
type RecordingEventHandler struct {
	mu         sync.Mutex
	eventTypes []string
	received   []shared.DomainEvent
	failWith   error
}

// NewRecordingEventHandler subscribes to the given event types, or to all
// events when none are named.
func NewRecordingEventHandler(eventTypes ...string) *RecordingEventHandler {
	return &RecordingEventHandler{eventTypes: eventTypes}
}

func (h *RecordingEventHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *RecordingEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.received = append(h.received, event)
	return h.failWith
}

// Received returns a copy of the recorded events.
func (h *RecordingEventHandler) Received() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]shared.DomainEvent, len(h.received))
	copy(out, h.received)
	return out
}

// ReceivedCount returns how many events have been recorded.
func (h *RecordingEventHandler) ReceivedCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.received)
}

// FailWith makes every subsequent Handle call return err.
func (h *RecordingEventHandler) FailWith(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failWith = err
}

// Reset drops recorded events and clears any configured error.
func (h *RecordingEventHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.received = nil
	h.failWith = nil
}

// StubEvent is a minimal domain event for bus and handler tests.
type StubEvent struct {
	shared.BaseDomainEvent
	Payload string
}

// NewStubEvent creates a stub event against a fresh aggregate id.
func NewStubEvent(eventType string, aggregateID uuid.UUID) *StubEvent {
	return &StubEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "StubAggregate", aggregateID),
		Payload:         "stub-payload",
	}
}

// NewStubEventWithID creates a stub event with a fixed event id, for
// idempotency tests that replay the same event.
func NewStubEventWithID(eventID uuid.UUID, eventType string, aggregateID uuid.UUID) *StubEvent {
	ev := NewStubEvent(eventType, aggregateID)
	ev.ID = eventID
	return ev
}

// WaitForEventCount polls until handler has recorded at least count events.
func WaitForEventCount(t *testing.T, handler *RecordingEventHandler, count int, timeout time.Duration) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if handler.ReceivedCount() >= count {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
