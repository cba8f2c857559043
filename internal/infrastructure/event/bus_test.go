package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/inventory/internal/domain/shared"
	"github.com/erp/inventory/tests/testutil"
)

func newBus() *InMemoryEventBus {
	return NewInMemoryEventBus(zap.NewNop())
}

func TestPublish_DeliversToSubscriber(t *testing.T) {
	bus := newBus()
	handler := testutil.NewRecordingEventHandler("inventory.stock.entered")
	bus.Subscribe(handler)

	ev := testutil.NewStubEvent("inventory.stock.entered", uuid.New())
	require.NoError(t, bus.Publish(context.Background(), ev))

	received := handler.Received()
	require.Len(t, received, 1)
	assert.Equal(t, ev.EventID(), received[0].EventID())
}

func TestPublish_MultipleEvents(t *testing.T) {
	bus := newBus()
	handler := testutil.NewRecordingEventHandler("inventory.stock.entered", "inventory.stock.exited")
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(),
		testutil.NewStubEvent("inventory.stock.entered", uuid.New()),
		testutil.NewStubEvent("inventory.stock.exited", uuid.New()),
	))

	assert.Equal(t, 2, handler.ReceivedCount())
}

func TestPublish_MultipleHandlers(t *testing.T) {
	bus := newBus()
	first := testutil.NewRecordingEventHandler("inventory.movement.executed")
	second := testutil.NewRecordingEventHandler("inventory.movement.executed")
	bus.Subscribe(first)
	bus.Subscribe(second)

	require.NoError(t, bus.Publish(context.Background(),
		testutil.NewStubEvent("inventory.movement.executed", uuid.New())))

	assert.Equal(t, 1, first.ReceivedCount())
	assert.Equal(t, 1, second.ReceivedCount())
}

func TestPublish_OnlyMatchingType(t *testing.T) {
	bus := newBus()
	entries := testutil.NewRecordingEventHandler("inventory.stock.entered")
	exits := testutil.NewRecordingEventHandler("inventory.stock.exited")
	bus.Subscribe(entries)
	bus.Subscribe(exits)

	require.NoError(t, bus.Publish(context.Background(),
		testutil.NewStubEvent("inventory.stock.entered", uuid.New())))

	assert.Equal(t, 1, entries.ReceivedCount())
	assert.Equal(t, 0, exits.ReceivedCount())
}

func TestPublish_CatchAllHandler(t *testing.T) {
	bus := newBus()
	audit := testutil.NewRecordingEventHandler()
	bus.Subscribe(audit)

	require.NoError(t, bus.Publish(context.Background(),
		testutil.NewStubEvent("inventory.stock.entered", uuid.New()),
		testutil.NewStubEvent("inventory.stock.below_reorder", uuid.New()),
	))

	assert.Equal(t, 2, audit.ReceivedCount())
}

func TestPublish_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := newBus()
	failing := testutil.NewRecordingEventHandler("inventory.stock.entered")
	failing.FailWith(errors.New("projection update failed"))
	healthy := testutil.NewRecordingEventHandler("inventory.stock.entered")
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	require.NoError(t, bus.Publish(context.Background(),
		testutil.NewStubEvent("inventory.stock.entered", uuid.New())))

	assert.Equal(t, 1, healthy.ReceivedCount())
}

type panickingHandler struct{}

func (panickingHandler) EventTypes() []string { return []string{"inventory.stock.entered"} }
func (panickingHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	panic("handler exploded")
}

func TestPublish_HandlerPanicIsRecovered(t *testing.T) {
	bus := newBus()
	healthy := testutil.NewRecordingEventHandler("inventory.stock.entered")
	bus.Subscribe(panickingHandler{})
	bus.Subscribe(healthy)

	require.NotPanics(t, func() {
		_ = bus.Publish(context.Background(),
			testutil.NewStubEvent("inventory.stock.entered", uuid.New()))
	})
	assert.Equal(t, 1, healthy.ReceivedCount())
}

func TestSubscribe_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := newBus()
	handler := testutil.NewRecordingEventHandler("inventory.stock.entered")
	bus.Subscribe(handler, "inventory.stock.exited")

	_ = bus.Publish(context.Background(),
		testutil.NewStubEvent("inventory.stock.entered", uuid.New()))
	assert.Equal(t, 0, handler.ReceivedCount())

	_ = bus.Publish(context.Background(),
		testutil.NewStubEvent("inventory.stock.exited", uuid.New()))
	assert.Equal(t, 1, handler.ReceivedCount())
}

func TestUnsubscribe(t *testing.T) {
	bus := newBus()
	handler := testutil.NewRecordingEventHandler("inventory.stock.entered")
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	_ = bus.Publish(context.Background(),
		testutil.NewStubEvent("inventory.stock.entered", uuid.New()))

	assert.Equal(t, 0, handler.ReceivedCount())
}

func TestUnsubscribe_CatchAll(t *testing.T) {
	bus := newBus()
	audit := testutil.NewRecordingEventHandler()
	bus.Subscribe(audit)
	bus.Unsubscribe(audit)

	_ = bus.Publish(context.Background(),
		testutil.NewStubEvent("inventory.stock.adjusted", uuid.New()))

	assert.Equal(t, 0, audit.ReceivedCount())
}

func TestStartStop(t *testing.T) {
	bus := newBus()
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))
	assert.True(t, bus.running.Load())

	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.running.Load())
}
