package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "TestAggregate", uuid.New())}
}

type recordingHandler struct {
	types []string
	err   error
	panic bool

	mu      sync.Mutex
	handled []shared.DomainEvent
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, event)
	h.mu.Unlock()
	if h.panic {
		panic("boom")
	}
	return h.err
}

func (h *recordingHandler) seen() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_PublishRoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	stock := &recordingHandler{types: []string{"stock.moved"}}
	order := &recordingHandler{types: []string{"order.status_changed"}}
	all := &recordingHandler{}
	bus.Subscribe(stock)
	bus.Subscribe(order)
	bus.Subscribe(all)

	moved := newTestEvent("stock.moved")
	changed := newTestEvent("order.status_changed")
	require.NoError(t, bus.Publish(context.Background(), moved, changed))

	assert.Equal(t, []shared.DomainEvent{moved}, stock.seen())
	assert.Equal(t, []shared.DomainEvent{changed}, order.seen())
	assert.Equal(t, []shared.DomainEvent{moved, changed}, all.seen())
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandler(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := &recordingHandler{types: []string{"a"}}
	bus.Subscribe(h, "b")

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("a"), newTestEvent("b")))
	require.Len(t, h.seen(), 1)
	assert.Equal(t, "b", h.seen()[0].EventType())
}

func TestInMemoryEventBus_HandlerFailureIsIsolated(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := &recordingHandler{types: []string{"x"}, err: errors.New("handler down")}
	panicking := &recordingHandler{types: []string{"x"}, panic: true}
	healthy := &recordingHandler{types: []string{"x"}}
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("x"), nil, newTestEvent("x"))

	require.NoError(t, err)
	assert.Len(t, failing.seen(), 2)
	assert.Len(t, panicking.seen(), 2)
	assert.Len(t, healthy.seen(), 2)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{types: []string{"x"}}
	bus.Subscribe(h)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("x")))
	assert.Empty(t, h.seen())
}

func TestInMemoryEventBus_StopDropsLaterEvents(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := &recordingHandler{types: []string{"x"}}
	bus.Subscribe(h)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Stop(ctx))

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("x")))
	assert.Empty(t, h.seen())

	require.NoError(t, bus.Start(ctx))
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("x")))
	assert.Len(t, h.seen(), 1)
}

func TestHandlerRegistry(t *testing.T) {
	r := NewHandlerRegistry()
	a := &recordingHandler{}
	b := &recordingHandler{}

	r.Register(a, "one", "two")
	r.Register(a, "one")
	r.Register(b)

	assert.Equal(t, []shared.EventHandler{a, b}, r.GetHandlers("one"))
	assert.Equal(t, []shared.EventHandler{b}, r.GetHandlers("three"))
	assert.Equal(t, 2, r.Len())

	r.Unregister(a)
	assert.Equal(t, []shared.EventHandler{b}, r.GetHandlers("one"))
	assert.Equal(t, 1, r.Len())
}
