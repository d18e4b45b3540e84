package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingPublisher(t *testing.T) {
	p := NewRecordingPublisher()
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, NewTestEvent("a"), NewTestEvent("b"), NewTestEvent("a")))
	assert.Len(t, p.Events(), 3)
	assert.Len(t, p.OfType("a"), 2)

	p.SetError(assert.AnError)
	assert.ErrorIs(t, p.Publish(ctx, NewTestEvent("c")), assert.AnError)
	assert.Len(t, p.Events(), 3)

	p.Reset()
	assert.Empty(t, p.Events())
	require.NoError(t, p.Publish(ctx, NewTestEvent("c")))
}

func TestMockEventHandler(t *testing.T) {
	handler := NewMockEventHandler("stock.moved")
	assert.Equal(t, []string{"stock.moved"}, handler.EventTypes())

	event := NewTestEvent("stock.moved")
	require.NoError(t, handler.Handle(context.Background(), event))
	assert.Equal(t, 1, handler.HandledCount())
	assert.Equal(t, event, handler.Handled()[0])

	handler.SetError(assert.AnError)
	assert.Equal(t, assert.AnError, handler.Handle(context.Background(), event))
}

func TestWaitForEventCount(t *testing.T) {
	handler := NewMockEventHandler()
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = handler.Handle(context.Background(), NewTestEvent("x"))
	}()

	assert.True(t, WaitForEventCount(t, handler, 1, time.Second))
	assert.False(t, WaitForEventCount(t, handler, 2, 30*time.Millisecond))
}
