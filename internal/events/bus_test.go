// File: internal/events/bus_test.go
package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/webpilot-ai/webpilot/api/schemas"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 8)
	defer bus.Shutdown()

	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	bus.Emit(schemas.ActorPlanner, schemas.StateStepStart, "Planning next steps...")

	select {
	case ev := <-ch:
		assert.Equal(t, schemas.ActorPlanner, ev.Actor)
		assert.Equal(t, schemas.StateStepStart, ev.State)
		assert.Equal(t, "Planning next steps...", ev.Message)
		assert.NotEmpty(t, ev.ID)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestBusFansOut(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 8)
	defer bus.Shutdown()

	ch1, unsub1 := bus.Subscribe()
	defer unsub1()
	ch2, unsub2 := bus.Subscribe()
	defer unsub2()

	bus.Emit(schemas.ActorRunner, schemas.StateTaskStart, "task")

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, schemas.StateTaskStart, ev.State)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for fanned-out event")
		}
	}
}

// Emit must never block, even when a subscriber's buffer is full.
func TestBusDropsForSaturatedSubscriber(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 1)
	defer bus.Shutdown()

	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			bus.Emit(schemas.ActorPlanner, schemas.StateStepOK, "msg")
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a saturated subscriber")
	}

	// Exactly the buffered event survives.
	ev := <-ch
	assert.Equal(t, schemas.StateStepOK, ev.State)
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 4)
	defer bus.Shutdown()

	ch, unsubscribe := bus.Subscribe()
	unsubscribe()

	_, open := <-ch
	assert.False(t, open)

	// Emitting after unsubscribe must not panic.
	bus.Emit(schemas.ActorPlanner, schemas.StateStepOK, "late")
}

func TestBusShutdown(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 4)

	ch, _ := bus.Subscribe()
	bus.Shutdown()

	_, open := <-ch
	require.False(t, open)

	// Emit and a second Shutdown after shutdown are no-ops.
	bus.Emit(schemas.ActorRunner, schemas.StateTaskOK, "late")
	bus.Shutdown()
}

// Subscribing after shutdown must not strand the consumer on a channel
// nothing will ever close.
func TestBusSubscribeAfterShutdown(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 4)
	bus.Shutdown()

	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("channel from a shut-down bus must already be closed")
	}
}

func TestBusDefaultBufferSize(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 0)
	defer bus.Shutdown()

	ch, unsubscribe := bus.Subscribe()
	defer unsubscribe()
	assert.Equal(t, 64, cap(ch))
}
