package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestInMemoryBus_EmitStampsEvent(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop(), 10)
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	bus.now = func() time.Time { return at }

	var got Event
	bus.Subscribe("relay.user_message", func(ctx context.Context, ev Event) {
		got = ev
	})
	bus.Emit(context.Background(), "relay.user_message", "payload_data")
	bus.Close()

	if got.Type != "relay.user_message" || got.Payload != "payload_data" || !got.At.Equal(at) {
		t.Errorf("unexpected event: %+v", got)
	}
}

func TestInMemoryBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop(), 100)

	var received atomic.Int32
	bus.Subscribe("relay.staff_reply", func(ctx context.Context, ev Event) {
		received.Add(1)
	})

	bus.Emit(context.Background(), "relay.staff_reply", nil)
	bus.Emit(context.Background(), "relay.staff_reply", nil)
	bus.Emit(context.Background(), "broadcast.sent", nil)

	// Close drains the queue
	bus.Close()

	if got := received.Load(); got != 2 {
		t.Errorf("expected 2 events received, got %d", got)
	}
}

func TestInMemoryBus_OrderAndWildcard(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop(), 100)

	var seen []string
	bus.Subscribe("a", func(ctx context.Context, ev Event) { seen = append(seen, "a:"+ev.Type) })
	bus.Subscribe(Wildcard, func(ctx context.Context, ev Event) { seen = append(seen, "*:"+ev.Type) })

	bus.Publish(context.Background(), Event{Type: "a"})
	bus.Publish(context.Background(), Event{Type: "b"})
	bus.Close()

	want := []string{"a:a", "*:a", "*:b"}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen = %v, want %v", seen, want)
		}
	}
}

func TestInMemoryBus_ClosePreventsPublish(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop(), 10)
	bus.Close()

	// Must not panic after close
	bus.Emit(context.Background(), "late", nil)
	bus.Close()
}

func TestInMemoryBus_HandlerPanicRecovery(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop(), 10)

	var after atomic.Bool
	bus.Subscribe("boom", func(ctx context.Context, ev Event) {
		panic("handler exploded")
	})
	bus.Subscribe("boom", func(ctx context.Context, ev Event) {
		after.Store(true)
	})

	bus.Emit(context.Background(), "boom", nil)
	bus.Close()

	if !after.Load() {
		t.Error("sibling handler should still run after a panic")
	}
}

func TestInMemoryBus_DropsWhenFull(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop(), 1)

	block := make(chan struct{})
	var handled atomic.Int32
	bus.Subscribe("slow", func(ctx context.Context, ev Event) {
		<-block
		handled.Add(1)
	})

	for i := 0; i < 10; i++ {
		bus.Emit(context.Background(), "slow", i)
	}
	time.Sleep(20 * time.Millisecond)
	close(block)
	bus.Close()

	if got := handled.Load(); got >= 10 {
		t.Errorf("expected some events to be dropped, handled %d", got)
	}
	if uint64(handled.Load())+bus.Dropped() != 10 {
		t.Errorf("handled %d + dropped %d != 10", handled.Load(), bus.Dropped())
	}
}

func TestInMemoryBus_ConcurrentEmit(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop(), 1000)

	var received atomic.Int32
	bus.Subscribe("concurrent", func(ctx context.Context, ev Event) {
		received.Add(1)
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Emit(context.Background(), "concurrent", nil)
		}()
	}
	wg.Wait()
	bus.Close()

	if got := received.Load(); got != 50 {
		t.Errorf("expected 50 events, got %d", got)
	}
}

func TestInMemoryBus_ContextCancellationDoesNotLeak(t *testing.T) {
	bus := NewInMemoryBus(zap.NewNop(), 10)

	var ctxErr atomic.Value
	bus.Subscribe("ctx", func(ctx context.Context, ev Event) {
		if err := ctx.Err(); err != nil {
			ctxErr.Store(err)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	bus.Emit(ctx, "ctx", nil)
	cancel()
	bus.Close()

	if v := ctxErr.Load(); v != nil {
		t.Errorf("handler saw cancelled context: %v", v)
	}
}
