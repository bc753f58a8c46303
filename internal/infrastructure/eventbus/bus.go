package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/relaydesk/relaybot/pkg/safego"
)

// Wildcard subscribes a handler to every event type.
const Wildcard = "*"

// Event is one domain occurrence, e.g. a relayed message or a ban.
type Event struct {
	Type    string
	At      time.Time
	Payload any
}

// Handler 事件处理函数
type Handler func(ctx context.Context, event Event)

// Bus 事件总线接口
type Bus interface {
	Publish(ctx context.Context, event Event)
	Emit(ctx context.Context, eventType string, payload any)
	Subscribe(eventType string, handler Handler)
	Close()
}

type queued struct {
	ctx   context.Context
	event Event
}

// InMemoryBus 内存事件总线
//
// Events are handled on a single goroutine in publish order, and the
// handlers of one event run in subscription order. Publishing never
// blocks the relay: with a full queue the event is counted in Dropped
// and discarded.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	queue    chan queued
	closed   bool
	dropped  atomic.Uint64
	now      func() time.Time
	logger   *zap.Logger
	done     chan struct{}
}

// NewInMemoryBus starts the dispatch goroutine. Close stops it.
func NewInMemoryBus(logger *zap.Logger, bufferSize int) *InMemoryBus {
	b := &InMemoryBus{
		handlers: make(map[string][]Handler),
		queue:    make(chan queued, bufferSize),
		now:      time.Now,
		logger:   logger.With(zap.String("component", "eventbus")),
		done:     make(chan struct{}),
	}
	go b.run()
	return b
}

// Emit stamps payload with the current time and publishes it.
func (b *InMemoryBus) Emit(ctx context.Context, eventType string, payload any) {
	b.Publish(ctx, Event{Type: eventType, At: b.now(), Payload: payload})
}

// Publish queues event. The handler context keeps ctx's values but not its
// cancellation, since the caller has usually returned by then.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	select {
	case b.queue <- queued{ctx: context.WithoutCancel(ctx), event: event}:
	default:
		b.dropped.Add(1)
		b.logger.Warn("Event queue full, dropping event", zap.String("type", event.Type))
	}
}

// Subscribe registers handler for eventType, or for everything with
// Wildcard.
func (b *InMemoryBus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()
}

// Dropped reports how many events were discarded because the queue was full.
func (b *InMemoryBus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close stops accepting events and waits for queued ones to be handled.
func (b *InMemoryBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.queue)
	b.mu.Unlock()

	<-b.done
	b.logger.Info("Event bus closed", zap.Uint64("dropped", b.Dropped()))
}

func (b *InMemoryBus) run() {
	defer close(b.done)
	for q := range b.queue {
		for _, h := range b.handlersFor(q.event.Type) {
			safego.Run(b.logger, "event:"+q.event.Type, func() {
				h(q.ctx, q.event)
			})
		}
	}
}

func (b *InMemoryBus) handlersFor(eventType string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Handler, 0, len(b.handlers[eventType])+len(b.handlers[Wildcard]))
	out = append(out, b.handlers[eventType]...)
	return append(out, b.handlers[Wildcard]...)
}
