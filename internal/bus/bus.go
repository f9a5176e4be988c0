// Package bus is the in-process publish/subscribe router keyed by message kind.
//
// Delivery is synchronous: Publish returns after every subscriber of the
// message kind has run. Within one kind, subscribers run in registration
// order. The bus is volatile and single-process.
package bus

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Handler receives one published message by value.
type Handler func(Message)

// Bus routes messages to per-kind subscriber lists.
type Bus struct {
	mu          sync.Mutex
	subscribers map[Kind][]Handler

	log    zerolog.Logger
	panics atomic.Uint64
}

// New creates an empty bus. Subscriber panics are reported to log.
func New(log zerolog.Logger) *Bus {
	return &Bus{
		subscribers: make(map[Kind][]Handler),
		log:         log.With().Str("component", "bus").Logger(),
	}
}

// Subscribe registers h for every future Publish of kind.
func (b *Bus) Subscribe(kind Kind, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.subscribers[kind] = append(b.subscribers[kind], h)
	b.mu.Unlock()
}

// Publish invokes the subscribers registered for msg's kind.
//
// The subscriber list is copied under the lock and invoked after releasing
// it, so a handler may Subscribe or Publish. A handler registered while a
// Publish is in flight is not guaranteed to see that message.
func (b *Bus) Publish(msg Message) {
	b.mu.Lock()
	handlers := make([]Handler, len(b.subscribers[msg.Kind()]))
	copy(handlers, b.subscribers[msg.Kind()])
	b.mu.Unlock()

	for i, h := range handlers {
		b.deliver(i, h, msg)
	}
}

// deliver runs one handler; a panic is logged and delivery continues.
func (b *Bus) deliver(index int, h Handler, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			b.panics.Add(1)
			b.log.Error().
				Str("kind", msg.Kind().String()).
				Int("subscriber", index).
				Interface("panic", r).
				Msg("bus subscriber panicked")
		}
	}()
	h(msg)
}

// SubscriberCount reports how many handlers are registered for kind.
func (b *Bus) SubscriberCount(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers[kind])
}

// PanicCount reports how many subscriber invocations have panicked.
func (b *Bus) PanicCount() uint64 {
	return b.panics.Load()
}

// SubscribeTelemetry registers fn for Telemetry messages.
func SubscribeTelemetry(b *Bus, fn func(TelemetrySample)) {
	b.Subscribe(KindTelemetry, func(msg Message) {
		if sample, ok := msg.Telemetry(); ok {
			fn(sample)
		}
	})
}

// SubscribeHealth registers fn for HealthStatus messages.
func SubscribeHealth(b *Bus, fn func(HealthStatus)) {
	b.Subscribe(KindHealthStatus, func(msg Message) {
		if status, ok := msg.Health(); ok {
			fn(status)
		}
	})
}
