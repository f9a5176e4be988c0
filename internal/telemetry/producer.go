// Package telemetry produces periodic uptime/tick samples and fans them out
// to exporters.
package telemetry

import (
	"sync/atomic"

	"github.com/danmuck/edgenetswitch/internal/bus"
	"github.com/danmuck/edgenetswitch/internal/clock"
)

// Metrics is the synchronous uptime/tick view of the producer.
type Metrics struct {
	UptimeMS  uint64 `json:"uptime_ms"`
	TickCount uint64 `json:"tick_count"`
}

// Producer publishes one TelemetrySample per tick, unconditionally.
type Producer struct {
	bus     *bus.Bus
	clock   clock.Clock
	startMS uint64
	ticks   atomic.Uint64
}

// NewProducer starts the uptime clock at construction.
func NewProducer(b *bus.Bus, c clock.Clock) *Producer {
	c = clock.OrReal(c)
	return &Producer{
		bus:     b,
		clock:   c,
		startMS: clock.NowMS(c),
	}
}

// OnTick increments the tick counter and publishes a sample.
func (p *Producer) OnTick() bus.TelemetrySample {
	count := p.ticks.Add(1)
	now := clock.NowMS(p.clock)
	sample := bus.TelemetrySample{
		UptimeMS:    p.uptimeAt(now),
		TickCount:   count,
		TimestampMS: now,
	}
	if p.bus != nil {
		p.bus.Publish(bus.NewTelemetry(sample))
	}
	return sample
}

// Snapshot reads uptime and tick count without side effects.
func (p *Producer) Snapshot() Metrics {
	return Metrics{
		UptimeMS:  p.uptimeAt(clock.NowMS(p.clock)),
		TickCount: p.ticks.Load(),
	}
}

func (p *Producer) uptimeAt(now uint64) uint64 {
	if now < p.startMS {
		return 0
	}
	return now - p.startMS
}
