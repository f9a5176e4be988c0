// Package health tracks daemon liveness from heartbeats and publishes
// liveness transitions onto the bus.
//
// Liveness is computed, never stored: alive iff now-last_heartbeat <= timeout.
// OnTick publishes only on the first evaluation and on each change of the
// computed value, so the bus carries one message per transition.
package health

import (
	"sync"
	"time"

	"github.com/danmuck/edgenetswitch/internal/bus"
	"github.com/danmuck/edgenetswitch/internal/clock"
	"github.com/rs/zerolog"
)

// DefaultTimeout applies when a monitor is built with a non-positive timeout.
const DefaultTimeout = time.Second

// Snapshot is the cheap point-in-time liveness view used by the control layer.
type Snapshot struct {
	Alive     bool   `json:"alive"`
	TimeoutMS uint64 `json:"timeout_ms"`
}

// Monitor owns the last-heartbeat and last-published fields.
type Monitor struct {
	bus       *bus.Bus
	clock     clock.Clock
	log       zerolog.Logger
	timeoutMS uint64
	startMS   uint64

	mu              sync.Mutex
	lastHeartbeatMS uint64
	evaluated       bool
	lastPublished   bool
}

// NewMonitor builds a monitor that starts Alive with a heartbeat at construction.
func NewMonitor(b *bus.Bus, timeout time.Duration, c clock.Clock, log zerolog.Logger) *Monitor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c = clock.OrReal(c)
	now := clock.NowMS(c)
	return &Monitor{
		bus:             b,
		clock:           c,
		log:             log.With().Str("component", "health").Logger(),
		timeoutMS:       uint64(timeout.Milliseconds()),
		startMS:         now,
		lastHeartbeatMS: now,
	}
}

// OnHeartbeat records a heartbeat at the current time.
func (m *Monitor) OnHeartbeat() {
	now := clock.NowMS(m.clock)
	m.mu.Lock()
	m.lastHeartbeatMS = now
	m.mu.Unlock()
}

// OnTick re-evaluates liveness and publishes on an edge.
func (m *Monitor) OnTick() {
	now := clock.NowMS(m.clock)

	m.mu.Lock()
	status := m.statusAt(now)
	edge := !m.evaluated || status.IsAlive != m.lastPublished
	if edge {
		m.evaluated = true
		m.lastPublished = status.IsAlive
	}
	m.mu.Unlock()

	if !edge {
		return
	}
	m.log.Debug().
		Bool("alive", status.IsAlive).
		Uint64("silence_ms", status.SilenceDurationMS).
		Msg("health transition")
	if m.bus != nil {
		m.bus.Publish(bus.NewHealth(now, status))
	}
}

// Snapshot reports liveness now, independent of what has been published.
func (m *Monitor) Snapshot() Snapshot {
	now := clock.NowMS(m.clock)
	m.mu.Lock()
	status := m.statusAt(now)
	m.mu.Unlock()
	return Snapshot{Alive: status.IsAlive, TimeoutMS: m.timeoutMS}
}

// CurrentStatus reports liveness now in HealthStatus shape.
func (m *Monitor) CurrentStatus() bus.HealthStatus {
	now := clock.NowMS(m.clock)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusAt(now)
}

// TimeoutMS returns the configured liveness timeout.
func (m *Monitor) TimeoutMS() uint64 {
	return m.timeoutMS
}

// statusAt must be called with m.mu held.
func (m *Monitor) statusAt(now uint64) bus.HealthStatus {
	silence := uint64(0)
	if now > m.lastHeartbeatMS {
		silence = now - m.lastHeartbeatMS
	}
	uptime := uint64(0)
	if now > m.startMS {
		uptime = now - m.startMS
	}
	return bus.HealthStatus{
		UptimeMS:          uptime,
		LastHeartbeatMS:   m.lastHeartbeatMS,
		SilenceDurationMS: silence,
		IsAlive:           silence <= m.timeoutMS,
	}
}
