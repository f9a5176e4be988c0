package status

import (
	"encoding/json"
	"sync/atomic"

	"github.com/danmuck/edgenetswitch/internal/bus"
)

// State is the daemon lifecycle phase.
type State int32

const (
	StateBooting State = iota
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateBooting:
		return "BOOTING"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	default:
		return "UNKNOWN"
	}
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Lifecycle tracks the daemon phase from SystemStart/SystemShutdown messages.
type Lifecycle struct {
	state atomic.Int32
}

// NewLifecycle starts in StateBooting.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{}
}

// Attach subscribes the tracker to lifecycle messages on b.
func (l *Lifecycle) Attach(b *bus.Bus) {
	b.Subscribe(bus.KindSystemStart, func(bus.Message) { l.Set(StateRunning) })
	b.Subscribe(bus.KindSystemShutdown, func(bus.Message) { l.Set(StateStopping) })
}

func (l *Lifecycle) Set(s State) {
	l.state.Store(int32(s))
}

func (l *Lifecycle) State() State {
	return State(l.state.Load())
}
