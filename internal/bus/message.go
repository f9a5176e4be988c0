package bus

// Kind selects which subscribers receive a message.
type Kind uint32

const (
	KindSystemStart Kind = iota
	KindSystemShutdown
	KindConfigLoaded
	KindTelemetry
	KindHealthStatus
)

func (k Kind) String() string {
	switch k {
	case KindSystemStart:
		return "system_start"
	case KindSystemShutdown:
		return "system_shutdown"
	case KindConfigLoaded:
		return "config_loaded"
	case KindTelemetry:
		return "telemetry"
	case KindHealthStatus:
		return "health_status"
	default:
		return "unknown"
	}
}

// TelemetrySample is one level-triggered telemetry reading.
type TelemetrySample struct {
	UptimeMS    uint64 `json:"uptime_ms"`
	TickCount   uint64 `json:"tick_count"`
	TimestampMS uint64 `json:"timestamp_ms"`
}

// HealthStatus is a liveness edge as seen at publication time.
type HealthStatus struct {
	UptimeMS          uint64 `json:"uptime_ms"`
	LastHeartbeatMS   uint64 `json:"last_heartbeat_ms"`
	SilenceDurationMS uint64 `json:"silence_duration_ms"`
	IsAlive           bool   `json:"is_alive"`
}

// Message is an immutable bus envelope. The payload is fixed by the
// constructor used, so a Telemetry message always carries a TelemetrySample
// and a HealthStatus message always carries a HealthStatus.
type Message struct {
	kind        Kind
	timestampMS uint64
	telemetry   TelemetrySample
	health      HealthStatus
}

func NewSystemStart(timestampMS uint64) Message {
	return Message{kind: KindSystemStart, timestampMS: timestampMS}
}

func NewSystemShutdown(timestampMS uint64) Message {
	return Message{kind: KindSystemShutdown, timestampMS: timestampMS}
}

func NewConfigLoaded(timestampMS uint64) Message {
	return Message{kind: KindConfigLoaded, timestampMS: timestampMS}
}

// NewTelemetry wraps a sample; the message timestamp is the sample timestamp.
func NewTelemetry(sample TelemetrySample) Message {
	return Message{kind: KindTelemetry, timestampMS: sample.TimestampMS, telemetry: sample}
}

// NewHealth wraps a liveness edge published at timestampMS.
func NewHealth(timestampMS uint64, status HealthStatus) Message {
	return Message{kind: KindHealthStatus, timestampMS: timestampMS, health: status}
}

func (m Message) Kind() Kind { return m.kind }

func (m Message) TimestampMS() uint64 { return m.timestampMS }

// Telemetry returns the sample carried by a Telemetry message.
func (m Message) Telemetry() (TelemetrySample, bool) {
	if m.kind != KindTelemetry {
		return TelemetrySample{}, false
	}
	return m.telemetry, true
}

// Health returns the status carried by a HealthStatus message.
func (m Message) Health() (HealthStatus, bool) {
	if m.kind != KindHealthStatus {
		return HealthStatus{}, false
	}
	return m.health, true
}
