package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/edgenetswitch/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "edgenetswitch"

var (
	registerOnce sync.Once

	telemetryUptime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "telemetry",
		Name:      "uptime_ms",
		Help:      "Daemon uptime in milliseconds at the last tick.",
	})
	telemetryTicks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "telemetry",
		Name:      "ticks_total",
		Help:      "Telemetry ticks produced since boot.",
	})
	healthAlive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "health",
		Name:      "alive",
		Help:      "1 when the last published health status was alive.",
	})
	healthTransitions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "health",
		Name:      "transitions_total",
		Help:      "Published health status transitions.",
	})
	controlRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "control",
			Name:      "requests_total",
			Help:      "Control requests by command and outcome.",
		},
		[]string{"command", "outcome"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			telemetryUptime,
			telemetryTicks,
			healthAlive,
			healthTransitions,
			controlRequests,
			httpRequests,
			httpDuration,
		)
	})
}

func RecordTelemetry(m telemetry.Metrics) {
	RegisterMetrics()
	telemetryUptime.Set(float64(m.UptimeMS))
	telemetryTicks.Set(float64(m.TickCount))
}

func RecordHealthTransition(alive bool) {
	RegisterMetrics()
	healthTransitions.Inc()
	if alive {
		healthAlive.Set(1)
		return
	}
	healthAlive.Set(0)
}

// RecordControlRequest counts one answered control request. Unparseable
// requests are labelled with an empty command.
func RecordControlRequest(command string, success bool, errorCode string) {
	RegisterMetrics()
	outcome := "ok"
	if !success {
		outcome = errorCode
	}
	controlRequests.WithLabelValues(command, outcome).Inc()
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

// PrometheusExporter publishes telemetry snapshots as gauges.
type PrometheusExporter struct{}

func (PrometheusExporter) Export(m telemetry.Metrics) {
	RecordTelemetry(m)
}
