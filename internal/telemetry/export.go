package telemetry

import (
	"sync"

	"github.com/rs/zerolog"
)

// Exporter receives telemetry snapshots.
type Exporter interface {
	Export(Metrics)
}

// ExporterFunc adapts a function to Exporter.
type ExporterFunc func(Metrics)

func (f ExporterFunc) Export(m Metrics) { f(m) }

// ExportManager fans a snapshot out to every registered exporter.
type ExportManager struct {
	log zerolog.Logger

	mu        sync.RWMutex
	exporters []Exporter
}

func NewExportManager(log zerolog.Logger) *ExportManager {
	return &ExportManager{log: log.With().Str("component", "telemetry_export").Logger()}
}

// Add registers an exporter. A nil exporter is ignored.
func (m *ExportManager) Add(e Exporter) {
	if e == nil {
		m.log.Warn().Msg("telemetry_export: nil exporter ignored")
		return
	}
	m.mu.Lock()
	m.exporters = append(m.exporters, e)
	m.mu.Unlock()
}

// Len returns the number of registered exporters.
func (m *ExportManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.exporters)
}

// Export delivers sample to all exporters; a panicking exporter is skipped.
func (m *ExportManager) Export(sample Metrics) {
	m.mu.RLock()
	exporters := make([]Exporter, len(m.exporters))
	copy(exporters, m.exporters)
	m.mu.RUnlock()

	for _, e := range exporters {
		m.exportOne(e, sample)
	}
}

func (m *ExportManager) exportOne(e Exporter, sample Metrics) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().Interface("panic", r).Msg("telemetry exporter panicked")
		}
	}()
	e.Export(sample)
}

// LogExporter writes each sample as a debug log line.
type LogExporter struct {
	Log zerolog.Logger
}

func (e LogExporter) Export(sample Metrics) {
	e.Log.Debug().
		Uint64("uptime_ms", sample.UptimeMS).
		Uint64("tick_count", sample.TickCount).
		Msg("telemetry_export")
}
