package telemetry

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/edgenetswitch/internal/bus"
	"github.com/danmuck/edgenetswitch/internal/clock"
	"github.com/danmuck/edgenetswitch/internal/testutil/testlog"
	"github.com/rs/zerolog"
)

func TestOnTickPublishesSample(t *testing.T) {
	b := bus.New(testlog.Start(t))
	c := clock.NewManual(time.UnixMilli(1_000))
	p := NewProducer(b, c)

	var last bus.Message
	received := false
	b.Subscribe(bus.KindTelemetry, func(msg bus.Message) {
		last = msg
		received = true
	})

	c.Advance(25 * time.Millisecond)
	p.OnTick()

	if !received {
		t.Fatalf("expected telemetry message")
	}
	sample, ok := last.Telemetry()
	if !ok {
		t.Fatalf("telemetry message without sample")
	}
	if sample.TickCount != 1 {
		t.Fatalf("unexpected tick count: %d", sample.TickCount)
	}
	if sample.UptimeMS != 25 {
		t.Fatalf("unexpected uptime: %d", sample.UptimeMS)
	}
	if sample.TimestampMS != 1_025 || last.TimestampMS() != 1_025 {
		t.Fatalf("unexpected timestamp: sample=%d msg=%d", sample.TimestampMS, last.TimestampMS())
	}
}

func TestTickSequenceHasNoGaps(t *testing.T) {
	b := bus.New(testlog.Start(t))
	c := clock.NewManual(time.UnixMilli(0))
	p := NewProducer(b, c)

	var ticks []uint64
	var uptimes []uint64
	bus.SubscribeTelemetry(b, func(s bus.TelemetrySample) {
		ticks = append(ticks, s.TickCount)
		uptimes = append(uptimes, s.UptimeMS)
	})

	const n = 50
	for i := 0; i < n; i++ {
		if i%3 == 0 {
			c.Advance(time.Millisecond)
		}
		p.OnTick()
	}

	if len(ticks) != n {
		t.Fatalf("expected %d samples, got %d", n, len(ticks))
	}
	for i, tick := range ticks {
		if tick != uint64(i+1) {
			t.Fatalf("tick %d: got %d", i, tick)
		}
		if i > 0 && uptimes[i] < uptimes[i-1] {
			t.Fatalf("uptime decreased at %d: %d -> %d", i, uptimes[i-1], uptimes[i])
		}
	}
}

func TestSnapshotHasNoSideEffects(t *testing.T) {
	b := bus.New(testlog.Start(t))
	c := clock.NewManual(time.UnixMilli(0))
	p := NewProducer(b, c)

	published := 0
	b.Subscribe(bus.KindTelemetry, func(bus.Message) { published++ })

	p.OnTick()
	p.OnTick()
	c.Advance(40 * time.Millisecond)

	_ = p.Snapshot()
	snap := p.Snapshot()
	if snap.TickCount != 2 {
		t.Fatalf("snapshot changed tick count: %d", snap.TickCount)
	}
	if snap.UptimeMS != 40 {
		t.Fatalf("unexpected uptime: %d", snap.UptimeMS)
	}
	if published != 2 {
		t.Fatalf("snapshot published: %d", published)
	}
}

func TestExportManagerFansOutAndSkipsNil(t *testing.T) {
	m := NewExportManager(testlog.Start(t))

	var got []Metrics
	m.Add(nil)
	m.Add(ExporterFunc(func(s Metrics) { got = append(got, s) }))
	m.Add(ExporterFunc(func(Metrics) { panic("exporter failure") }))
	m.Add(ExporterFunc(func(s Metrics) { got = append(got, s) }))

	if m.Len() != 3 {
		t.Fatalf("unexpected exporter count: %d", m.Len())
	}

	m.Export(Metrics{UptimeMS: 5, TickCount: 1})
	if len(got) != 2 {
		t.Fatalf("expected two deliveries, got %d", len(got))
	}
	if got[1].TickCount != 1 || got[1].UptimeMS != 5 {
		t.Fatalf("unexpected exported sample: %+v", got[1])
	}
}

func TestLogExporterWritesFields(t *testing.T) {
	var buf bytes.Buffer
	e := LogExporter{Log: zerolog.New(&buf).Level(zerolog.DebugLevel)}

	e.Export(Metrics{UptimeMS: 1200, TickCount: 12})

	line := buf.String()
	for _, want := range []string{`"uptime_ms":1200`, `"tick_count":12`, "telemetry_export"} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line %q missing %q", line, want)
		}
	}
}
