package status

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/danmuck/edgenetswitch/internal/bus"
	"github.com/danmuck/edgenetswitch/internal/telemetry"
	"github.com/danmuck/edgenetswitch/internal/testutil/testlog"
)

func TestBuildComposesInputs(t *testing.T) {
	testlog.Start(t)
	metrics := telemetry.Metrics{UptimeMS: 900, TickCount: 9}
	health := bus.HealthStatus{UptimeMS: 900, LastHeartbeatMS: 850, SilenceDurationMS: 50, IsAlive: true}

	got := Build(metrics, health, StateRunning, 12345)

	if got.Metrics != metrics {
		t.Fatalf("unexpected metrics: %+v", got.Metrics)
	}
	if got.Health != health {
		t.Fatalf("unexpected health: %+v", got.Health)
	}
	if got.State != StateRunning {
		t.Fatalf("unexpected state: %s", got.State)
	}
	if got.SnapshotTimestampMS != 12345 {
		t.Fatalf("unexpected timestamp: %d", got.SnapshotTimestampMS)
	}
}

func TestStateStrings(t *testing.T) {
	testlog.Start(t)
	cases := map[State]string{
		StateBooting:  "BOOTING",
		StateRunning:  "RUNNING",
		StateStopping: "STOPPING",
		State(42):     "UNKNOWN",
	}
	for s, want := range cases {
		if s.String() != want {
			t.Fatalf("state %d: got %q want %q", int32(s), s.String(), want)
		}
	}
}

func TestLifecycleFollowsBus(t *testing.T) {
	b := bus.New(testlog.Start(t))
	l := NewLifecycle()
	l.Attach(b)

	if l.State() != StateBooting {
		t.Fatalf("expected booting, got %s", l.State())
	}
	b.Publish(bus.NewSystemStart(1))
	if l.State() != StateRunning {
		t.Fatalf("expected running, got %s", l.State())
	}
	b.Publish(bus.NewSystemShutdown(2))
	if l.State() != StateStopping {
		t.Fatalf("expected stopping, got %s", l.State())
	}
}

func TestRuntimeStatusJSONUsesStateName(t *testing.T) {
	testlog.Start(t)
	raw, err := json.Marshal(Build(telemetry.Metrics{}, bus.HealthStatus{}, StateStopping, 1))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"state":"STOPPING"`) {
		t.Fatalf("unexpected json: %s", raw)
	}
}
