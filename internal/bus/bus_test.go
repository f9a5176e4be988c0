package bus

import (
	"reflect"
	"sync"
	"testing"

	"github.com/danmuck/edgenetswitch/internal/testutil/testlog"
)

func TestSingleSubscriberReceivesMessage(t *testing.T) {
	b := New(testlog.Start(t))

	received := false
	b.Subscribe(KindSystemStart, func(Message) { received = true })
	b.Publish(NewSystemStart(1))

	if !received {
		t.Fatalf("expected subscriber to receive message")
	}
}

func TestFanOutInSubscriptionOrder(t *testing.T) {
	b := New(testlog.Start(t))

	var order []string
	b.Subscribe(KindSystemStart, func(Message) { order = append(order, "first") })
	b.Subscribe(KindSystemStart, func(Message) { order = append(order, "second") })
	b.Publish(NewSystemStart(1))

	want := []string{"first", "second"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("unexpected delivery order: got=%v want=%v", order, want)
	}
}

func TestOtherKindsAreNotInvoked(t *testing.T) {
	b := New(testlog.Start(t))

	startReceived := false
	healthReceived := false
	b.Subscribe(KindSystemStart, func(Message) { startReceived = true })
	b.Subscribe(KindHealthStatus, func(Message) { healthReceived = true })
	b.Publish(NewSystemStart(1))

	if !startReceived {
		t.Fatalf("expected system start subscriber to fire")
	}
	if healthReceived {
		t.Fatalf("health subscriber fired for system start")
	}
}

func TestPanickingSubscriberDoesNotHaltDelivery(t *testing.T) {
	b := New(testlog.Start(t))

	calls := 0
	b.Subscribe(KindTelemetry, func(Message) { calls++ })
	b.Subscribe(KindTelemetry, func(Message) { panic("boom") })
	b.Subscribe(KindTelemetry, func(Message) { calls++ })

	b.Publish(NewTelemetry(TelemetrySample{TickCount: 1}))

	if calls != 2 {
		t.Fatalf("expected both healthy subscribers to run, got %d", calls)
	}
	if b.PanicCount() != 1 {
		t.Fatalf("unexpected panic count: %d", b.PanicCount())
	}
}

func TestHandlerMaySubscribeAndPublishDuringDelivery(t *testing.T) {
	b := New(testlog.Start(t))

	lateCalls := 0
	shutdownSeen := false
	b.Subscribe(KindSystemShutdown, func(Message) { shutdownSeen = true })
	b.Subscribe(KindSystemStart, func(Message) {
		b.Subscribe(KindSystemStart, func(Message) { lateCalls++ })
		b.Publish(NewSystemShutdown(2))
	})

	b.Publish(NewSystemStart(1))
	if lateCalls != 0 {
		t.Fatalf("subscriber added during publish saw the in-flight message")
	}
	if !shutdownSeen {
		t.Fatalf("nested publish was not delivered")
	}

	b.Publish(NewSystemStart(3))
	if lateCalls != 1 {
		t.Fatalf("late subscriber should see later publishes, got %d", lateCalls)
	}
	if got := b.SubscriberCount(KindSystemStart); got != 3 {
		t.Fatalf("unexpected subscriber count: %d", got)
	}
}

func TestTypedSubscribersUnwrapPayload(t *testing.T) {
	b := New(testlog.Start(t))

	var sample TelemetrySample
	var status HealthStatus
	SubscribeTelemetry(b, func(s TelemetrySample) { sample = s })
	SubscribeHealth(b, func(s HealthStatus) { status = s })

	b.Publish(NewTelemetry(TelemetrySample{UptimeMS: 10, TickCount: 2, TimestampMS: 99}))
	b.Publish(NewHealth(100, HealthStatus{IsAlive: true, LastHeartbeatMS: 90}))

	if sample.TickCount != 2 || sample.UptimeMS != 10 {
		t.Fatalf("unexpected telemetry sample: %+v", sample)
	}
	if !status.IsAlive || status.LastHeartbeatMS != 90 {
		t.Fatalf("unexpected health status: %+v", status)
	}
}

func TestMessagePayloadIsBoundToKind(t *testing.T) {
	msg := NewTelemetry(TelemetrySample{TickCount: 5, TimestampMS: 42})
	if msg.Kind() != KindTelemetry {
		t.Fatalf("unexpected kind: %s", msg.Kind())
	}
	if msg.TimestampMS() != 42 {
		t.Fatalf("unexpected timestamp: %d", msg.TimestampMS())
	}
	if _, ok := msg.Health(); ok {
		t.Fatalf("telemetry message exposed a health payload")
	}
	if _, ok := NewSystemStart(1).Telemetry(); ok {
		t.Fatalf("system start exposed a telemetry payload")
	}
}

func TestConcurrentPublishAndSubscribe(t *testing.T) {
	b := New(testlog.Start(t))

	var mu sync.Mutex
	delivered := 0
	b.Subscribe(KindTelemetry, func(Message) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Publish(NewTelemetry(TelemetrySample{TickCount: uint64(j)}))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				b.Subscribe(KindHealthStatus, func(Message) {})
			}
		}()
	}
	wg.Wait()

	if delivered != 800 {
		t.Fatalf("unexpected delivery count: %d", delivered)
	}
	if got := b.SubscriberCount(KindHealthStatus); got != 80 {
		t.Fatalf("unexpected health subscriber count: %d", got)
	}
}
