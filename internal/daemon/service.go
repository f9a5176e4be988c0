// Package daemon wires the bus, telemetry, health, lifecycle and control
// channel into the long-running EdgeNetSwitch process.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/edgenetswitch/internal/bus"
	"github.com/danmuck/edgenetswitch/internal/clock"
	"github.com/danmuck/edgenetswitch/internal/config"
	"github.com/danmuck/edgenetswitch/internal/control"
	"github.com/danmuck/edgenetswitch/internal/health"
	"github.com/danmuck/edgenetswitch/internal/observability"
	"github.com/danmuck/edgenetswitch/internal/status"
	"github.com/danmuck/edgenetswitch/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidTickInterval = errors.New("daemon: invalid tick interval")
	ErrControlListen       = errors.New("daemon: control listen failed")
)

// Option adjusts a Service at construction.
type Option func(*Service)

// WithClock replaces the wall clock used by telemetry and health.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = clock.OrReal(c) }
}

// Service runs the daemon lifecycle as a standalone process.
type Service struct {
	cfg        config.Config
	log        zerolog.Logger
	clock      clock.Clock
	instanceID string

	bus       *bus.Bus
	lifecycle *status.Lifecycle
	producer  *telemetry.Producer
	monitor   *health.Monitor
	exports   *telemetry.ExportManager

	control *control.Server
	http    *observability.HTTPServer
}

func NewService(cfg config.Config, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		cfg:        cfg,
		clock:      clock.Real{},
		instanceID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = log.With().Str("instance_id", s.instanceID).Logger()

	s.bus = bus.New(s.log)
	s.lifecycle = status.NewLifecycle()
	s.producer = telemetry.NewProducer(s.bus, s.clock)
	s.monitor = health.NewMonitor(s.bus, cfg.Health.Timeout(), s.clock, s.log)
	s.exports = telemetry.NewExportManager(s.log)
	s.exports.Add(telemetry.LogExporter{Log: s.log})
	s.exports.Add(observability.PrometheusExporter{})

	s.control = control.NewServer(cfg.Control.Server(), s, s.log)
	s.control.OnRequest(func(req control.Request, resp control.Response) {
		observability.RecordControlRequest(commandLabel(req.Command), resp.Success, resp.ErrorCode)
	})
	if cfg.HTTP.Addr != "" {
		s.http = observability.NewHTTPServer(observability.HTTPConfig{
			Addr:        cfg.HTTP.Addr,
			CorsOrigins: cfg.HTTP.CorsOrigins,
			InstanceID:  s.instanceID,
			Version:     control.DaemonVersion,
		}, s, s.log)
	}

	s.subscribe()
	return s
}

// subscribe attaches the daemon's own consumers. Order matters for
// Telemetry: the heartbeat lands before exporters see the sample.
func (s *Service) subscribe() {
	s.lifecycle.Attach(s.bus)

	s.bus.Subscribe(bus.KindSystemStart, func(bus.Message) {
		s.log.Info().Msg("SystemStart received by daemon")
	})
	s.bus.Subscribe(bus.KindConfigLoaded, func(bus.Message) {
		s.log.Info().
			Uint32("tick_ms", s.cfg.Daemon.TickMS).
			Str("socket", s.cfg.Control.Socket).
			Msg("ConfigLoaded received by daemon")
	})
	s.bus.Subscribe(bus.KindSystemShutdown, func(bus.Message) {
		s.log.Info().Msg("SystemShutdown received by daemon")
	})

	if s.cfg.Health.HeartbeatFromTelemetry {
		bus.SubscribeTelemetry(s.bus, func(bus.TelemetrySample) {
			s.monitor.OnHeartbeat()
		})
	}
	bus.SubscribeTelemetry(s.bus, func(sample bus.TelemetrySample) {
		s.exports.Export(telemetry.Metrics{UptimeMS: sample.UptimeMS, TickCount: sample.TickCount})
	})
	bus.SubscribeHealth(s.bus, func(st bus.HealthStatus) {
		observability.RecordHealthTransition(st.IsAlive)
		event := s.log.Info()
		if !st.IsAlive {
			event = s.log.Warn()
		}
		event.
			Bool("alive", st.IsAlive).
			Uint64("uptime_ms", st.UptimeMS).
			Uint64("silence_ms", st.SilenceDurationMS).
			Msg("health transition")
	})
}

// Run blocks until SIGINT or SIGTERM.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.RunContext(ctx)
}

// RunContext boots the daemon and serves until ctx is done or a server
// fails.
func (s *Service) RunContext(ctx context.Context) error {
	interval := s.cfg.Daemon.TickInterval()
	if interval <= 0 {
		return ErrInvalidTickInterval
	}
	ln, err := s.control.Listen()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrControlListen, err)
	}

	s.log.Info().
		Str("version", control.DaemonVersion).
		Str("protocol", control.ProtocolVersion).
		Msg("EdgeNetSwitch daemon starting")
	now := clock.NowMS(s.clock)
	s.bus.Publish(bus.NewConfigLoaded(now))
	s.bus.Publish(bus.NewSystemStart(now))

	// Servers outlive the tick loop so SystemShutdown is published while
	// the control channel can still report STOPPING.
	srvCtx, stopServers := context.WithCancel(context.Background())
	defer stopServers()

	// A server that stops on its own also ends the tick loop.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return s.control.Serve(srvCtx, ln)
	})
	if s.http != nil {
		g.Go(func() error {
			defer cancel()
			return s.http.Run(srvCtx)
		})
	}
	g.Go(func() error {
		s.serve(gctx, interval)
		s.log.Warn().Msg("Stop requested. Shutting down")
		s.bus.Publish(bus.NewSystemShutdown(clock.NowMS(s.clock)))
		stopServers()
		return nil
	})
	err = g.Wait()

	if rmErr := os.Remove(s.cfg.Control.Socket); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		s.log.Warn().Err(rmErr).Msg("control socket cleanup failed")
	}
	s.log.Info().Msg("EdgeNetSwitch daemon stopped")
	return err
}

// commandLabel bounds the command label to the dispatch table.
func commandLabel(command string) string {
	if control.IsKnown(command) {
		return command
	}
	return "unknown"
}

func (s *Service) serve(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick runs one loop iteration: telemetry first, then health.
func (s *Service) Tick() {
	s.producer.OnTick()
	s.monitor.OnTick()
}

func (s *Service) Bus() *bus.Bus { return s.bus }

func (s *Service) InstanceID() string { return s.instanceID }

func (s *Service) Metrics() telemetry.Metrics { return s.producer.Snapshot() }

func (s *Service) HealthSnapshot() health.Snapshot { return s.monitor.Snapshot() }

func (s *Service) HealthStatus() bus.HealthStatus { return s.monitor.CurrentStatus() }

func (s *Service) State() status.State { return s.lifecycle.State() }

func (s *Service) NowMS() uint64 { return clock.NowMS(s.clock) }

// RuntimeStatus assembles the snapshot served over HTTP.
func (s *Service) RuntimeStatus() status.RuntimeStatus {
	return status.Build(s.Metrics(), s.HealthStatus(), s.State(), s.NowMS())
}
