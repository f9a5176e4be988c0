package observability

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/edgenetswitch/internal/status"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const metricsRoute = "/metrics"

// StatusProvider supplies the daemon snapshot served over HTTP.
type StatusProvider interface {
	RuntimeStatus() status.RuntimeStatus
}

// HTTPConfig configures the observability surface.
type HTTPConfig struct {
	Addr        string
	CorsOrigins []string
	InstanceID  string
	Version     string
}

// NewRouter builds the gin engine serving health, readiness, status and
// prometheus metrics.
func NewRouter(cfg HTTPConfig, provider StatusProvider, logger zerolog.Logger) *gin.Engine {
	RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.Use(RequestMetricsMiddleware())
	if len(cfg.CorsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CorsOrigins,
			AllowMethods: []string{"GET"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		st := provider.RuntimeStatus()
		code := http.StatusOK
		if !st.Health.IsAlive {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"alive":       st.Health.IsAlive,
			"uptime_ms":   st.Metrics.UptimeMS,
			"instance_id": cfg.InstanceID,
			"service":     "edgenetswitch",
			"version":     cfg.Version,
		})
	})
	r.GET("/ready", func(c *gin.Context) {
		state := provider.RuntimeStatus().State
		code := http.StatusOK
		if state != status.StateRunning {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"ready": state == status.StateRunning,
			"state": state.String(),
		})
	})
	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, provider.RuntimeStatus())
	})
	r.GET(metricsRoute, gin.WrapH(promhttp.Handler()))
	return r
}

// HTTPServer runs the router until its context is done.
type HTTPServer struct {
	srv *http.Server
	log zerolog.Logger
}

func NewHTTPServer(cfg HTTPConfig, provider StatusProvider, logger zerolog.Logger) *HTTPServer {
	logger = logger.With().Str("component", "http").Logger()
	return &HTTPServer{
		srv: &http.Server{
			Addr:              strings.TrimSpace(cfg.Addr),
			Handler:           NewRouter(cfg, provider, logger),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: logger,
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("http listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
