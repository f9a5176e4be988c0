package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/edgenetswitch/internal/logging"
)

const (
	// DefaultPath is searched for when no path is given.
	DefaultPath = "edgenetswitch.toml"
	// EnvConfigPath overrides DefaultPath.
	EnvConfigPath = "EDGENETSWITCH_CONFIG"
)

var (
	ErrConfigNotFound = errors.New("config: file not found")
	ErrConfigParse    = errors.New("config: parse failed")
	ErrConfigInvalid  = errors.New("config: invalid")
)

type Config struct {
	Log     LogConfig     `toml:"log" yaml:"log" json:"log"`
	Daemon  DaemonConfig  `toml:"daemon" yaml:"daemon" json:"daemon"`
	Health  HealthConfig  `toml:"health" yaml:"health" json:"health"`
	Control ControlConfig `toml:"control" yaml:"control" json:"control"`
	HTTP    HTTPConfig    `toml:"http" yaml:"http" json:"http"`
}

type LogConfig struct {
	Level string `toml:"level" yaml:"level" json:"level"`
	File  string `toml:"file" yaml:"file" json:"file"`
}

type DaemonConfig struct {
	TickMS uint32 `toml:"tick_ms" yaml:"tick_ms" json:"tick_ms"`
}

type HealthConfig struct {
	TimeoutMS              int64 `toml:"timeout_ms" yaml:"timeout_ms" json:"timeout_ms"`
	HeartbeatFromTelemetry bool  `toml:"heartbeat_from_telemetry" yaml:"heartbeat_from_telemetry" json:"heartbeat_from_telemetry"`
}

type ControlConfig struct {
	Socket        string `toml:"socket" yaml:"socket" json:"socket"`
	ReadTimeoutMS int64  `toml:"read_timeout_ms" yaml:"read_timeout_ms" json:"read_timeout_ms"`
}

// HTTPConfig controls the optional observability surface. An empty Addr
// disables it.
type HTTPConfig struct {
	Addr        string   `toml:"addr" yaml:"addr" json:"addr"`
	CorsOrigins []string `toml:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
}

// Default returns the configuration used for every key a file omits.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level: "info",
			File:  "edgenetswitch.log",
		},
		Daemon: DaemonConfig{TickMS: 100},
		Health: HealthConfig{
			TimeoutMS:              1000,
			HeartbeatFromTelemetry: true,
		},
		Control: ControlConfig{
			Socket:        "/tmp/edgenetswitch.sock",
			ReadTimeoutMS: 30000,
		},
		HTTP: HTTPConfig{
			CorsOrigins: []string{"http://localhost:3000"},
		},
	}
}

// Validate reports the first unusable value.
func Validate(cfg Config) error {
	if _, ok := logging.ParseLevel(cfg.Log.Level); !ok {
		return fmt.Errorf("%w: log.level %q (expected debug|info|warn|error)", ErrConfigInvalid, cfg.Log.Level)
	}
	if cfg.Daemon.TickMS == 0 {
		return fmt.Errorf("%w: daemon.tick_ms must be positive", ErrConfigInvalid)
	}
	if cfg.Health.TimeoutMS <= 0 {
		return fmt.Errorf("%w: health.timeout_ms must be positive", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.Control.Socket) == "" {
		return fmt.Errorf("%w: control.socket is required", ErrConfigInvalid)
	}
	if cfg.Control.ReadTimeoutMS <= 0 {
		return fmt.Errorf("%w: control.read_timeout_ms must be positive", ErrConfigInvalid)
	}
	return nil
}
