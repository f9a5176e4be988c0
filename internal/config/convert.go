package config

import (
	"strings"
	"time"

	"github.com/danmuck/edgenetswitch/internal/control"
	"github.com/danmuck/edgenetswitch/internal/logging"
)

func (c DaemonConfig) TickInterval() time.Duration {
	return time.Duration(c.TickMS) * time.Millisecond
}

func (c HealthConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Logging maps the log section onto logging.Init input.
func (c LogConfig) Logging() logging.Config {
	return logging.Config{
		Level: strings.TrimSpace(c.Level),
		File:  strings.TrimSpace(c.File),
	}
}

// Server maps the control section onto a unix-socket server config.
func (c ControlConfig) Server() control.ServerConfig {
	return control.ServerConfig{
		Network:     "unix",
		Address:     strings.TrimSpace(c.Socket),
		ReadTimeout: time.Duration(c.ReadTimeoutMS) * time.Millisecond,
	}
}
