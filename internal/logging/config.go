package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel   = "EDGENETSWITCH_LOG_LEVEL"
	EnvLogNoColor = "EDGENETSWITCH_LOG_NOCOLOR"
)

var ErrOpenLogFile = errors.New("logging: open log file")

// Config selects the level and the append-mode log file. An empty File
// logs to the console only.
type Config struct {
	Level   string
	File    string
	NoColor bool
	Console io.Writer
}

// Handle owns the log file backing a Logger.
type Handle struct {
	Logger zerolog.Logger

	file      *os.File
	closeOnce sync.Once
	closeErr  error
}

// Init builds the process logger. The console writer and the file writer
// receive every event at or above the configured level.
func Init(cfg Config) (*Handle, error) {
	applyEnvOverrides(&cfg)
	level, _ := ParseLevel(cfg.Level)

	console := cfg.Console
	if console == nil {
		console = os.Stdout
	}
	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.RFC3339,
		NoColor:    cfg.NoColor,
	}}

	h := &Handle{}
	if path := strings.TrimSpace(cfg.File); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrOpenLogFile, path, err)
		}
		h.file = f
		writers = append(writers, f)
	}

	h.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Str("app", "edgenetswitch").
		Logger()
	return h, nil
}

// Close flushes and closes the log file. Safe to call more than once.
func (h *Handle) Close() error {
	if h == nil {
		return nil
	}
	h.closeOnce.Do(func() {
		if h.file == nil {
			return
		}
		if err := h.file.Sync(); err != nil && !errors.Is(err, os.ErrClosed) {
			h.closeErr = err
		}
		if err := h.file.Close(); err != nil && h.closeErr == nil {
			h.closeErr = err
		}
	})
	return h.closeErr
}

func applyEnvOverrides(cfg *Config) {
	if raw := strings.TrimSpace(os.Getenv(EnvLogLevel)); raw != "" {
		cfg.Level = raw
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
}

// ParseLevel maps a level name onto zerolog. Unknown names fall back to info
// and report false.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
