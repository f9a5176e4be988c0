package testlog

import (
	"os"
	"testing"

	"github.com/danmuck/edgenetswitch/internal/logging"
	"github.com/rs/zerolog"
)

// Start returns a debug-level logger that writes through t.Log.
func Start(t testing.TB) zerolog.Logger {
	t.Helper()
	logger := New(t)
	logger.Info().Str("test", t.Name()).Msg("test start")
	return logger
}

// New builds the test logger without the start line. The level follows
// logging.EnvLogLevel when set, else debug.
func New(t testing.TB) zerolog.Logger {
	level := zerolog.DebugLevel
	if lvl, ok := logging.ParseLevel(os.Getenv(logging.EnvLogLevel)); ok {
		level = lvl
	}
	return zerolog.New(zerolog.NewTestWriter(t)).Level(level).With().Timestamp().Logger()
}
