package testlog

import (
	"testing"

	"github.com/danmuck/edgenetswitch/internal/logging"
	"github.com/rs/zerolog"
)

func TestNewDefaultsToDebug(t *testing.T) {
	t.Setenv(logging.EnvLogLevel, "")
	if got := New(t).GetLevel(); got != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %s", got)
	}
}

func TestNewFollowsEnvLevel(t *testing.T) {
	t.Setenv(logging.EnvLogLevel, "warn")
	if got := Start(t).GetLevel(); got != zerolog.WarnLevel {
		t.Fatalf("expected warn level, got %s", got)
	}
}
