package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		raw  string
		want zerolog.Level
		ok   bool
	}{
		{"debug", zerolog.DebugLevel, true},
		{" INFO ", zerolog.InfoLevel, true},
		{"warn", zerolog.WarnLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"error", zerolog.ErrorLevel, true},
		{"loud", zerolog.InfoLevel, false},
		{"", zerolog.InfoLevel, false},
	}
	for _, tc := range cases {
		got, ok := ParseLevel(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("%q: got (%s,%v) want (%s,%v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestInitWritesEveryLevelToFile(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	path := filepath.Join(t.TempDir(), "daemon.log")
	var console bytes.Buffer

	h, err := Init(Config{Level: "debug", File: path, NoColor: true, Console: &console})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	h.Logger.Debug().Msg("debug line")
	h.Logger.Info().Msg("info line")
	h.Logger.Warn().Msg("warn line")
	h.Logger.Error().Msg("error line")
	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, want := range []string{"debug line", "info line", "warn line", "error line"} {
		if !strings.Contains(string(raw), want) {
			t.Fatalf("log file missing %q: %s", want, raw)
		}
		if !strings.Contains(console.String(), want) {
			t.Fatalf("console missing %q: %s", want, console.String())
		}
	}
}

func TestInitAppendsToExistingFile(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	path := filepath.Join(t.TempDir(), "daemon.log")
	if err := os.WriteFile(path, []byte("previous run\n"), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}

	h, err := Init(Config{Level: "info", File: path, Console: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	h.Logger.Info().Msg("next run")
	_ = h.Close()

	raw, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(raw), "previous run\n") || !strings.Contains(string(raw), "next run") {
		t.Fatalf("unexpected log contents: %s", raw)
	}
}

func TestInitEnvOverridesLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	var console bytes.Buffer
	h, err := Init(Config{Level: "debug", NoColor: true, Console: &console})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	h.Logger.Info().Msg("suppressed")
	h.Logger.Error().Msg("kept")
	if strings.Contains(console.String(), "suppressed") || !strings.Contains(console.String(), "kept") {
		t.Fatalf("unexpected console output: %s", console.String())
	}
}

func TestInitRejectsUnwritableFile(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	_, err := Init(Config{File: filepath.Join(t.TempDir(), "missing", "daemon.log"), Console: &bytes.Buffer{}})
	if !errors.Is(err, ErrOpenLogFile) {
		t.Fatalf("expected ErrOpenLogFile, got %v", err)
	}
}
