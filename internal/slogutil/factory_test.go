package slogutil

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hsplit/internal/config"
)

func TestLoggerFactory_EffectiveLevel(t *testing.T) {
	tests := []struct {
		name     string
		cfgLevel string
		cliLevel slog.Level
		cliSet   bool
		want     slog.Level
	}{
		{"config default", "warn", 0, false, slog.LevelWarn},
		{"config debug", "debug", 0, false, slog.LevelDebug},
		{"empty config", "", 0, false, slog.LevelWarn},
		{"cli wins", "error", slog.LevelDebug, true, slog.LevelDebug},
		{"cli info is explicit", "debug", slog.LevelInfo, true, slog.LevelInfo},
		{"cli quiet", "debug", LevelSilent, true, LevelSilent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Logging.Level = tt.cfgLevel
			f := NewLoggerFactory(t.TempDir(), cfg, tt.cliLevel, tt.cliSet)
			if got := f.effectiveLevel(); got != tt.want {
				t.Errorf("effectiveLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoggerFactory_CommandLoggerHuman(t *testing.T) {
	var buf bytes.Buffer
	f := NewLoggerFactory(t.TempDir(), nil, slog.LevelInfo, true)
	defer f.Close()

	logger := f.CommandLogger(&buf)
	logger.Debug("hidden")
	logger.Info("indexed", "units", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record should be filtered: %q", out)
	}
	if !strings.Contains(out, "[info] indexed | units=3") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestLoggerFactory_CommandLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.DefaultConfig()
	cfg.Logging.Format = "json"
	f := NewLoggerFactory(t.TempDir(), cfg, 0, false)
	defer f.Close()

	f.CommandLogger(&buf).Warn("stale index", "code", "INDEX_STALE")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "stale index" || rec["code"] != "INDEX_STALE" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestLoggerFactory_FileLog(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Logging.File = true
	cfg.Logging.Level = "info"

	var buf bytes.Buffer
	f := NewLoggerFactory(root, cfg, LevelSilent, true)
	logger := f.CommandLogger(&buf)
	logger.Info("build finished", "symbols", 12)
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if buf.Len() != 0 {
		t.Errorf("quiet console should be empty, got %q", buf.String())
	}
	data, err := os.ReadFile(filepath.Join(root, ".hsplit", "logs", "hsplit.log"))
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "build finished | symbols=12") {
		t.Errorf("log file content = %q", data)
	}
}

func TestLoggerFactory_FileLogUnavailable(t *testing.T) {
	root := t.TempDir()
	// A regular file where the data directory should be.
	if err := os.WriteFile(filepath.Join(root, ".hsplit"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	cfg.Logging.File = true

	var buf bytes.Buffer
	f := NewLoggerFactory(root, cfg, slog.LevelWarn, true)
	defer f.Close()
	f.CommandLogger(&buf)

	if !strings.Contains(buf.String(), "file logging disabled") {
		t.Errorf("expected warning, got %q", buf.String())
	}
}
