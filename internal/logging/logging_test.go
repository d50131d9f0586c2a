package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewManager_DefaultConfig(t *testing.T) {
	var buf bytes.Buffer
	mgr, logger := NewManager(DefaultConfig(), &buf)
	defer mgr.Close() //nolint:errcheck

	logger.Info("hello", slog.String("component", "test"))
	logger.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "msg=hello") || !strings.Contains(out, "component=test") {
		t.Errorf("expected text record, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug record written at info level")
	}
}

func TestNewManager_JSON(t *testing.T) {
	var buf bytes.Buffer
	mgr, logger := NewManager(Config{Level: "debug", Format: "json"}, &buf)
	defer mgr.Close() //nolint:errcheck

	logger.Debug("resolved", slog.String("host", "https://dn1.example.com"))

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "resolved" || rec["host"] != "https://dn1.example.com" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestManager_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	mgr, logger := NewManager(Config{Level: "info", Format: "text"}, &buf)
	defer mgr.Close() //nolint:errcheck
	derived := logger.With(slog.String("component", "audius"))

	if derived.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug to be disabled")
	}

	mgr.SetLevel("debug")
	if !derived.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected derived logger to follow the level change")
	}
	derived.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Errorf("expected debug record after SetLevel, got %q", buf.String())
	}

	mgr.SetLevel("error")
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info to be disabled at error level")
	}
}

func TestManager_FileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "audiusq.log")
	var buf bytes.Buffer

	mgr, logger := NewManager(Config{
		Level:          "info",
		Format:         "json",
		FilePath:       logFile,
		FileMaxSizeMB:  1,
		FileMaxFiles:   1,
		FileMaxAgeDays: 1,
	}, &buf)

	logger.Info("hello from test")

	if err := mgr.Close(); err != nil {
		t.Fatalf("closing manager: %v", err)
	}

	data, err := os.ReadFile(logFile) //nolint:gosec // temp dir
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !bytes.Contains(data, []byte("hello from test")) {
		t.Errorf("expected record in log file, got %q", data)
	}
	if !strings.Contains(buf.String(), "hello from test") {
		t.Error("expected record on the stream as well")
	}
}

func TestManager_CloseIdempotent(t *testing.T) {
	mgr, _ := NewManager(DefaultConfig(), &bytes.Buffer{})
	if err := mgr.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		cfg     Config
		wantErr bool
	}{
		{DefaultConfig(), false},
		{Config{Level: "WARN", Format: "JSON"}, false},
		{Config{Level: "warning", Format: "text"}, false},
		{Config{Level: "trace", Format: "text"}, true},
		{Config{Level: "info", Format: "xml"}, true},
		{Config{}, true},
	}
	for _, tt := range tests {
		if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
			t.Errorf("Validate(%+v) error = %v, wantErr %v", tt.cfg, err, tt.wantErr)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in  string
		out slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"unknown", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.out {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.out)
		}
	}
}

func TestConfig_String(t *testing.T) {
	cfg := Config{Level: "info", Format: "text"}
	if s := cfg.String(); s != "level=info format=text" {
		t.Errorf("unexpected string: %s", s)
	}

	cfg.FilePath = "/var/log/audiusq.log"
	cfg.FileMaxSizeMB = 50
	cfg.FileMaxFiles = 5
	cfg.FileMaxAgeDays = 7
	want := "level=info format=text file=/var/log/audiusq.log max_size=50MB max_files=5 max_age=7d"
	if s := cfg.String(); s != want {
		t.Errorf("got %q, want %q", s, want)
	}
}
