// Package logging builds the process logger. Records go to stderr, so
// stdout stays free for command output, and optionally to a rotated file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes the desired logging setup.
type Config struct {
	Level          string `yaml:"level" json:"level"`
	Format         string `yaml:"format" json:"format"`
	FilePath       string `yaml:"file" json:"file,omitempty"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb" json:"file_max_size_mb,omitempty"`
	FileMaxFiles   int    `yaml:"file_max_files" json:"file_max_files,omitempty"`
	FileMaxAgeDays int    `yaml:"file_max_age_days" json:"file_max_age_days,omitempty"`
}

// DefaultConfig logs info and above as text.
func DefaultConfig() Config {
	return Config{
		Level:          "info",
		Format:         "text",
		FileMaxSizeMB:  20,
		FileMaxFiles:   3,
		FileMaxAgeDays: 14,
	}
}

// Validate rejects unknown levels and formats.
func (c Config) Validate() error {
	if !ValidLevel(c.Level) {
		return fmt.Errorf("invalid log level %q (want debug, info, warn or error)", c.Level)
	}
	if !ValidFormat(c.Format) {
		return fmt.Errorf("invalid log format %q (want text or json)", c.Format)
	}
	return nil
}

func (c Config) String() string {
	s := fmt.Sprintf("level=%s format=%s", c.Level, c.Format)
	if c.FilePath != "" {
		s += fmt.Sprintf(" file=%s max_size=%dMB max_files=%d max_age=%dd",
			c.FilePath, c.FileMaxSizeMB, c.FileMaxFiles, c.FileMaxAgeDays)
	}
	return s
}

// Manager owns the logger and the rotated log file behind it.
type Manager struct {
	mu    sync.Mutex
	level *slog.LevelVar
	file  io.Closer
}

// NewManager builds a logger from cfg writing to out, or to stderr when out
// is nil.
func NewManager(cfg Config, out io.Writer) (*Manager, *slog.Logger) {
	if out == nil {
		out = os.Stderr
	}
	m := &Manager{level: &slog.LevelVar{}}
	m.level.Set(parseLevel(cfg.Level))

	w := out
	if cfg.FilePath != "" {
		lj := newFileWriter(cfg)
		w = io.MultiWriter(out, lj)
		m.file = lj
	}

	return m, slog.New(buildHandler(w, m.level, cfg.Format))
}

// SetLevel changes the level of every logger derived from the manager.
func (m *Manager) SetLevel(level string) {
	m.level.Set(parseLevel(level))
}

// Close releases the log file, if any. It is safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return err
}

func newFileWriter(cfg Config) *lumberjack.Logger {
	defaults := DefaultConfig()
	return &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    positive(cfg.FileMaxSizeMB, defaults.FileMaxSizeMB),
		MaxBackups: positive(cfg.FileMaxFiles, defaults.FileMaxFiles),
		MaxAge:     positive(cfg.FileMaxAgeDays, defaults.FileMaxAgeDays),
	}
}

func buildHandler(w io.Writer, level slog.Leveler, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// parseLevel maps a level name to a slog.Level, defaulting to info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidLevel reports whether s names a supported level.
func ValidLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// ValidFormat reports whether s names a supported format.
func ValidFormat(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "json":
		return true
	}
	return false
}

func positive(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
