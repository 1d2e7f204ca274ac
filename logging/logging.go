// Package logging builds the application's slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes the desired logging configuration
type Config struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"`
	FilePath       string `yaml:"file_path,omitempty"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb,omitempty"`
	FileMaxFiles   int    `yaml:"file_max_files,omitempty"`
	FileMaxAgeDays int    `yaml:"file_max_age_days,omitempty"`
}

// DefaultConfig returns text logs at info level on stderr
func DefaultConfig() Config {
	return Config{
		Level:          "info",
		Format:         "text",
		FileMaxSizeMB:  10,
		FileMaxFiles:   3,
		FileMaxAgeDays: 14,
	}
}

// New returns a logger for cfg. The closer releases the log file and is nil
// when logging only goes to stderr.
func New(cfg Config) (*slog.Logger, io.Closer) {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter is New with an explicit console writer.
func NewWithWriter(console io.Writer, cfg Config) (*slog.Logger, io.Closer) {
	writer, closer := buildWriter(console, cfg)
	return slog.New(buildHandler(writer, ParseLevel(cfg.Level), cfg.Format)), closer
}

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel converts a level name to slog.Level, defaulting to Info
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ValidLevel reports whether s is a recognized level name
func ValidLevel(s string) bool {
	switch s {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// ValidFormat reports whether s is a recognized format name
func ValidFormat(s string) bool {
	return s == "text" || s == "json"
}

// buildWriter tees the console writer into a rotating file when one is configured.
func buildWriter(console io.Writer, cfg Config) (io.Writer, io.Closer) {
	if cfg.FilePath == "" {
		return console, nil
	}

	defaults := DefaultConfig()
	maxSize := cfg.FileMaxSizeMB
	if maxSize <= 0 {
		maxSize = defaults.FileMaxSizeMB
	}
	maxFiles := cfg.FileMaxFiles
	if maxFiles <= 0 {
		maxFiles = defaults.FileMaxFiles
	}
	maxAge := cfg.FileMaxAgeDays
	if maxAge <= 0 {
		maxAge = defaults.FileMaxAgeDays
	}

	lj := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    maxSize,
		MaxBackups: maxFiles,
		MaxAge:     maxAge,
	}
	return io.MultiWriter(console, lj), lj
}

func buildHandler(w io.Writer, level slog.Leveler, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func (c Config) String() string {
	s := fmt.Sprintf("level=%s format=%s", c.Level, c.Format)
	if c.FilePath != "" {
		s += fmt.Sprintf(" file=%s max_size=%dMB max_files=%d max_age=%dd",
			c.FilePath, c.FileMaxSizeMB, c.FileMaxFiles, c.FileMaxAgeDays)
	}
	return s
}
