// Package logging builds the process slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects level and destination. With Filename empty, records go to
// Stdout only.
type Config struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	AddSource  bool   `yaml:"add_source" json:"add_source"`
	Filename   string `yaml:"filename" json:"filename"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	Compress   bool   `yaml:"compress" json:"compress"`
	// FileOnly suppresses Stdout when a file is configured. The terminal UI
	// sets it so log records never reach the screen.
	FileOnly bool `yaml:"file_only" json:"file_only"`
}

// DefaultConfig logs JSON at info level to stdout.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "json",
		MaxSizeMB:  10,
		MaxAgeDays: 14,
		MaxBackups: 3,
	}
}

// New returns the logger and a closer for the rotating file, if any.
func New(cfg Config, stdout io.Writer) (*slog.Logger, func() error) {
	if stdout == nil {
		stdout = os.Stdout
	}
	closer := func() error { return nil }

	var w io.Writer = stdout
	if cfg.Filename != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSizeMB,
			MaxAge:     cfg.MaxAgeDays,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		}
		closer = lj.Close
		if cfg.FileOnly {
			w = lj
		} else {
			w = io.MultiWriter(stdout, lj)
		}
	} else if cfg.FileOnly {
		w = io.Discard
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
					src.File = filepath.Base(src.File)
				}
			}
			return a
		},
	}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h), closer
}

// Init builds the logger and installs it as the slog default.
func Init(cfg Config) (*slog.Logger, func() error) {
	logger, closer := New(cfg, os.Stdout)
	slog.SetDefault(logger)
	return logger, closer
}

// ParseLevel maps debug, info, warn and error; anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
