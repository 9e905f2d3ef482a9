// internal/utils/logger.go

package utils

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger defines the interface for logging throughout the application.
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Warn(msg string)
	Warnf(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

// LogConfig configures where and how log lines are written.
type LogConfig struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"` // text, json, logfmt
	File       string `yaml:"file" json:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
}

// charmLogger adapts a charmbracelet logger to Logger.
type charmLogger struct {
	l *log.Logger
}

// NewLogger creates a text logger on stderr at info level.
func NewLogger() Logger {
	logger, _ := NewLoggerFromConfig(LogConfig{Level: "info"}, os.Stderr)
	return logger
}

// NewLoggerFromConfig builds a logger writing to w and, when cfg.File is set,
// to a size-rotated log file as well. The returned closer releases the file.
func NewLoggerFromConfig(cfg LogConfig, w io.Writer) (Logger, io.Closer) {
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		w = io.MultiWriter(w, rotator)
		closer = rotator
	}

	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Formatter:       parseFormatter(cfg.Format),
	})

	level, err := log.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = log.InfoLevel
	}
	l.SetLevel(level)

	return &charmLogger{l: l}, closer
}

// NewNopLogger discards everything.
func NewNopLogger() Logger {
	return &charmLogger{l: log.New(io.Discard)}
}

func parseFormatter(format string) log.Formatter {
	switch strings.ToLower(format) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

func (c *charmLogger) Debug(msg string) { c.l.Debug(msg) }

func (c *charmLogger) Debugf(format string, args ...interface{}) {
	c.l.Debug(fmt.Sprintf(format, args...))
}

func (c *charmLogger) Info(msg string) { c.l.Info(msg) }

func (c *charmLogger) Infof(format string, args ...interface{}) {
	c.l.Info(fmt.Sprintf(format, args...))
}

func (c *charmLogger) Warn(msg string) { c.l.Warn(msg) }

func (c *charmLogger) Warnf(format string, args ...interface{}) {
	c.l.Warn(fmt.Sprintf(format, args...))
}

func (c *charmLogger) Error(msg string) { c.l.Error(msg) }

func (c *charmLogger) Errorf(format string, args ...interface{}) {
	c.l.Error(fmt.Sprintf(format, args...))
}

func (c *charmLogger) WithField(key string, value interface{}) Logger {
	return &charmLogger{l: c.l.With(key, value)}
}

// WithFields attaches fields in key order so output is stable.
func (c *charmLogger) WithFields(fields map[string]interface{}) Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]interface{}, 0, 2*len(keys))
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	return &charmLogger{l: c.l.With(kv...)}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
