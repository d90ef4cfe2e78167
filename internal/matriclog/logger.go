// Package matriclog configures structured, per-process logging.
//
// Every component receives a *logrus.Logger (or a *Context wrapping
// one) as a constructor argument; nothing in this package is kept as a
// package-level global, so tests can point each component at its own
// capture buffer.
package matriclog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// Level is a logging level independent of the logrus enum, so callers
// configuring from environment variables don't need the logrus import.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// Config controls how New builds a logger.
type Config struct {
	Level      Level  // minimum level to emit
	Format     string // "json" or "text"
	Service    string // service name; New does not attach it to entries
	AddCaller  bool   // report calling function/line
	TimeFormat string // timestamp layout
}

// DefaultConfig returns a config with sensible defaults for local development.
func DefaultConfig() Config {
	return Config{
		Level:      LevelInfo,
		Format:     "text",
		TimeFormat: time.RFC3339,
	}
}

// outputSplitter routes error/fatal entries to stderr and everything else
// to stdout, so container log collectors can separate the two streams
// without parsing structured fields themselves.
type outputSplitter struct{}

func (outputSplitter) Write(p []byte) (int, error) {
	if bytes.Contains(p, []byte(`level=error`)) || bytes.Contains(p, []byte(`level=fatal`)) ||
		bytes.Contains(p, []byte(`"level":"error"`)) || bytes.Contains(p, []byte(`"level":"fatal"`)) {
		return os.Stderr.Write(p)
	}
	return os.Stdout.Write(p)
}

// New builds a *logrus.Logger from Config. The returned logger has no
// fields set; use NewContext to attach request-scoped fields.
func New(cfg Config) *logrus.Logger {
	logger := logrus.New()

	switch cfg.Level {
	case LevelDebug:
		logger.SetLevel(logrus.DebugLevel)
	case LevelWarn:
		logger.SetLevel(logrus.WarnLevel)
	case LevelError:
		logger.SetLevel(logrus.ErrorLevel)
	case LevelFatal:
		logger.SetLevel(logrus.FatalLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: cfg.TimeFormat})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{TimestampFormat: cfg.TimeFormat, FullTimestamp: true})
	}

	logger.SetReportCaller(cfg.AddCaller)
	logger.SetOutput(outputSplitter{})

	return logger
}

// Context wraps a *logrus.Logger with an immutable set of base fields,
// mirroring the teacher's ContextLogger but without a package-level
// fallback logger: callers must supply one.
type Context struct {
	logger *logrus.Logger
	fields logrus.Fields
}

// NewContext creates a Context around logger with the given base fields.
func NewContext(logger *logrus.Logger, fields map[string]any) *Context {
	base := make(logrus.Fields, len(fields))
	for k, v := range fields {
		base[k] = v
	}
	return &Context{logger: logger, fields: base}
}

func (c *Context) clone(extra logrus.Fields) *Context {
	merged := make(logrus.Fields, len(c.fields)+len(extra))
	for k, v := range c.fields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return &Context{logger: c.logger, fields: merged}
}

// With returns a Context with one additional field.
func (c *Context) With(key string, value any) *Context {
	return c.clone(logrus.Fields{key: value})
}

// WithFields returns a Context with the given fields merged in.
func (c *Context) WithFields(fields map[string]any) *Context {
	extra := make(logrus.Fields, len(fields))
	for k, v := range fields {
		extra[k] = v
	}
	return c.clone(extra)
}

// WithError attaches an error field.
func (c *Context) WithError(err error) *Context {
	return c.With("error", err.Error())
}

// WithArchive attaches the archive (tenant schema) field used across C4-C13.
func (c *Context) WithArchive(archive string) *Context {
	return c.With("archive", archive)
}

// FromRequest copies well-known correlation values out of ctx, if present.
func (c *Context) FromRequest(ctx context.Context) *Context {
	extra := logrus.Fields{}
	for _, key := range []string{"request_id", "trace_id", "job_id"} {
		if v := ctx.Value(key); v != nil {
			extra[key] = v
		}
	}
	return c.clone(extra)
}

func (c *Context) Debug(msg string) { c.logger.WithFields(c.fields).Debug(msg) }
func (c *Context) Info(msg string)  { c.logger.WithFields(c.fields).Info(msg) }
func (c *Context) Warn(msg string)  { c.logger.WithFields(c.fields).Warn(msg) }
func (c *Context) Error(msg string) { c.logger.WithFields(c.fields).Error(msg) }

func (c *Context) Debugf(format string, args ...any) { c.logger.WithFields(c.fields).Debugf(format, args...) }
func (c *Context) Infof(format string, args ...any)  { c.logger.WithFields(c.fields).Infof(format, args...) }
func (c *Context) Warnf(format string, args ...any)  { c.logger.WithFields(c.fields).Warnf(format, args...) }
func (c *Context) Errorf(format string, args ...any) { c.logger.WithFields(c.fields).Errorf(format, args...) }

// Duration logs the duration of fn under the given operation name.
func (c *Context) Duration(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	entry := c.WithFields(map[string]any{
		"operation":   operation,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Error("operation failed")
		return err
	}
	entry.Info("operation completed")
	return nil
}

// RecoverPanic recovers from a panic in a deferred call and logs it with a
// stack trace rather than crashing the worker goroutine that called it.
func (c *Context) RecoverPanic() {
	if r := recover(); r != nil {
		buf := make([]byte, 4096)
		n := runtime.Stack(buf, false)
		c.WithFields(map[string]any{
			"panic": fmt.Sprintf("%v", r),
			"stack": string(buf[:n]),
		}).Error("panic recovered")
	}
}

var _ io.Writer = outputSplitter{}
