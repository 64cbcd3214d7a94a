// Package logger is the service's structured logging facade over zap.
package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Logger defines the minimal logging interface used across the service.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger
	With(fields map[string]interface{}) Logger
}

// Keys shared by every line logged on behalf of a chat request.
const (
	FieldRequestID = "requestId"
	FieldMode      = "mode"
	FieldProvider  = "provider"
)

// Request identifies the chat request a log line or error belongs to. Empty parts are omitted.
type Request struct {
	ID       string
	Mode     string
	Provider string
}

// Fields returns the set parts of r under the shared keys.
func (r Request) Fields() map[string]interface{} {
	fields := make(map[string]interface{}, 3)
	if r.ID != "" {
		fields[FieldRequestID] = r.ID
	}
	if r.Mode != "" {
		fields[FieldMode] = r.Mode
	}
	if r.Provider != "" {
		fields[FieldProvider] = r.Provider
	}
	return fields
}

// Annotate copies the set parts of r into meta, allocating it when nil.
func (r Request) Annotate(meta map[string]interface{}) map[string]interface{} {
	if meta == nil {
		meta = make(map[string]interface{}, 3)
	}
	for k, v := range r.Fields() {
		meta[k] = v
	}
	return meta
}

// ForRequest scopes l to one request.
func ForRequest(l Logger, r Request) Logger {
	return l.With(r.Fields())
}

// New builds a zap logger. format "json" selects the production encoder; output is
// "stdout", "stderr" or a file path. Unknown levels fall back to info.
func New(levelStr, format, output string) *zap.Logger {
	level, err := zapcore.ParseLevel(levelStr)
	if err != nil {
		level = zapcore.InfoLevel
	}

	cfg := zap.NewDevelopmentConfig()
	if format == "json" {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	if output != "" {
		cfg.OutputPaths = []string{output}
	}

	built, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return built
}

type zapLogger struct {
	base *zap.Logger
}

func (z *zapLogger) Debug(msg string, fields map[string]interface{}) {
	z.base.Debug(msg, toZap(fields)...)
}

func (z *zapLogger) Info(msg string, fields map[string]interface{}) {
	z.base.Info(msg, toZap(fields)...)
}

func (z *zapLogger) Warn(msg string, fields map[string]interface{}) {
	z.base.Warn(msg, toZap(fields)...)
}

func (z *zapLogger) Error(msg string, fields map[string]interface{}) {
	z.base.Error(msg, toZap(fields)...)
}

func (z *zapLogger) WithFields(fields map[string]interface{}) Logger {
	if len(fields) == 0 {
		return z
	}
	return &zapLogger{base: z.base.With(toZap(fields)...)}
}

func (z *zapLogger) WithError(err error) Logger {
	return &zapLogger{base: z.base.With(zap.Error(err))}
}

func (z *zapLogger) With(fields map[string]interface{}) Logger {
	return z.WithFields(fields)
}

// toZap keeps error values as errors so they render under their own key.
func toZap(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}

// NewZapAdapter wraps an existing *zap.Logger.
func NewZapAdapter(l *zap.Logger) Logger {
	return &zapLogger{base: l}
}

// NewTestLogger routes output through t.Log.
func NewTestLogger(t testing.TB) Logger {
	return &zapLogger{base: zaptest.NewLogger(t)}
}

func NewNoOpLogger() Logger {
	return &zapLogger{base: zap.NewNop()}
}
