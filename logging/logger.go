// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing callers to plug
// any structured logger. It also offers a richer CompanionLogger with
// contextual helpers (component, call, memory session) and domain specific
// logging helpers for tool dispatch, remote partner calls and ingestion.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled
// from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch s {
	case "debug":
		return LogLevelDebug
	case "warn":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger defines the minimal logging interface used across the backend.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// CompanionLogger wraps slog.Logger adding contextual cloning helpers and
// domain convenience methods. It is cheap to copy via With* methods.
type CompanionLogger struct {
	logger    *slog.Logger
	level     LogLevel
	component string
	callID    string
	sessionID string
}

// LoggerConfig configures construction of a CompanionLogger.
type LoggerConfig struct {
	Level     LogLevel
	Format    string // json or text
	Output    io.Writer
	AddSource bool
	Component string
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stdout}
}

// NewLogger builds a CompanionLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *CompanionLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return &CompanionLogger{logger: slog.New(handler), level: cfg.Level, component: cfg.Component}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *CompanionLogger) clone() *CompanionLogger {
	nl := *l
	return &nl
}

// WithComponent sets the logical component (gateway, ingest, runner, etc.).
func (l *CompanionLogger) WithComponent(c string) *CompanionLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithCall attaches the call (connection) identifier.
func (l *CompanionLogger) WithCall(callID string) *CompanionLogger {
	nl := l.clone()
	nl.callID = callID
	return nl
}

// WithSession attaches the memory session identifier.
func (l *CompanionLogger) WithSession(sessionID string) *CompanionLogger {
	nl := l.clone()
	nl.sessionID = sessionID
	return nl
}

func (l *CompanionLogger) buildAttrs(extra ...any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(extra)/2+3)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.callID != "" {
		attrs = append(attrs, slog.String("call_id", l.callID))
	}
	if l.sessionID != "" {
		attrs = append(attrs, slog.String("session_id", l.sessionID))
	}
	for i := 0; i+1 < len(extra); i += 2 {
		key, ok := extra[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, slog.Any(key, extra[i+1]))
	}
	return attrs
}

func (l *CompanionLogger) log(level slog.Level, allowed bool, msg string, args ...any) {
	if !allowed {
		return
	}
	l.logger.LogAttrs(context.Background(), level, msg, l.buildAttrs(args...)...)
}

// Debug logs at debug level.
func (l *CompanionLogger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, l.level <= LogLevelDebug, msg, args...)
}

// Info logs at info level.
func (l *CompanionLogger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, l.level <= LogLevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *CompanionLogger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, l.level <= LogLevelWarn, msg, args...)
}

// Error logs at error level.
func (l *CompanionLogger) Error(msg string, args ...any) {
	l.log(slog.LevelError, l.level <= LogLevelError, msg, args...)
}

// LogRemoteCall records latency and outcome of a remote partner call.
func (l *CompanionLogger) LogRemoteCall(partner, method, path string, dur time.Duration, err error) {
	attrs := l.buildAttrs("partner", partner, "method", method, "path", path, "duration_ms", dur.Milliseconds())
	level := slog.LevelInfo
	msg := "remote call completed"
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		level = slog.LevelError
		msg = "remote call failed"
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// LogToolDispatch records execution details for a tool invocation.
func (l *CompanionLogger) LogToolDispatch(tool string, dur time.Duration, err error) {
	attrs := l.buildAttrs("tool_name", tool, "duration_ms", dur.Milliseconds())
	level := slog.LevelInfo
	msg := "tool dispatch completed"
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		level = slog.LevelError
		msg = "tool dispatch failed"
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// LogIngestion records the outcome of a memory ingestion dispatch.
func (l *CompanionLogger) LogIngestion(sessionID string, entries int, dur time.Duration, err error) {
	attrs := l.buildAttrs("session_id", sessionID, "entries", entries, "duration_ms", dur.Milliseconds())
	level := slog.LevelInfo
	msg := "ingestion completed"
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		level = slog.LevelError
		msg = "ingestion failed"
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// NoOpLogger discards all log messages. Useful for testing or when logging
// is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}
