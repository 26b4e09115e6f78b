package util

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// exitFunc ends the process after a fatal log; replaced in tests
var exitFunc = os.Exit

// LogLevel represents the logging level
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	LevelPanic
)

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// LogFormat represents the output format
type LogFormat string

const (
	FormatText LogFormat = "text"
	FormatJSON LogFormat = "json"
)

type ctxKey string

const (
	// TraceIDKey is the context key picked up by WithContext
	TraceIDKey ctxKey = "trace_id"
	// ComponentKey is the context key for the emitting component
	ComponentKey ctxKey = "component"
)

// Logger provides structured logging on top of zerolog
type Logger struct {
	mu      sync.RWMutex
	zl      zerolog.Logger
	level   LogLevel
	outputs []Output
}

// LoggerInterface defines the public interface for logging
type LoggerInterface interface {
	Debug(msg string, fields ...Field)
	Debugf(format string, args ...interface{})
	Info(msg string, fields ...Field)
	Infof(format string, args ...interface{})
	Warn(msg string, fields ...Field)
	Warnf(format string, args ...interface{})
	Error(msg string, fields ...Field)
	Errorf(format string, args ...interface{})
	Fatal(msg string, fields ...Field)
	Fatalf(format string, args ...interface{})
	With(fields ...Field) LoggerInterface
	WithContext(ctx context.Context) LoggerInterface
	SetLevel(level LogLevel)
	AddOutput(output Output)
}

// NewLogger creates a new logger with optional console output for debug mode
func NewLogger(levelStr string, logFile string, debugToConsole bool) *Logger {
	logger := &Logger{
		level: parseLogLevel(levelStr),
	}

	if debugToConsole {
		logger.AddOutput(NewConsoleOutput(os.Stderr, FormatText))
	}

	if logFile != "" {
		fileOutput, err := NewFileOutput(logFile, FormatText)
		if err != nil {
			panic(fmt.Sprintf("Failed to create file output for %s: %v", logFile, err))
		}
		logger.AddOutput(fileOutput)
	} else if !debugToConsole {
		panic("Log file must be specified when not in debug mode")
	}

	return logger
}

// NewWriterLogger creates a logger writing to w only. Used by tests.
func NewWriterLogger(levelStr string, w io.Writer, format LogFormat) *Logger {
	logger := &Logger{level: parseLogLevel(levelStr)}
	logger.AddOutput(NewConsoleOutput(w, format))
	return logger
}

// parseLogLevel parses a log level string
func parseLogLevel(levelStr string) LogLevel {
	switch strings.ToLower(levelStr) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	case "panic":
		return LevelPanic
	default:
		return LevelInfo
	}
}

// toZerologLevel converts LogLevel to the zerolog equivalent
func toZerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelFatal:
		return zerolog.FatalLevel
	case LevelPanic:
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

// rebuild recreates the zerolog logger after the outputs change.
// Callers must hold l.mu.
func (l *Logger) rebuild() {
	writers := make([]io.Writer, 0, len(l.outputs))
	for _, out := range l.outputs {
		writers = append(writers, out)
	}

	var w io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		w = writers[0]
	default:
		w = zerolog.MultiLevelWriter(writers...)
	}

	l.zl = zerolog.New(w).With().Timestamp().Logger().Level(toZerologLevel(l.level))
}

// log writes a log entry to all outputs
func (l *Logger) log(level LogLevel, msg string, fields ...Field) {
	l.mu.RLock()
	minLevel, zl := l.level, l.zl
	l.mu.RUnlock()
	if minLevel > level {
		return
	}

	var event *zerolog.Event
	switch level {
	case LevelDebug:
		event = zl.Debug()
	case LevelInfo:
		event = zl.Info()
	case LevelWarn:
		event = zl.Warn()
	case LevelError:
		event = zl.Error()
	default:
		// Fatal and panic are logged unleveled with a severity marker
		event = zl.Log().Str("severity", strings.ToUpper(toZerologLevel(level).String()))
	}

	for _, field := range fields {
		event = event.Interface(field.Key, field.Value)
	}
	event.Msg(msg)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Field) {
	l.log(LevelDebug, msg, fields...)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(LevelDebug, fmt.Sprintf(format, args...))
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, fields...)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, msg, fields...)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(LevelWarn, fmt.Sprintf(format, args...))
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...Field) {
	l.log(LevelError, msg, fields...)
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(LevelError, fmt.Sprintf(format, args...))
}

// Fatal logs a fatal error and exits
func (l *Logger) Fatal(msg string, fields ...Field) {
	l.log(LevelFatal, msg, fields...)
	exitFunc(1)
}

// Fatalf logs a formatted fatal error and exits
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.log(LevelFatal, fmt.Sprintf(format, args...))
	exitFunc(1)
}

// With returns a new logger with additional fields
func (l *Logger) With(fields ...Field) LoggerInterface {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ctx := l.zl.With()
	for _, field := range fields {
		ctx = ctx.Interface(field.Key, field.Value)
	}

	child := &Logger{
		level:   l.level,
		outputs: l.outputs,
	}
	child.zl = ctx.Logger()
	return child
}

// WithContext returns a logger with context values
func (l *Logger) WithContext(ctx context.Context) LoggerInterface {
	fields := []Field{}

	if traceID := ctx.Value(TraceIDKey); traceID != nil {
		fields = append(fields, Field{Key: string(TraceIDKey), Value: traceID})
	}
	if component := ctx.Value(ComponentKey); component != nil {
		fields = append(fields, Field{Key: string(ComponentKey), Value: component})
	}

	return l.With(fields...)
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.zl = l.zl.Level(toZerologLevel(level))
}

// AddOutput adds a new output destination
func (l *Logger) AddOutput(output Output) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outputs = append(l.outputs, output)
	l.rebuild()
}

// Close closes every output
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, out := range l.outputs {
		if err := out.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
