package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		NameKey:        "logger",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// NewZapLogger creates a JSON logger writing to writer
func NewZapLogger(writer io.Writer, level Level) *ZapLogger {
	atom := zap.NewAtomicLevelAt(level.zapLevel())
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(writer),
		atom,
	)
	return &ZapLogger{base: zap.New(core), level: atom}
}

// NewDefaultLogger creates a logger that writes to stdout at INFO level
func NewDefaultLogger() *ZapLogger {
	return NewZapLogger(os.Stdout, InfoLevel)
}

// Debug logs a debug-level message
func (l *ZapLogger) Debug(msg string, fields ...Field) {
	l.base.Debug(msg, zapFields(fields)...)
}

// Info logs an info-level message
func (l *ZapLogger) Info(msg string, fields ...Field) {
	l.base.Info(msg, zapFields(fields)...)
}

// Warn logs a warning-level message
func (l *ZapLogger) Warn(msg string, fields ...Field) {
	l.base.Warn(msg, zapFields(fields)...)
}

// Error logs an error-level message
func (l *ZapLogger) Error(msg string, fields ...Field) {
	l.base.Error(msg, zapFields(fields)...)
}

// With creates a child logger with the given fields pre-set
func (l *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{base: l.base.With(zapFields(fields)...), level: l.level}
}

// SetLevel sets the minimum log level
func (l *ZapLogger) SetLevel(level Level) {
	l.level.SetLevel(level.zapLevel())
}

// GetLevel returns the current log level
func (l *ZapLogger) GetLevel() Level {
	return fromZapLevel(l.level.Level())
}

// Sync flushes buffered output.
func (l *ZapLogger) Sync() error {
	return l.base.Sync()
}

// Zap exposes the underlying zap logger for libraries that take one.
func (l *ZapLogger) Zap() *zap.Logger {
	return l.base
}

// Global default logger
var (
	defaultLogger Logger
	defaultMu     sync.RWMutex
	once          sync.Once
)

// DefaultLogger returns the global default logger
func DefaultLogger() Logger {
	once.Do(func() {
		level := InfoLevel
		if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
			level = ParseLevel(levelStr)
		}
		defaultMu.Lock()
		if defaultLogger == nil {
			defaultLogger = NewZapLogger(os.Stdout, level)
		}
		defaultMu.Unlock()
	})
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger sets the global default logger
func SetDefaultLogger(logger Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// StartTimer begins timing an operation
func StartTimer(logger Logger, msg string, fields ...Field) *TimedOperation {
	return &TimedOperation{
		logger: logger,
		msg:    msg,
		start:  time.Now(),
		fields: fields,
	}
}

// End logs the operation with its duration
func (t *TimedOperation) End() {
	t.logger.Info(t.msg, append(t.fields, Latency(time.Since(t.start)))...)
}

// EndDebug logs the operation at debug level with its duration
func (t *TimedOperation) EndDebug() {
	t.logger.Debug(t.msg, append(t.fields, Latency(time.Since(t.start)))...)
}

// EndError logs the operation as an error with its duration
func (t *TimedOperation) EndError(err error) {
	t.logger.Error(t.msg, append(t.fields, Latency(time.Since(t.start)), Error(err))...)
}
