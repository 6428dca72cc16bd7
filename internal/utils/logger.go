package utils

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLevel maps a level name (case-insensitive) to a LogLevel.
// Unknown names fall back to INFO.
func ParseLevel(name string) LogLevel {
	for level, n := range levelNames {
		if strings.EqualFold(n, name) {
			return level
		}
	}
	return INFO
}

func (l LogLevel) zap() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case INFO:
		return zapcore.InfoLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.FatalLevel
	}
}

// Logger provides structured logging scoped to one component
type Logger struct {
	level     LogLevel
	component string
	z         *zap.Logger
}

// LoggerConfig configures a logger instance
type LoggerConfig struct {
	Level      LogLevel
	Component  string
	Output     io.Writer
	Colorize   bool
	ShowCaller bool
	TimeFormat string
}

// NewLogger creates a new logger with the given configuration
func NewLogger(config LoggerConfig) *Logger {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.TimeFormat == "" {
		config.TimeFormat = "15:04:05.000"
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(config.TimeFormat)
	if config.Colorize {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(config.Output)),
		zap.NewAtomicLevelAt(config.Level.zap()),
	)

	var opts []zap.Option
	if config.ShowCaller {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(2))
	}

	z := zap.New(core, opts...)
	if config.Component != "" {
		z = z.Named(config.Component)
	}

	return &Logger{
		level:     config.Level,
		component: config.Component,
		z:         z,
	}
}

// NopLogger discards everything.
func NopLogger() *Logger {
	return &Logger{level: FATAL + 1, z: zap.NewNop()}
}

// With returns a new logger with the given fields attached to every entry
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{
		level:     l.level,
		component: l.component,
		z:         l.z.With(zapFields(fields)...),
	}
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level LogLevel) bool {
	return level >= l.level
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Field) {
	l.log(DEBUG, msg, fields...)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Field) {
	l.log(INFO, msg, fields...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Field) {
	l.log(WARN, msg, fields...)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...Field) {
	l.log(ERROR, msg, fields...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

func (l *Logger) log(level LogLevel, msg string, fields ...Field) {
	// Skip if below minimum level
	if level < l.level {
		return
	}

	zf := zapFields(fields)
	switch level {
	case DEBUG:
		l.z.Debug(msg, zf...)
	case INFO:
		l.z.Info(msg, zf...)
	case WARN:
		l.z.Warn(msg, zf...)
	default:
		// FATAL is logged at error level here; Fatal exits on its own.
		l.z.Error(msg, zf...)
	}
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

func (f Field) zap() zap.Field {
	switch v := f.Value.(type) {
	case string:
		return zap.String(f.Key, v)
	case error:
		return zap.NamedError(f.Key, v)
	case time.Duration:
		return zap.Duration(f.Key, v)
	case bool:
		return zap.Bool(f.Key, v)
	case int:
		return zap.Int(f.Key, v)
	case uint64:
		return zap.Uint64(f.Key, v)
	default:
		return zap.Any(f.Key, v)
	}
}

func zapFields(fields []Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = f.zap()
	}
	return out
}

// Helper functions for creating fields
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Uint64(key string, value uint64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

func Hex(key string, value uintptr) Field {
	return Field{Key: key, Value: "0x" + strconv.FormatUint(uint64(value), 16)}
}

func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

var (
	globalMu     sync.RWMutex
	globalLogger = NewLogger(LoggerConfig{
		Level:     WARN,
		Component: "atomics",
		Output:    os.Stderr,
	})
)

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// Global returns the global logger instance
func Global() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}
