package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Logger represents a named logger with helper methods.
type Logger struct {
	name     string
	zl       atomic.Pointer[zerolog.Logger]
	warnOnce sync.Once
}

// writerHolder wraps an io.Writer so that atomic.Value always stores the same
// concrete type, avoiding the "inconsistently typed value" panic when changing
// from *os.File to *bytes.Buffer (or any other writer) in tests or runtime config.
type writerHolder struct {
	w io.Writer
}

var (
	// globalDebug holds global debug enablement.
	globalDebug atomic.Bool

	// serviceDebug stores per-service debug overrides.
	serviceDebug sync.Map // map[string]*atomic.Bool

	// loggers caches created named loggers.
	loggers sync.Map // map[string]*Logger

	// outputWriter holds the destination for all loggers (wrapped in writerHolder).
	outputWriter atomic.Value // writerHolder

	// jsonOutput switches every logger to zerolog JSON lines.
	jsonOutput atomic.Bool
)

func init() {
	outputWriter.Store(writerHolder{w: os.Stderr})
	zerolog.TimestampFunc = func() time.Time { return Timestamp() }
}

// ForService returns (and memoizes) a named logger for the given service.
// The name SHOULD be stable (e.g. "api", "gate").
func ForService(name string) *Logger {
	if name == "" {
		name = "unknown"
	}
	if l, ok := loggers.Load(name); ok {
		return l.(*Logger)
	}
	logger := &Logger{name: name}
	logger.rebuild()
	actual, _ := loggers.LoadOrStore(name, logger)
	return actual.(*Logger)
}

func (l *Logger) rebuild() {
	zl := newZerolog(l.name, outputWriter.Load().(writerHolder).w)
	l.zl.Store(&zl)
}

func newZerolog(name string, w io.Writer) zerolog.Logger {
	if jsonOutput.Load() {
		return zerolog.New(w).With().Timestamp().Str("service", name).Logger()
	}
	cw := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: "2006/01/02 15:04:05.000000",
		FormatLevel: func(i any) string {
			if i == nil {
				return ""
			}
			return strings.ToUpper(fmt.Sprint(i))
		},
		FormatMessage: func(i any) string {
			if i == nil {
				return "[" + name + ">]"
			}
			return fmt.Sprintf("[%s>] %v", name, i)
		},
	}
	return zerolog.New(cw).With().Timestamp().Logger()
}

// SetGlobalDebug enables or disables debug logging globally.
func SetGlobalDebug(enabled bool) {
	globalDebug.Store(enabled)
}

// GlobalDebug returns whether global debug logging is enabled.
func GlobalDebug() bool {
	return globalDebug.Load()
}

// EnableDebugFor enables debug logging for a specific service.
func EnableDebugFor(name string) {
	if name == "" {
		return
	}
	val, _ := serviceDebug.LoadOrStore(name, &atomic.Bool{})
	val.(*atomic.Bool).Store(true)
}

// DisableDebugFor disables debug logging for a specific service.
func DisableDebugFor(name string) {
	if name == "" {
		return
	}
	if val, ok := serviceDebug.Load(name); ok {
		val.(*atomic.Bool).Store(false)
	}
}

// DebugEnabledFor returns whether debug is enabled for the given service (either
// globally or specifically for the service).
func DebugEnabledFor(name string) bool {
	if globalDebug.Load() {
		return true
	}
	if val, ok := serviceDebug.Load(name); ok {
		return val.(*atomic.Bool).Load()
	}
	return false
}

// SetOutput sets the output writer for all loggers, existing ones included.
func SetOutput(w io.Writer) {
	if w == nil {
		return
	}
	outputWriter.Store(writerHolder{w: w})
	rebuildAll()
}

// SetJSON switches between console lines and JSON lines carrying a
// "service" field.
func SetJSON(enabled bool) {
	jsonOutput.Store(enabled)
	rebuildAll()
}

func rebuildAll() {
	loggers.Range(func(_, v any) bool {
		v.(*Logger).rebuild()
		return true
	})
}

// Name returns the service name of the logger.
func (l *Logger) Name() string { return l.name }

// Zerolog exposes the underlying zerolog logger for structured fields.
func (l *Logger) Zerolog() *zerolog.Logger {
	return l.zl.Load()
}

func (l *Logger) event(level string) *zerolog.Event {
	zl := l.zl.Load()
	switch level {
	case LevelWarn:
		return zl.Warn()
	case LevelError:
		return zl.Error()
	case LevelDebug:
		return zl.Debug()
	}
	return zl.Info()
}

// Infof logs an informational message with fmt.Sprintf semantics.
func (l *Logger) Infof(format string, args ...any) {
	l.event(LevelInfo).Msg(fmt.Sprintf(format, args...))
}

// Warnf logs a warning message.
func (l *Logger) Warnf(format string, args ...any) {
	l.warnOnce.Do(func() {
		l.event(LevelWarn).Msg("warnings active for this logger")
	})
	l.event(LevelWarn).Msg(fmt.Sprintf(format, args...))
}

// Errorf logs an error message.
func (l *Logger) Errorf(format string, args ...any) {
	l.event(LevelError).Msg(fmt.Sprintf(format, args...))
}

// Debugf logs a debug message if debug is enabled (globally or for this logger's service).
func (l *Logger) Debugf(format string, args ...any) {
	if !DebugEnabledFor(l.name) {
		return
	}
	l.event(LevelDebug).Msg(fmt.Sprintf(format, args...))
}

// Timestamp returns current time (exposed to allow deterministic overrides in tests).
var Timestamp = func() time.Time {
	return time.Now()
}

// Level names as they appear in console output.
const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelDebug = "DEBUG"
)
