package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// LogLevel enumerates severity tiers.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

func (l LogLevel) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "UNKNOWN"
}

// ParseLogLevel converts "debug", "info", "warn" or "error" to a LogLevel.
// Anything else maps to INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case DEBUG:
		return slog.LevelDebug
	case WARN:
		return slog.LevelWarn
	case ERROR, FATAL:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger is a levelled logger on top of slog used across the pipeline.
// Messages are printf-formatted; structured fields are attached with With.
type Logger struct {
	mu    sync.Mutex
	level LogLevel
	inner *slog.Logger
	file  *os.File
}

var (
	globalLogger *Logger
	logOnce      sync.Once
)

// LogOptions configures InitLogger.
type LogOptions struct {
	Level  LogLevel
	Format string // "text" (default) or "json"
	File   string // optional tee target; stdout is always written
}

// InitLogger creates the singleton logger. Call once at startup.
func InitLogger(opts LogOptions) *Logger {
	logOnce.Do(func() {
		writers := []io.Writer{os.Stdout}

		var f *os.File
		if opts.File != "" {
			var err error
			f, err = os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err == nil {
				writers = append(writers, f)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not open log file %s: %v\n", opts.File, err)
			}
		}
		globalLogger = NewLogger(io.MultiWriter(writers...), opts.Level, opts.Format)
		globalLogger.file = f
		slog.SetDefault(globalLogger.inner)
	})
	return globalLogger
}

// NewLogger builds a standalone logger writing to w. Tests use it to
// capture output without touching the singleton.
func NewLogger(w io.Writer, level LogLevel, format string) *Logger {
	hopts := &slog.HandlerOptions{Level: level.slogLevel()}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, hopts)
	} else {
		h = slog.NewTextHandler(w, hopts)
	}
	return &Logger{level: level, inner: slog.New(h)}
}

// L returns the global logger, initialising a stdout-only INFO logger if
// InitLogger has not been called.
func L() *Logger {
	if globalLogger == nil {
		return InitLogger(LogOptions{Level: INFO})
	}
	return globalLogger
}

// With returns a child logger that attaches args to every entry.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{level: l.level, inner: l.inner.With(args...)}
}

// Close closes the log file, if any.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}

func (l *Logger) log(lvl LogLevel, format string, args ...any) {
	if lvl < l.level {
		return
	}
	l.inner.Log(context.Background(), lvl.slogLevel(), fmt.Sprintf(format, args...))

	if lvl == FATAL {
		os.Exit(1)
	}
}

func (l *Logger) Debug(f string, a ...any) { l.log(DEBUG, f, a...) }
func (l *Logger) Info(f string, a ...any)  { l.log(INFO, f, a...) }
func (l *Logger) Warn(f string, a ...any)  { l.log(WARN, f, a...) }
func (l *Logger) Error(f string, a ...any) { l.log(ERROR, f, a...) }
func (l *Logger) Fatal(f string, a ...any) { l.log(FATAL, f, a...) }
