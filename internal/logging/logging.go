// Package logging provides the leveled logger used across bridgelet.
//
// Loggers are plain values configured through an explicit Options struct;
// there is no process-wide mutable logging state. Scoped loggers for a
// loaded extension are derived with WithPrefix.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents the severity level of a log message.
type Level int

const (
	// LevelDebug is for detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level. Unknown strings map to LevelInfo.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug
	case "info", "INFO":
		return LevelInfo
	case "warn", "WARN", "warning", "WARNING":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// ANSI sequences used when color is forced on.
const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorCyan   = "\x1b[36m"
	colorDim    = "\x1b[2m"
)

// Options configures a Logger.
type Options struct {
	// Level is the minimum level to output.
	Level Level
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
	// Prefix is prepended in brackets to all log messages.
	Prefix string
	// DisableTimestamps omits the timestamp from each line.
	DisableTimestamps bool
	// ForceColor colorizes level names even when not writing to a terminal.
	ForceColor bool
}

// DefaultOptions returns the default logger options.
func DefaultOptions() Options {
	return Options{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// Logger provides leveled, prefixed logging.
type Logger struct {
	mu       sync.Mutex
	level    Level
	output   io.Writer
	prefix   string
	fields   map[string]any
	noStamp  bool
	color    bool
	disabled bool
}

// New creates a logger with the given options.
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	return &Logger{
		level:   opts.Level,
		output:  opts.Output,
		prefix:  opts.Prefix,
		fields:  make(map[string]any),
		noStamp: opts.DisableTimestamps,
		color:   opts.ForceColor,
	}
}

// WithPrefix returns a new logger with the given prefix, sharing output and level.
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{
		level:    l.level,
		output:   l.output,
		prefix:   prefix,
		fields:   l.fields,
		noStamp:  l.noStamp,
		color:    l.color,
		disabled: l.disabled,
	}
}

// WithField returns a new logger with the given field added.
func (l *Logger) WithField(key string, value any) *Logger {
	newFields := make(map[string]any, len(l.fields)+1)
	for k, v := range l.fields {
		newFields[k] = v
	}
	newFields[key] = value

	return &Logger{
		level:    l.level,
		output:   l.output,
		prefix:   l.prefix,
		fields:   newFields,
		noStamp:  l.noStamp,
		color:    l.color,
		disabled: l.disabled,
	}
}

// Prefix returns the logger's prefix.
func (l *Logger) Prefix() string {
	return l.prefix
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetTimestamps toggles the per-line timestamp.
func (l *Logger) SetTimestamps(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.noStamp = !enabled
}

// SetColor toggles forced level colorization.
func (l *Logger) SetColor(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = enabled
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(LevelDebug, msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	l.log(LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.log(LevelError, msg, args...)
}

// log writes a log message if the level is enabled.
func (l *Logger) log(level Level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.disabled || level < l.level {
		return
	}

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	var line string
	if !l.noStamp {
		line = time.Now().Format("2006-01-02T15:04:05.000") + " "
	}

	line += "[" + l.colorize(level) + "]"

	if l.prefix != "" {
		line += " [" + l.prefix + "]"
	}
	line += " " + msg

	if len(l.fields) > 0 {
		line += " {"
		first := true
		for k, v := range l.fields {
			if !first {
				line += ", "
			}
			line += fmt.Sprintf("%s=%v", k, v)
			first = false
		}
		line += "}"
	}

	line += "\n"

	_, _ = l.output.Write([]byte(line))
}

// colorize wraps a level name in ANSI color codes when color is enabled.
func (l *Logger) colorize(level Level) string {
	name := level.String()
	if !l.color {
		return name
	}
	switch level {
	case LevelDebug:
		return colorDim + name + colorReset
	case LevelWarn:
		return colorYellow + name + colorReset
	case LevelError:
		return colorRed + name + colorReset
	default:
		return colorCyan + name + colorReset
	}
}

// Null is a logger that discards all output.
var Null = &Logger{disabled: true}
