// Package logger provides a small leveled, structured logger used
// throughout nsnetsim: the kernel cleanup stack, topology scheduler and
// daemon supervisors all derive a child logger via WithField/WithFields rather
// than writing to stdout directly.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a case-insensitive level name, accepting "WARNING" as
// an alias for WARN.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger is a leveled logger that carries a mode tag and a set of
// structured fields, both inherited by children created with
// WithField/WithFields/WithMode.
type Logger struct {
	level  LogLevel
	logger *log.Logger
	fields map[string]interface{}
	mode   string
}

// Config configures a Logger built with NewWithConfig.
type Config struct {
	Level  LogLevel
	Output io.Writer
	Format string // reserved for future "json" support; only "text" today
	Mode   string
}

// New returns a Logger at INFO level writing text lines to stdout.
func New() *Logger {
	return NewWithConfig(Config{
		Level:  INFO,
		Output: os.Stdout,
		Format: "text",
	})
}

// NewWithConfig builds a Logger from an explicit Config.
func NewWithConfig(config Config) *Logger {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Logger{
		level:  config.Level,
		logger: log.New(config.Output, "", 0),
		fields: make(map[string]interface{}),
		mode:   config.Mode,
	}
}

// SetMode sets this logger's mode tag in place (e.g. "server", "cli").
func (l *Logger) SetMode(mode string) {
	l.mode = mode
}

// GetMode returns this logger's mode tag.
func (l *Logger) GetMode() string {
	return l.mode
}

// SetLevel changes the minimum level this logger emits, in place.
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

// GetLevel returns the minimum level this logger emits.
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// IsDebugEnabled reports whether Debug calls would be emitted.
func (l *Logger) IsDebugEnabled() bool {
	return l.level <= DEBUG
}

// IsInfoEnabled reports whether Info calls would be emitted.
func (l *Logger) IsInfoEnabled() bool {
	return l.level <= INFO
}

// WithFields returns a new Logger carrying the given key/value pairs in
// addition to any fields already on l. An odd trailing key without a
// value is dropped.
func (l *Logger) WithFields(keyVals ...interface{}) *Logger {
	child := &Logger{
		level:  l.level,
		logger: l.logger,
		fields: make(map[string]interface{}, len(l.fields)+len(keyVals)/2),
		mode:   l.mode,
	}
	for k, v := range l.fields {
		child.fields[k] = v
	}
	for i := 0; i+1 < len(keyVals); i += 2 {
		key := fmt.Sprintf("%v", keyVals[i])
		child.fields[key] = keyVals[i+1]
	}
	return child
}

// WithField is a one-pair shorthand for WithFields.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(key, value)
}

// WithMode returns a new Logger with the given mode tag, preserving
// existing fields.
func (l *Logger) WithMode(mode string) *Logger {
	child := l.WithFields()
	child.mode = mode
	return child
}

func (l *Logger) Debug(msg string, keyVals ...interface{}) { l.log(DEBUG, msg, keyVals...) }
func (l *Logger) Info(msg string, keyVals ...interface{})  { l.log(INFO, msg, keyVals...) }
func (l *Logger) Warn(msg string, keyVals ...interface{})  { l.log(WARN, msg, keyVals...) }
func (l *Logger) Error(msg string, keyVals ...interface{}) { l.log(ERROR, msg, keyVals...) }

// Fatal logs at ERROR then terminates the process.
func (l *Logger) Fatal(msg string, keyVals ...interface{}) {
	l.log(ERROR, msg, keyVals...)
	os.Exit(1)
}

func (l *Logger) log(level LogLevel, msg string, keyVals ...interface{}) {
	if level < l.level {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02T15:04:05.000Z07:00"))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("]")
	if l.mode != "" {
		b.WriteString(" [")
		b.WriteString(l.mode)
		b.WriteString("]")
	}
	b.WriteString(" ")
	b.WriteString(msg)

	for _, k := range sortedKeys(l.fields) {
		fmt.Fprintf(&b, " %s=%s", k, formatValue(l.fields[k]))
	}
	for i := 0; i+1 < len(keyVals); i += 2 {
		fmt.Fprintf(&b, " %v=%s", keyVals[i], formatValue(keyVals[i+1]))
	}

	l.logger.Println(b.String())
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatValue renders a field value the way it should appear after '=' in
// a log line: strings with whitespace are quoted, everything else uses its
// natural %v form.
func formatValue(v interface{}) string {
	if v == nil {
		return "<nil>"
	}
	if err, ok := v.(error); ok {
		return formatValue(err.Error())
	}
	if d, ok := v.(time.Duration); ok {
		return d.String()
	}
	if s, ok := v.(string); ok {
		if strings.ContainsAny(s, " \t\n") {
			return fmt.Sprintf("%q", s)
		}
		return s
	}
	return fmt.Sprintf("%v", v)
}
