package ports

import (
	"fmt"
	"strings"
)

// LogLevel is the minimum severity a logger writes.
type LogLevel int

const (
	// LevelDebug covers per-stage details: field loads, table sizes, state changes.
	LevelDebug LogLevel = iota
	// LevelInfo covers run progress reported by the orchestrator.
	LevelInfo
	// LevelWarn covers problems the run survives, such as a failed snapshot.
	LevelWarn
	// LevelError covers failures that abort the run.
	LevelError
	// LevelQuiet suppresses everything.
	LevelQuiet
)

var levelNames = map[LogLevel]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelQuiet: "quiet",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unknown"
}

// ParseLogLevel parses a level name. Matching is case-insensitive, "warning"
// is accepted for warn and the empty string means info.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "quiet":
		return LevelQuiet, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger writes translatable messages. msg is a go-l10n key used as a
// format string for args.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent returns a logger tagging every line with component.
	// Stages log through component loggers, mostly at debug level.
	WithComponent(component string) Logger
}
