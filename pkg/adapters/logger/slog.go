package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ideamans/go-l10n"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/user/framesync/pkg/ports"
)

// SlogLogger writes translated messages through log/slog.
// The default handler is tint's coloured text handler on stderr.
type SlogLogger struct {
	logger *slog.Logger
	quiet  bool
}

// NewSlog creates a logger with a tint handler writing to stderr.
func NewSlog(level ports.LogLevel) *SlogLogger {
	return NewSlogWriter(os.Stderr, level, !isatty.IsTerminal(os.Stderr.Fd()))
}

// NewSlogWriter creates a tint-backed logger writing to w.
func NewSlogWriter(w io.Writer, level ports.LogLevel, noColor bool) *SlogLogger {
	h := tint.NewHandler(w, &tint.Options{
		Level:      slogLevel(level),
		TimeFormat: "15:04:05",
		NoColor:    noColor,
	})
	return &SlogLogger{logger: slog.New(h), quiet: level >= ports.LevelQuiet}
}

// NewSlogJSON creates a logger emitting one JSON object per line to w.
func NewSlogJSON(w io.Writer, level ports.LogLevel) *SlogLogger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel(level)})
	return &SlogLogger{logger: slog.New(h), quiet: level >= ports.LevelQuiet}
}

func slogLevel(level ports.LogLevel) slog.Level {
	switch level {
	case ports.LevelDebug:
		return slog.LevelDebug
	case ports.LevelWarn:
		return slog.LevelWarn
	case ports.LevelError, ports.LevelQuiet:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debug logs a debug message.
func (l *SlogLogger) Debug(msg string, args ...interface{}) {
	l.log(slog.LevelDebug, msg, args...)
}

// Info logs an informational message.
func (l *SlogLogger) Info(msg string, args ...interface{}) {
	l.log(slog.LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *SlogLogger) Warn(msg string, args ...interface{}) {
	l.log(slog.LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *SlogLogger) Error(msg string, args ...interface{}) {
	l.log(slog.LevelError, msg, args...)
}

// WithComponent returns a logger that adds a component attribute.
func (l *SlogLogger) WithComponent(component string) ports.Logger {
	return &SlogLogger{
		logger: l.logger.With(slog.String("component", component)),
		quiet:  l.quiet,
	}
}

func (l *SlogLogger) log(level slog.Level, msg string, args ...interface{}) {
	if l.quiet {
		return
	}
	l.logger.Log(context.Background(), level, l10n.F(msg, args...))
}

var _ ports.Logger = (*SlogLogger)(nil)
