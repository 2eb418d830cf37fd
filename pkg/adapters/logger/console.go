// Package logger provides ports.Logger backends.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
	"github.com/user/framesync/pkg/ports"
)

const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

var levelColors = map[ports.LogLevel]string{
	ports.LevelDebug: colorGray,
	ports.LevelWarn:  colorYellow,
	ports.LevelError: colorRed,
}

// ConsoleLogger prints one translated line per message. Debug and info go to
// out, warn and error to errOut.
type ConsoleLogger struct {
	level     ports.LogLevel
	component string
	color     bool
	out       io.Writer
	errOut    io.Writer
}

// NewConsole creates a console logger on stdout/stderr, coloured when stdout
// is a terminal.
func NewConsole(level ports.LogLevel) *ConsoleLogger {
	fd := os.Stdout.Fd()
	return NewConsoleWriter(os.Stdout, os.Stderr, level, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

// NewConsoleWriter creates a console logger on explicit writers.
func NewConsoleWriter(out, errOut io.Writer, level ports.LogLevel, color bool) *ConsoleLogger {
	return &ConsoleLogger{level: level, color: color, out: out, errOut: errOut}
}

func (l *ConsoleLogger) Debug(msg string, args ...interface{}) {
	l.log(ports.LevelDebug, msg, args...)
}

func (l *ConsoleLogger) Info(msg string, args ...interface{}) {
	l.log(ports.LevelInfo, msg, args...)
}

func (l *ConsoleLogger) Warn(msg string, args ...interface{}) {
	l.log(ports.LevelWarn, msg, args...)
}

func (l *ConsoleLogger) Error(msg string, args ...interface{}) {
	l.log(ports.LevelError, msg, args...)
}

// WithComponent returns a copy that prefixes lines with [component].
func (l *ConsoleLogger) WithComponent(component string) ports.Logger {
	c := *l
	c.component = component
	return &c
}

func (l *ConsoleLogger) log(level ports.LogLevel, msg string, args ...interface{}) {
	if level < l.level {
		return
	}

	line := l10n.F(msg, args...)
	if l.component != "" {
		prefix := "[" + l.component + "]"
		if l.color {
			prefix = colorCyan + prefix + colorReset
		}
		line = prefix + " " + line
	}
	if c, ok := levelColors[level]; ok && l.color {
		line = c + line + colorReset
	}

	w := l.out
	if level >= ports.LevelWarn {
		w = l.errOut
	}
	fmt.Fprintln(w, line)
}

var _ ports.Logger = (*ConsoleLogger)(nil)
