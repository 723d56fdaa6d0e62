// Package logging builds the [slog.Logger] used by the contactbook binary.
//
// Three formats are supported: "text" and "json" use the standard slog
// handlers, "pretty" uses tint with colour enabled only when the output is a
// terminal. Logs go to stderr by default so they never mix with menu output.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Options selects level, destination and format.
type Options struct {
	// Level is one of debug, info, warn or error. Empty means info.
	Level string `yaml:"level"`

	// File receives logs in append mode. Empty means stderr, "-" means
	// stdout and os.DevNull discards everything.
	File string `yaml:"file"`

	// Format is text, json or pretty. Empty means text.
	Format string `yaml:"format"`
}

// ParseLevel maps a level name to its [slog.Level].
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, true
	case "debug":
		return slog.LevelDebug, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// ValidFormat reports whether s names a supported format.
func ValidFormat(s string) bool {
	switch strings.ToLower(s) {
	case "", "text", "json", "pretty":
		return true
	}
	return false
}

// New returns a logger for options and a closer for its destination.
//
// Invalid settings never fail: the offending option is reset to its default
// and the returned logger reports the problem as its first line. The closer
// only releases a log file; for the standard streams it does nothing.
func New(options Options) (*slog.Logger, io.Closer) {
	level, ok := ParseLevel(options.Level)
	if !ok {
		bad := options.Level
		options.Level = ""
		logger, closer := New(options)
		logger.Warn("could not parse logger level", "level", bad)
		return logger, closer
	}

	var output io.Writer
	var closer io.Closer = nopCloser{}
	switch options.File {
	case "":
		output = os.Stderr
	case "-":
		output = os.Stdout
	case os.DevNull:
		return slog.New(slog.DiscardHandler), closer
	default:
		f, err := os.OpenFile(options.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			options.File = ""
			logger, closer := New(options)
			logger.Warn("could not open logger file", "error", err)
			return logger, closer
		}
		output = f
		closer = f
	}

	return NewWithWriter(output, level, options.Format), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewWithWriter returns a logger writing to w. Unknown formats fall back to text.
func NewWithWriter(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts))
	case "pretty":
		out := w
		if f, ok := w.(*os.File); ok {
			// translates ANSI escapes on Windows consoles
			out = colorable.NewColorable(f)
		}
		return slog.New(tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    !isTerminal(w),
		}))
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts))
	default:
		logger := slog.New(slog.NewTextHandler(w, opts))
		logger.Warn("could not parse logger format", "format", format)
		return logger
	}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
