package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options select how the process logger is built.
type Options struct {
	Level     string
	Format    string
	Timestamp bool
	NoColor   bool
	App       string
	// Out defaults to stderr so stdout stays free for encoded output.
	Out io.Writer
}

// New builds a zerolog logger. Unknown levels fall back to info.
func New(opts Options) zerolog.Logger {
	level, ok := ParseLevel(opts.Level)
	if !ok {
		level = zerolog.InfoLevel
	}
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if opts.Format != FormatJSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    opts.NoColor,
		}
	}
	ctx := zerolog.New(out).Level(level).With()
	if opts.Timestamp {
		ctx = ctx.Timestamp()
	}
	if opts.App != "" {
		ctx = ctx.Str("app", opts.App)
	}
	return ctx.Logger()
}

func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}
