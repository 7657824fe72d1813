// Package log configures the global zerolog logger.
//
// Output goes to stderr so interactive prompts and rendered tables keep
// stdout to themselves. When stderr is a terminal the console writer is
// used; otherwise events are emitted as JSON lines.
package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Logger is the root logger. Packages derive child loggers from it via
// WithComponent and WithInstance.
var Logger = zerolog.Nop()

// Init configures the root logger. Level is one of debug, info, warn,
// error; anything else falls back to info. Passing a nil writer selects
// stderr with terminal detection.
func Init(level string, out io.Writer) {
	zerolog.SetGlobalLevel(parseLevel(level))

	if out == nil {
		if isatty.IsTerminal(os.Stderr.Fd()) {
			out = zerolog.ConsoleWriter{
				Out:        os.Stderr,
				TimeFormat: time.Kitchen,
			}
		} else {
			out = os.Stderr
		}
	}

	Logger = zerolog.New(out).With().Timestamp().Logger()
}

// WithComponent returns a child logger tagged with the component name.
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithInstance returns a child logger tagged with an instance name.
func WithInstance(name string) zerolog.Logger {
	return Logger.With().Str("instance", name).Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
