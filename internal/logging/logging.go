// Package logging configures the zerolog logger the pipeline threads
// through explicitly, rather than writing through zerolog's global
// logger — every component that logs takes a *zerolog.Logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options controls the logger's verbosity and destination.
type Options struct {
	Verbose bool
	Output  io.Writer // defaults to os.Stderr
}

// New builds a console-formatted logger at info level, or debug level
// when Verbose is set.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	writer := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
