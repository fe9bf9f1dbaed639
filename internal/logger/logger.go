// Package logger provides the zerolog loggers used by the editor binaries.
package logger

import (
	"io"
	"os"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	zpkgerrors "github.com/rs/zerolog/pkgerrors"
)

type stackTracer interface{ StackTrace() pkgerrors.StackTrace }

// New returns a JSON logger on stdout tagged with service.
// Call sites should use .Stack() on error events to include stacks.
func New(service string) zerolog.Logger {
	return NewWithWriter(service, os.Stdout)
}

// NewWithWriter is New writing to w.
func NewWithWriter(service string, w io.Writer) zerolog.Logger {
	// Stacks from pkg/errors are marshalled as-is; plain errors get one attached.
	zerolog.ErrorStackMarshaler = func(err error) interface{} {
		if _, ok := err.(stackTracer); !ok {
			err = pkgerrors.WithStack(err)
		}
		return zpkgerrors.MarshalStack(err)
	}

	return zerolog.New(w).With().
		Str("service", service).
		Timestamp().
		Logger()
}

// Console returns a human-readable logger for CLI use at the given level.
// Unknown levels fall back to info.
func Console(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: true}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
