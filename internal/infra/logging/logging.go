// Package logging builds the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// New returns a timestamped logger writing to out. format is "json" or
// "console"; level is any zerolog level name.
func New(level, format string, out io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("logging: level %q: %w", level, err)
	}

	var w io.Writer
	switch format {
	case "", "json":
		w = out
	case "console":
		w = zerolog.ConsoleWriter{Out: out, NoColor: true}
	default:
		return zerolog.Nop(), fmt.Errorf("logging: unknown format %q", format)
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "healthassist").Logger(), nil
}
