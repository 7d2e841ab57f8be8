// Package logger builds the process-wide zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing to stdout at the given level and, when
// file is set, also appending JSON lines to file. The returned closer
// releases the file.
func New(level, file string) (zerolog.Logger, io.Closer, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	console := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}

	var w io.Writer = console
	var closer io.Closer = nopCloser{}
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("open log file: %w", err)
		}
		w = zerolog.MultiLevelWriter(console, f)
		closer = f
	}

	log := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
