package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Setup builds the process logger writing to stdout.
//   - level: trace, debug, info, warn, error (anything else means info)
//   - format: "pretty" for console output, anything else for JSON lines
func Setup(level, format string) zerolog.Logger {
	return SetupWriter(level, format, os.Stdout)
}

// SetupWriter is Setup with an explicit destination. The report CLI logs to
// stderr so that stdout carries only the rendered report.
func SetupWriter(level, format string, out io.Writer) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(level))

	w := out
	if format == "pretty" {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    !isTerminal(out),
		}
	}

	return zerolog.New(w).With().Timestamp().Caller().Logger()
}

func parseLevel(level string) zerolog.Level {
	if level == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
