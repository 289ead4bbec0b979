package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// LogLevel represents the log level
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// Config represents logger configuration
type Config struct {
	Level LogLevel
	// Pretty enables the human-readable console writer. When nil the
	// writer is pretty only if Output is a terminal.
	Pretty *bool
	// Output defaults to os.Stderr so command output on stdout stays clean.
	Output io.Writer
}

var defaultLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// ParseLevel maps free-form level names to LogLevel, defaulting to warn.
func ParseLevel(raw string) LogLevel {
	switch LogLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case DebugLevel:
		return DebugLevel
	case InfoLevel:
		return InfoLevel
	case ErrorLevel:
		return ErrorLevel
	default:
		return WarnLevel
	}
}

// New builds a logger from config without touching the global default.
func New(config Config) zerolog.Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	pretty := false
	if config.Pretty != nil {
		pretty = *config.Pretty
	} else if f, ok := config.Output.(*os.File); ok {
		pretty = isatty.IsTerminal(f.Fd())
	}

	var writer io.Writer = config.Output
	if pretty {
		writer = zerolog.ConsoleWriter{
			Out:        config.Output,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(writer).Level(zerologLevel(config.Level)).With().Timestamp().Logger()
}

// Configure replaces the default logger.
func Configure(config Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	defaultLogger = New(config)
	return defaultLogger
}

// Default returns the logger installed by Configure.
func Default() zerolog.Logger {
	return defaultLogger
}

// Nop returns a disabled logger for tests and embedding.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// WithField adds a field to the default logger
func WithField(key string, value interface{}) zerolog.Logger {
	return defaultLogger.With().Interface(key, value).Logger()
}

func zerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.WarnLevel
	}
}
