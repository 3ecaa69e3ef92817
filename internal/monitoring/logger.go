// Package monitoring - logger.go provides structured logging via zerolog.
//
// DESIGN: Thin construction layer over zerolog with:
//   - Configurable level, format (json/console), output (stdout/file)
//   - Global() sets the default logger for the entire application
package monitoring

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoggerConfig configures the engine logger.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // trace|debug|info|warn|error
	Format string `yaml:"format"` // "json" or "console"
	Output string `yaml:"output"` // "stdout", "stderr", or a file path
}

// New builds a zerolog.Logger from the given configuration. Unknown
// levels fall back to info; unopenable output files fall back to
// stdout.
func New(cfg LoggerConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var writer io.Writer
	switch cfg.Output {
	case "stdout", "":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			writer = os.Stdout
		} else {
			writer = f
		}
	}

	if cfg.Format == "console" {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: "15:04:05"}
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// Global installs the configured logger as the global zerolog logger.
func Global(cfg LoggerConfig) {
	log.Logger = New(cfg)
}
