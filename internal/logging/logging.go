package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"relampago-bridge/internal/config"
)

// New creates a zerolog logger configured from config. Supports
// "trace" | "debug" | "info" | "warn" | "error" levels and
// "json" | "console" formats.
func New(cfg config.LogConfig) *zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var base zerolog.Logger
	if strings.ToLower(cfg.Format) == "console" {
		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		base = zerolog.New(out).With().Timestamp().Logger()
	} else {
		base = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return &base
}
