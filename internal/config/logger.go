package config

import (
    "io"
    "os"
    "strings"
    "time"

    "github.com/rs/zerolog"
)

// NewLogger builds the application logger.  Format "json" writes one JSON
// object per line; anything else uses zerolog's human-readable console
// writer.  An unknown level falls back to info and is reported once.
func NewLogger(cfg LogConfig) zerolog.Logger {
    return newLogger(cfg, os.Stdout)
}

func newLogger(cfg LogConfig, out io.Writer) zerolog.Logger {
    w := out
    if !strings.EqualFold(cfg.Format, "json") {
        w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
    }
    logger := zerolog.New(w).With().Timestamp().Logger()

    level := zerolog.InfoLevel
    if cfg.Level != "" {
        if parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil {
            level = parsed
        } else {
            logger.Warn().Str("invalid_level", cfg.Level).Msg("Invalid log level, using default 'info'")
        }
    }
    return logger.Level(level)
}
