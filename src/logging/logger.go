package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// sessionPrefixLen is how much of a session id may appear in logs
const sessionPrefixLen = 8

// Config holds logging configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, pretty
}

// Setup initializes the global logger
func Setup(cfg Config) {
	SetupWithWriter(cfg, os.Stdout)
}

// SetupWithWriter initializes the global logger writing to out
func SetupWithWriter(cfg Config, out io.Writer) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	zerolog.TimeFieldFormat = time.RFC3339

	output := out
	if cfg.Format == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
			NoColor:    false,
		}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// NewLogger creates a component-specific logger
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// ComponentLogger returns a logger for a specific component with request ID
func ComponentLogger(component, requestID string) zerolog.Logger {
	return log.With().
		Str("component", component).
		Str("request_id", requestID).
		Logger()
}

// SessionFields adds the username and a truncated session id to an event.
// Full session ids are bearer material and never reach the logs.
func SessionFields(e *zerolog.Event, username, sessionID string) *zerolog.Event {
	return e.Str("username", username).Str("session", Redact(sessionID))
}

// Redact keeps the first few characters of a secret
func Redact(secret string) string {
	if len(secret) <= sessionPrefixLen {
		return secret
	}
	return secret[:sessionPrefixLen]
}
