// Package logging configures zerolog for the board server and adapts it to
// the board.Logger interface used by the library.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/coregx/board"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger from level and format
// ("console" or "json") and returns it.
func Setup(level, format string, out io.Writer) (zerolog.Logger, error) {
	if out == nil {
		out = os.Stderr
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger
	return logger, nil
}

// Adapter implements board.Logger on top of a zerolog.Logger.
type Adapter struct {
	logger zerolog.Logger
}

var _ board.Logger = (*Adapter)(nil)

// NewAdapter wraps logger. Library messages are tagged component=board.
func NewAdapter(logger zerolog.Logger) *Adapter {
	return &Adapter{logger: logger.With().Str("component", "board").Logger()}
}

// Debugf implements board.Logger.
func (a *Adapter) Debugf(format string, args ...interface{}) {
	a.logger.Debug().Msgf(format, args...)
}

// Infof implements board.Logger.
func (a *Adapter) Infof(format string, args ...interface{}) {
	a.logger.Info().Msgf(format, args...)
}

// Warnf implements board.Logger.
func (a *Adapter) Warnf(format string, args ...interface{}) {
	a.logger.Warn().Msgf(format, args...)
}

// Errorf implements board.Logger.
func (a *Adapter) Errorf(format string, args ...interface{}) {
	a.logger.Error().Msgf(format, args...)
}

// Info implements board.Logger.
func (a *Adapter) Info(message string) {
	a.logger.Info().Msg(message)
}
