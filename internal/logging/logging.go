package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Level = zerolog.Level

const (
	Debug = zerolog.DebugLevel
	Info  = zerolog.InfoLevel
	Warn  = zerolog.WarnLevel
	Error = zerolog.ErrorLevel
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type Config struct {
	Level  Level
	Format Format
	Output io.Writer
}

// Logger wraps zerolog.Logger with the printf-style helpers used across the
// code base.
type Logger struct {
	zerolog.Logger
}

// ParseLevel parses a level name; the empty string means info.
func ParseLevel(s string) (Level, error) {
	if s == "" {
		return Info, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return Info, fmt.Errorf("invalid log level %q", s)
	}
	return lvl, nil
}

func NewLogger(config Config) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	if config.Format != FormatJSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly, NoColor: true}
	}

	l := zerolog.New(out).Level(config.Level).With().Timestamp().Logger()
	return &Logger{l}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zerolog.Nop()}
}

// With returns a child logger carrying an additional string field.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{l.Logger.With().Str(key, value).Logger()}
}

func (l *Logger) Debugf(format string, args ...any) {
	l.Logger.Debug().Msgf(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.Logger.Info().Msgf(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.Logger.Warn().Msgf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.Logger.Error().Msgf(format, args...)
}
