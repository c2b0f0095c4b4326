package config

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// NewLogger builds the service logger from the LogLevel/LogFormat settings.
func NewLogger(cfg *Init) zerolog.Logger {

	level := zerolog.InfoLevel
	switch strings.ToUpper(cfg.LogLevel) {
	case "TRACE":
		level = zerolog.TraceLevel
	case "DEBUG":
		level = zerolog.DebugLevel
	case "INFO":
		level = zerolog.InfoLevel
	case "WARNING":
		level = zerolog.WarnLevel
	case "ERROR":
		level = zerolog.ErrorLevel
	}

	if strings.EqualFold(cfg.LogFormat, "JSON") {
		return zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	}

	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout}
	return zerolog.New(consoleWriter).Level(level).With().Timestamp().Logger()
}

// ZerologAdapter adapts zerolog to the fasthttp.Logger interface.
type ZerologAdapter struct {
	Logger zerolog.Logger
}

// Printf implements the fasthttp.Logger interface
func (z *ZerologAdapter) Printf(format string, args ...interface{}) {
	z.Logger.Info().Msgf(format, args...)
}
