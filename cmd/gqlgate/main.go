package main

import (
	"os"

	"github.com/rs/zerolog"

	handlersProxy "github.com/gqlgate/gqlgate/cmd/gqlgate/internal/handlers/proxy"
)

const logPrefix = "main"

func main() {

	// bootstrap logger; Run rebuilds it from the parsed configuration
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	if err := handlersProxy.Run(logger); err != nil {
		logger.Error().Msgf("%s: error: %s", logPrefix, err)
		os.Exit(1)
	}
}
