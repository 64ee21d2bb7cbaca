// Command roost shows and provisions the broker topology of an endpoint.
//
// The endpoint is configured with a YAML file given by --config and with
// ROOST_* environment variables, a .env file in the working directory is
// loaded first.
package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/casualjim/roost/pkg/slogx"
	_ "github.com/joho/godotenv/autoload"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
)

var log zerolog.Logger

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
	log = zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: slog.LevelInfo}),
	))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("roost failed", slogx.Error(err))
		os.Exit(1)
	}
}
