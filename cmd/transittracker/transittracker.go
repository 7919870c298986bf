package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/api"
	"github.com/travigo/transittracker/pkg/gtfsindex"
	"github.com/travigo/transittracker/pkg/realtime/ingest"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

func main() {
	if os.Getenv("TRACKER_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("TRACKER_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "transittracker",
		Description: "Real-time bus arrivals from a GTFS schedule and a GTFS-realtime vehicle positions feed",

		Commands: []*cli.Command{
			ingest.RegisterCLI(),
			api.RegisterCLI(),
			api.RegisterStandaloneCLI(),
			gtfsindex.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
