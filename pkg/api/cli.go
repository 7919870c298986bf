package api

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/config"
	"github.com/travigo/transittracker/pkg/eventbus"
	"github.com/travigo/transittracker/pkg/metrics"
	"github.com/travigo/transittracker/pkg/realtime/ingest"
	"github.com/travigo/transittracker/pkg/redis_client"
	"github.com/travigo/transittracker/pkg/util"
	"github.com/urfave/cli/v2"
)

var configFlag = &cli.StringFlag{
	Name:  "config",
	Usage: "path to a YAML config file",
}

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "tracker",
		Usage: "Consumes vehicle positions and serves the arrivals API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the tracker and its web API",
				Flags: []cli.Flag{configFlag},
				Action: func(c *cli.Context) error {
					conf, err := config.Load(c.String("config"))
					if err != nil {
						return err
					}

					return run(c.Context, conf, false)
				},
			},
		},
	}
}

func RegisterStandaloneCLI() *cli.Command {
	return &cli.Command{
		Name:  "standalone",
		Usage: "Runs the feed poller and the tracker in one process",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the poller, the tracker and its web API",
				Flags: []cli.Flag{configFlag},
				Action: func(c *cli.Context) error {
					conf, err := config.Load(c.String("config"))
					if err != nil {
						return err
					}
					if err := conf.RequireFeed(); err != nil {
						return err
					}

					return run(c.Context, conf, true)
				},
			},
		},
	}
}

func run(parent context.Context, conf *config.Config, withIngest bool) error {
	ctx, cancel := util.SignalContext(parent)
	defer cancel()

	collector := metrics.NewCollector()

	tracker, err := LoadTracker(conf, collector)
	if err != nil {
		return err
	}

	var redisConnection *redis_client.Connection
	if conf.Bus.Driver == config.DriverRedis || (withIngest && conf.Ingest.ChangeDetection.Enabled) {
		redisConnection, err = redis_client.Connect(ctx, conf.Redis)
		if err != nil {
			return err
		}
		defer redisConnection.Close()
	}

	bus, err := eventbus.Open(ctx, conf, redisConnection)
	if err != nil {
		return err
	}
	defer bus.Close()

	options := ServerOptions{ServiceName: conf.Server.ServiceName}

	if redisBus, ok := bus.(*eventbus.RedisBus); ok {
		options.QueueConnection = redisBus.Connection().QueueConnection
	}

	if withIngest {
		poller := ingest.NewIngest(conf, bus, redisConnection, collector)
		options.Polling = func() any { return poller.Stats() }

		go poller.Run(ctx)
	}

	webApp := SetupServer(tracker, options)
	go func() {
		if err := webApp.Listen(conf.Server.Listen); err != nil {
			log.Error().Err(err).Msg("Web API stopped")
			cancel()
		}
	}()

	if err := tracker.Run(ctx, bus); err != nil {
		return err
	}

	return webApp.Shutdown()
}
