package ingest

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/config"
	"github.com/travigo/transittracker/pkg/eventbus"
	"github.com/travigo/transittracker/pkg/metrics"
	"github.com/travigo/transittracker/pkg/redis_client"
	"github.com/travigo/transittracker/pkg/util"
	"github.com/urfave/cli/v2"
)

const queueCleanerInterval = time.Minute

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Polls the GTFS-realtime vehicle positions feed and publishes them to the event bus",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the feed poller",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "path to a YAML config file",
					},
				},
				Action: func(c *cli.Context) error {
					conf, err := config.Load(c.String("config"))
					if err != nil {
						return err
					}
					if err := conf.RequireFeed(); err != nil {
						return err
					}

					ctx, cancel := util.SignalContext(c.Context)
					defer cancel()

					var redisConnection *redis_client.Connection
					if conf.Bus.Driver == config.DriverRedis || conf.Ingest.ChangeDetection.Enabled {
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

					if redisBus, ok := bus.(*eventbus.RedisBus); ok {
						go redisBus.StartCleaner(ctx, queueCleanerInterval)
					}

					collector := metrics.NewCollector()
					poller := NewIngest(conf, bus, redisConnection, collector)

					app := NewStatusServer(conf.Server.ServiceName, poller, collector)
					go func() {
						if err := app.Listen(conf.Server.Listen); err != nil {
							log.Error().Err(err).Msg("Status server stopped")
						}
					}()

					poller.Run(ctx)

					return app.Shutdown()
				},
			},
		},
	}
}

// NewIngest wires the fetcher, the optional change detector and the publisher into a poller
func NewIngest(conf *config.Config, bus eventbus.Publisher, redisConnection *redis_client.Connection, collector *metrics.Collector) *Poller {
	var detector *ChangeDetector
	if conf.Ingest.ChangeDetection.Enabled {
		if redisConnection == nil {
			log.Warn().Msg("Change detection needs redis, publishing every position")
		} else {
			detector = NewChangeDetector(redisConnection.Client, conf.Ingest.ChangeDetection)
		}
	}

	poller := NewPoller(NewFetcher(conf.Feed), NewPublisher(bus, detector), conf.Polling.Interval(), conf.Polling.InitialDelay()).
		WithMetrics(collector)
	poller.SetEnabled(conf.Polling.Enabled)

	if backlog, ok := bus.(Backlog); ok {
		poller.WithBacklog(backlog)
	}

	log.Info().
		Str("feed", conf.Feed.BaseURL+conf.Feed.PositionsPath).
		Dur("interval", conf.Polling.Interval()).
		Bool("enabled", conf.Polling.Enabled).
		Bool("changedetection", detector != nil).
		Msg("Ingest configured")

	return poller
}
