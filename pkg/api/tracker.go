package api

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/config"
	"github.com/travigo/transittracker/pkg/consumer"
	"github.com/travigo/transittracker/pkg/correlation"
	"github.com/travigo/transittracker/pkg/eta"
	"github.com/travigo/transittracker/pkg/eventbus"
	"github.com/travigo/transittracker/pkg/gtfs"
	"github.com/travigo/transittracker/pkg/gtfsindex"
	"github.com/travigo/transittracker/pkg/metrics"
	"github.com/travigo/transittracker/pkg/query"
	"github.com/travigo/transittracker/pkg/realtime/vehiclestore"
	"github.com/travigo/transittracker/pkg/servicecalendar"
)

const janitorInterval = 5 * time.Minute

// Tracker holds the static schedule, the live vehicle store and the query service on top
type Tracker struct {
	Repository gtfsindex.Repository
	Calendar   *servicecalendar.Service
	Vehicles   *vehiclestore.Store
	Query      *query.Service
	Consumer   *consumer.Consumer
	Metrics    *metrics.Collector

	retention time.Duration
}

// LoadTracker reads the GTFS archive named in the config and builds a tracker over it
func LoadTracker(conf *config.Config, collector *metrics.Collector) (*Tracker, error) {
	startTime := time.Now()

	dataset, err := gtfs.NewLoader(conf.Agency.Bounds).LoadZip(conf.GTFS.ZipPath)
	if err != nil {
		return nil, err
	}

	index := gtfsindex.New()
	index.LoadDataset(dataset)

	collector.SetGTFSLoadDuration(time.Since(startTime))
	log.Info().Str("path", conf.GTFS.ZipPath).Str("duration", time.Since(startTime).String()).Msg("GTFS loaded")

	return NewTracker(conf, index, collector), nil
}

func NewTracker(conf *config.Config, repository gtfsindex.Repository, collector *metrics.Collector) *Tracker {
	calendar := servicecalendar.New(repository, conf.Agency.Location)
	vehicles := vehiclestore.New()

	engine := eta.NewEngine(repository, eta.Config{
		AverageSpeedKmh: conf.ETA.AverageSpeedKmh,
		Buffer:          conf.ETA.Buffer,
		MinETASeconds:   conf.ETA.MinETASeconds,
		OffRouteMeters:  conf.ETA.OffRouteMeters,
	})
	correlator := correlation.NewCorrelator(repository, vehicles, engine, correlation.Config{
		MaxDistanceMeters: conf.ETA.MaxDistanceMeters,
		Freshness:         conf.ETA.Freshness(),
	})

	return &Tracker{
		Repository: repository,
		Calendar:   calendar,
		Vehicles:   vehicles,
		Query:      query.NewService(repository, calendar, correlator),
		Consumer:   consumer.New(vehicles, collector),
		Metrics:    collector,
		retention:  conf.Vehicles.Retention(),
	}
}

// Run consumes vehicle positions into the store until ctx is cancelled
func (t *Tracker) Run(ctx context.Context, subscriber eventbus.Subscriber) error {
	go t.Vehicles.StartJanitor(ctx, t.retention, janitorInterval)

	return t.Consumer.Run(ctx, subscriber)
}
