package api

import (
	"github.com/adjust/rmq/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/travigo/transittracker/pkg/api/routes"
	"github.com/travigo/transittracker/pkg/api/stats"
	"github.com/travigo/transittracker/pkg/consumer"
	"github.com/travigo/transittracker/pkg/http_server"
	"github.com/travigo/transittracker/pkg/query"
)

type ServerOptions struct {
	ServiceName string

	// Polling reports the poller's counters when it runs in the same process
	Polling func() any

	// QueueConnection enables /queue-stats for the redis bus
	QueueConnection rmq.Connection
}

func SetupServer(tracker *Tracker, options ServerOptions) *fiber.App {
	webApp := http_server.NewApp(
		http_server.StatusError{Err: query.ErrNotFound, Code: fiber.StatusNotFound},
		http_server.StatusError{Err: query.ErrBadRequest, Code: fiber.StatusBadRequest},
	)

	webApp.Get("/health", http_server.HealthHandler(options.ServiceName, options.Polling))
	webApp.Get("/stats", routes.Stats(stats.Sources{
		Repository: tracker.Repository,
		Calendar:   tracker.Calendar,
		Vehicles:   tracker.Vehicles,
		Polling:    options.Polling,
	}))
	http_server.MountMetrics(webApp, tracker.Metrics.Handler())

	if options.QueueConnection != nil {
		webApp.Get("/queue-stats", adaptor.HTTPHandler(consumer.NewQueueStatsHandler(options.QueueConnection)))
	}

	group := webApp.Group("/api")

	routes.RoutesRouter(group.Group("/routes"), tracker.Query)
	routes.SearchRouter(group.Group("/search"), tracker.Query)

	return webApp
}
