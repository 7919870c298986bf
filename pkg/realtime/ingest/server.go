package ingest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/travigo/transittracker/pkg/http_server"
	"github.com/travigo/transittracker/pkg/metrics"
)

// NewStatusServer exposes the poller's health, counters and prometheus metrics
func NewStatusServer(serviceName string, poller *Poller, collector *metrics.Collector) *fiber.App {
	app := http_server.NewApp()

	app.Get("/health", http_server.HealthHandler(serviceName, func() any {
		return poller.Stats()
	}))
	app.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(poller.Stats())
	})
	http_server.MountMetrics(app, collector.Handler())

	return app
}
