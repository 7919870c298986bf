package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the process metrics on a private registry. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	Polls             prometheus.Counter
	PollFailures      prometheus.Counter
	VehiclesPublished prometheus.Counter
	VehiclesSkipped   prometheus.Counter
	PublishErrors     prometheus.Counter
	MessagesConsumed  prometheus.Counter
	DecodeErrors      prometheus.Counter
	VehiclesTracked   prometheus.Gauge
	PollDuration      prometheus.Histogram
	GTFSLoadDuration  prometheus.Gauge
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		Polls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_polls_total",
			Help: "Total feed poll cycles run.",
		}),
		PollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_poll_failures_total",
			Help: "Poll cycles that failed to fetch or decode the feed.",
		}),
		VehiclesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_vehicles_published_total",
			Help: "Vehicle positions published to the bus.",
		}),
		VehiclesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_vehicles_unchanged_total",
			Help: "Vehicle positions not republished because they had not changed.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_publish_errors_total",
			Help: "Vehicle positions that failed to publish.",
		}),
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_messages_consumed_total",
			Help: "Messages taken off the bus.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_decode_errors_total",
			Help: "Consumed messages dropped because they could not be decoded.",
		}),
		VehiclesTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_vehicles_tracked",
			Help: "Vehicles currently held in the store.",
		}),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_poll_duration_seconds",
			Help:    "Duration of a full poll cycle.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		GTFSLoadDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_gtfs_load_duration_seconds",
			Help: "Time taken by the last GTFS load.",
		}),
	}

	registry.MustRegister(
		c.Polls, c.PollFailures,
		c.VehiclesPublished, c.VehiclesSkipped, c.PublishErrors,
		c.MessagesConsumed, c.DecodeErrors, c.VehiclesTracked,
		c.PollDuration, c.GTFSLoadDuration,
	)

	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObservePoll(duration time.Duration, failed bool) {
	if c == nil {
		return
	}

	c.Polls.Inc()
	c.PollDuration.Observe(duration.Seconds())
	if failed {
		c.PollFailures.Inc()
	}
}

func (c *Collector) Published(count int, errors int, skipped int) {
	if c == nil {
		return
	}

	c.VehiclesPublished.Add(float64(count))
	c.PublishErrors.Add(float64(errors))
	c.VehiclesSkipped.Add(float64(skipped))
}

func (c *Collector) Consumed(decoded bool) {
	if c == nil {
		return
	}

	c.MessagesConsumed.Inc()
	if !decoded {
		c.DecodeErrors.Inc()
	}
}

func (c *Collector) SetVehiclesTracked(count int) {
	if c == nil {
		return
	}

	c.VehiclesTracked.Set(float64(count))
}

func (c *Collector) SetGTFSLoadDuration(duration time.Duration) {
	if c == nil {
		return
	}

	c.GTFSLoadDuration.Set(duration.Seconds())
}
