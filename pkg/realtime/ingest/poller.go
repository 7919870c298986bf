package ingest

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/metrics"
)

// MaxQueueBacklog is the number of unconsumed messages above which a poll cycle is skipped
const MaxQueueBacklog = 40000

// Backlog reports how many published messages are still waiting to be consumed
type Backlog interface {
	ReadyCount() (int64, error)
}

type Stats struct {
	TotalPolls      int64 `json:"totalPolls"`
	Enabled         bool  `json:"enabled"`
	IntervalSeconds int   `json:"intervalSeconds"`
}

// Poller runs one fetch, transform and publish cycle per interval
type Poller struct {
	source    FeedSource
	publisher *Publisher
	backlog   Backlog
	metrics   *metrics.Collector

	interval     time.Duration
	initialDelay time.Duration

	enabled    atomic.Bool
	totalPolls atomic.Int64

	now func() time.Time
}

func NewPoller(source FeedSource, publisher *Publisher, interval time.Duration, initialDelay time.Duration) *Poller {
	poller := &Poller{
		source:       source,
		publisher:    publisher,
		interval:     interval,
		initialDelay: initialDelay,
		now:          time.Now,
	}
	poller.enabled.Store(true)

	return poller
}

func (p *Poller) WithMetrics(collector *metrics.Collector) *Poller {
	p.metrics = collector
	return p
}

// WithBacklog makes cycles hold back while the bus has more than MaxQueueBacklog messages waiting
func (p *Poller) WithBacklog(backlog Backlog) *Poller {
	p.backlog = backlog
	return p
}

func (p *Poller) SetEnabled(enabled bool) {
	if enabled {
		log.Info().Msg("Polling enabled")
	} else {
		log.Info().Msg("Polling disabled")
	}

	p.enabled.Store(enabled)
}

func (p *Poller) Enabled() bool {
	return p.enabled.Load()
}

func (p *Poller) Stats() Stats {
	return Stats{
		TotalPolls:      p.totalPolls.Load(),
		Enabled:         p.enabled.Load(),
		IntervalSeconds: int(p.interval / time.Second),
	}
}

// Run polls after the initial delay and then every interval until ctx is cancelled
func (p *Poller) Run(ctx context.Context) {
	log.Info().
		Str("interval", p.interval.String()).
		Str("initialdelay", p.initialDelay.String()).
		Msg("Starting feed poller")

	timer := time.NewTimer(p.initialDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.Poll(ctx)

		select {
		case <-ctx.Done():
			log.Info().Int64("polls", p.totalPolls.Load()).Msg("Feed poller stopped")
			return
		case <-ticker.C:
		}
	}
}

// Poll runs a single cycle. Failures are logged and reported, never fatal.
func (p *Poller) Poll(ctx context.Context) (PublishResult, error) {
	if !p.enabled.Load() {
		log.Debug().Msg("Polling is disabled, skipping this cycle")
		return PublishResult{}, nil
	}

	pollNumber := p.totalPolls.Add(1)
	startTime := time.Now()

	if p.backlog != nil {
		if ready, err := p.backlog.ReadyCount(); err == nil && ready >= MaxQueueBacklog {
			log.Warn().Int64("poll", pollNumber).Int64("queuesize", ready).Msg("Queue size too long, skipping cycle")
			return PublishResult{}, nil
		}
	}

	feed, err := p.source.Fetch(ctx)
	if err != nil {
		log.Error().Err(err).Int64("poll", pollNumber).Msg("Poll failed")
		p.metrics.ObservePoll(time.Since(startTime), true)
		return PublishResult{}, err
	}

	now := p.now()
	positions := Transform(feed, now)
	if len(positions) == 0 {
		log.Warn().Int64("poll", pollNumber).Msg("No vehicle positions found in polling cycle")
	}

	result := p.publisher.PublishAll(ctx, positions, now)

	p.metrics.ObservePoll(time.Since(startTime), false)
	p.metrics.Published(result.Published, result.Failed, result.Unchanged)

	log.Info().
		Int64("poll", pollNumber).
		Int("published", result.Published).
		Int("failed", result.Failed).
		Int("unchanged", result.Unchanged).
		Msg("Poll completed")

	return result, nil
}
