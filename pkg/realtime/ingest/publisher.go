package ingest

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/transittracker/pkg/eventbus"
	"github.com/travigo/transittracker/pkg/realtime"
)

const maxPublishGoroutines = 8

type PublishResult struct {
	Published int
	Failed    int
	Unchanged int
}

// Publisher writes vehicle positions to the bus keyed by vehicle id
type Publisher struct {
	bus      eventbus.Publisher
	detector *ChangeDetector
}

func NewPublisher(bus eventbus.Publisher, detector *ChangeDetector) *Publisher {
	return &Publisher{
		bus:      bus,
		detector: detector,
	}
}

// PublishAll publishes every position. A failed message is logged and does not
// stop the others.
func (p *Publisher) PublishAll(ctx context.Context, positions []realtime.VehiclePosition, now time.Time) PublishResult {
	var published, failed, unchanged atomic.Int64

	workers := pool.New().WithMaxGoroutines(maxPublishGoroutines)

	for _, position := range positions {
		position := position
		workers.Go(func() {
			if p.detector != nil && !p.detector.Changed(ctx, position, now) {
				unchanged.Add(1)
				return
			}

			if err := p.Publish(ctx, position); err != nil {
				log.Error().Err(err).Str("vehicle", position.VehicleID).Msg("Failed to publish vehicle position")
				failed.Add(1)
				return
			}
			published.Add(1)

			if p.detector != nil {
				if err := p.detector.Remember(ctx, position, now); err != nil {
					log.Debug().Err(err).Str("vehicle", position.VehicleID).Msg("Failed to remember published position")
				}
			}
		})
	}

	workers.Wait()

	return PublishResult{
		Published: int(published.Load()),
		Failed:    int(failed.Load()),
		Unchanged: int(unchanged.Load()),
	}
}

func (p *Publisher) Publish(ctx context.Context, position realtime.VehiclePosition) error {
	payload, err := json.Marshal(position)
	if err != nil {
		return &eventbus.PublishError{Key: position.VehicleID, Cause: err}
	}

	return p.bus.Publish(ctx, position.VehicleID, payload)
}
