package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/eventbus"
	"github.com/travigo/transittracker/pkg/metrics"
	"github.com/travigo/transittracker/pkg/realtime"
)

var ErrMissingVehicleID = errors.New("vehicle position has no vehicleId")

// Store receives every decoded position
type Store interface {
	Put(vehicle realtime.VehiclePosition) bool
	Len() int
}

// Consumer drains the vehicle-positions topic into the store
type Consumer struct {
	store   Store
	metrics *metrics.Collector
}

func New(store Store, collector *metrics.Collector) *Consumer {
	return &Consumer{
		store:   store,
		metrics: collector,
	}
}

func Decode(payload []byte) (realtime.VehiclePosition, error) {
	var position realtime.VehiclePosition

	if err := json.Unmarshal(payload, &position); err != nil {
		return position, &eventbus.DecodeError{Cause: err}
	}
	if position.VehicleID == "" {
		return position, &eventbus.DecodeError{Cause: ErrMissingVehicleID}
	}

	return position, nil
}

// Handle stores one message. Undecodable messages are logged and dropped.
func (c *Consumer) Handle(_ context.Context, message eventbus.Message) {
	position, err := Decode(message.Payload)
	if err != nil {
		log.Error().Err(err).Str("key", message.Key).Int("length", len(message.Payload)).Msg("Dropping undecodable vehicle position")
		c.metrics.Consumed(false)
		return
	}

	if !c.store.Put(position) {
		log.Debug().Str("vehicle", position.VehicleID).Int64("timestamp", position.Timestamp).Msg("Ignoring out of order vehicle position")
	}

	c.metrics.Consumed(true)
	c.metrics.SetVehiclesTracked(c.store.Len())
}

// Run blocks until ctx is cancelled
func (c *Consumer) Run(ctx context.Context, subscriber eventbus.Subscriber) error {
	log.Info().Msg("Starting vehicle position consumer")

	return subscriber.Subscribe(ctx, c.Handle)
}
