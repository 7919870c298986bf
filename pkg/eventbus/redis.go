package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/redis_client"
)

// RedisBus is an rmq queue named after the topic. rmq has no partitions so the key
// only travels inside the payload and is read back from its vehicleId on delivery.
// Consumers run concurrently, so ordering per key is left to the store.
type RedisBus struct {
	connection *redis_client.Connection
	queue      rmq.Queue
	queueName  string

	numberConsumers int
	batchSize       int
	timeout         time.Duration
}

func NewRedisBus(connection *redis_client.Connection, queueName string, numberConsumers int, batchSize int) (*RedisBus, error) {
	queue, err := connection.QueueConnection.OpenQueue(queueName)
	if err != nil {
		return nil, err
	}

	if numberConsumers <= 0 {
		numberConsumers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}

	return &RedisBus{
		connection:      connection,
		queue:           queue,
		queueName:       queueName,
		numberConsumers: numberConsumers,
		batchSize:       batchSize,
		timeout:         time.Second,
	}, nil
}

func (b *RedisBus) Publish(_ context.Context, key string, payload []byte) error {
	if err := b.queue.PublishBytes(payload); err != nil {
		return &PublishError{Key: key, Cause: err}
	}

	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, handler Handler) error {
	log.Info().Str("queue", b.queueName).Int("consumers", b.numberConsumers).Msg("Starting consumers")

	if err := b.queue.StartConsuming(int64(b.numberConsumers*b.batchSize), b.timeout); err != nil {
		return err
	}

	for i := 0; i < b.numberConsumers; i++ {
		name := fmt.Sprintf("%s-%d", b.queueName, i)
		consumer := &batchConsumer{ctx: ctx, handler: handler, name: name}

		if _, err := b.queue.AddBatchConsumer(name, int64(b.batchSize), b.timeout, consumer); err != nil {
			return err
		}
	}

	<-ctx.Done()
	<-b.queue.StopConsuming()

	return nil
}

// ReadyCount is the number of messages waiting in the queue
func (b *RedisBus) ReadyCount() (int64, error) {
	stats, err := b.connection.QueueConnection.CollectStats([]string{b.queueName})
	if err != nil {
		return 0, err
	}

	return stats.QueueStats[b.queueName].ReadyCount, nil
}

// StartCleaner returns deliveries of dead consumers to the ready list every interval
func (b *RedisBus) StartCleaner(ctx context.Context, interval time.Duration) {
	cleaner := rmq.NewCleaner(b.connection.QueueConnection)

	log.Info().Str("queue", b.queueName).Msg("Starting queue cleaner process")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			returned, err := cleaner.Clean()
			if err != nil {
				log.Error().Err(err).Msg("Failed to clean")
				continue
			}

			if returned != 0 {
				log.Info().Int64("returned", returned).Msg("Cleaned unacked deliveries")
			}
		}
	}
}

func (b *RedisBus) Connection() *redis_client.Connection {
	return b.connection
}

func (b *RedisBus) Close() error {
	<-b.connection.QueueConnection.StopAllConsuming()

	return nil
}

type batchConsumer struct {
	ctx     context.Context
	handler Handler
	name    string
}

func (c *batchConsumer) Consume(batch rmq.Deliveries) {
	for _, payload := range batch.Payloads() {
		c.handler(c.ctx, Message{Key: PayloadKey([]byte(payload)), Payload: []byte(payload)})
	}

	if ackErrors := batch.Ack(); len(ackErrors) > 0 {
		for _, err := range ackErrors {
			log.Error().Err(err).Str("consumer", c.name).Msg("Failed to ack delivery")
		}
	}
}

// PayloadKey returns the vehicleId of a vehicle position payload, or "" when it has none
func PayloadKey(payload []byte) string {
	var keyed struct {
		VehicleID string `json:"vehicleId"`
	}

	if err := json.Unmarshal(payload, &keyed); err != nil {
		return ""
	}

	return keyed.VehicleID
}
