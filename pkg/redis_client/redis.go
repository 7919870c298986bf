package redis_client

import (
	"context"
	"errors"

	"github.com/adjust/rmq/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/config"
)

const queueConnectionTag = "transittracker"

// Connection bundles the redis client with the rmq connection opened on top of it
type Connection struct {
	Client          *redis.Client
	QueueConnection rmq.Connection
}

func Connect(ctx context.Context, redisConfig config.Redis) (*Connection, error) {
	options := &redis.Options{
		Addr: redisConfig.Address,
		DB:   redisConfig.Database,
	}
	if redisConfig.Password != "" {
		options.Password = redisConfig.Password
	}

	return ConnectWithClient(ctx, redis.NewClient(options))
}

// ConnectWithClient opens the queue connection over an existing client
func ConnectWithClient(ctx context.Context, client *redis.Client) (*Connection, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	errChan := make(chan error, 10)
	go logQueueErrors(errChan)

	queueConnection, err := rmq.OpenConnectionWithRedisClient(queueConnectionTag, client, errChan)
	if err != nil {
		return nil, err
	}

	log.Info().Str("address", client.Options().Addr).Msg("Connected to redis")

	return &Connection{
		Client:          client,
		QueueConnection: queueConnection,
	}, nil
}

func (c *Connection) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *Connection) Close() error {
	return c.Client.Close()
}

func logQueueErrors(errChan <-chan error) {
	for err := range errChan {
		var heartbeatError *rmq.HeartbeatError
		var consumeError *rmq.ConsumeError

		switch {
		case errors.As(err, &heartbeatError):
			log.Warn().Err(err).Int("count", heartbeatError.Count).Msg("Queue heartbeat error")
		case errors.As(err, &consumeError):
			log.Error().Err(err).Msg("Queue consume error")
		default:
			log.Error().Err(err).Msg("Queue error")
		}
	}
}
