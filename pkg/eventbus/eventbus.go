package eventbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/config"
	"github.com/travigo/transittracker/pkg/redis_client"
)

var ErrClosed = errors.New("event bus closed")

// Message is one event taken off the bus. Key is the partition key (the vehicle id).
type Message struct {
	Key     string
	Payload []byte
}

type Handler func(ctx context.Context, message Message)

type Publisher interface {
	Publish(ctx context.Context, key string, payload []byte) error
	Close() error
}

// Subscriber delivers messages to handler until ctx is cancelled
type Subscriber interface {
	Subscribe(ctx context.Context, handler Handler) error
	Close() error
}

type Bus interface {
	Publisher
	Subscriber
}

// PublishError is a failed publish of a single message
type PublishError struct {
	Key   string
	Cause error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s: %v", e.Key, e.Cause)
}

func (e *PublishError) Unwrap() error {
	return e.Cause
}

// DecodeError is a consumed message whose payload could not be decoded
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode message: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Open selects the driver named by bus.driver. The redis driver reuses redisConnection
// when given and connects on its own otherwise.
func Open(ctx context.Context, conf *config.Config, redisConnection *redis_client.Connection) (Bus, error) {
	topic := conf.Topics.VehiclePositions

	log.Info().Str("driver", conf.Bus.Driver).Str("topic", topic).Msg("Opening event bus")

	switch conf.Bus.Driver {
	case config.DriverRedis:
		if redisConnection == nil {
			connection, err := redis_client.Connect(ctx, conf.Redis)
			if err != nil {
				return nil, err
			}
			redisConnection = connection
		}

		bus, err := NewRedisBus(redisConnection, topic, conf.Bus.Consumers, conf.Bus.BatchSize)
		if err != nil {
			return nil, err
		}
		return bus, nil
	case config.DriverKafka:
		bus, err := NewKafkaBus(KafkaConfigFrom(conf.Bus), topic)
		if err != nil {
			return nil, err
		}
		return bus, nil
	case config.DriverNATS:
		bus, err := NewNATSBus(conf.NATS.URL, topic, conf.Bus.ConsumerGroup, conf.Bus.Consumers)
		if err != nil {
			return nil, err
		}
		return bus, nil
	case config.DriverMemory:
		return NewMemoryBus(conf.Bus.BatchSize*conf.Bus.Consumers, conf.Bus.Consumers), nil
	default:
		return nil, &config.Error{Field: "bus.driver", Cause: fmt.Errorf("unknown driver %q", conf.Bus.Driver)}
	}
}
