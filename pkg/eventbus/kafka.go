package eventbus

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/rs/zerolog/log"
	"github.com/travigo/transittracker/pkg/config"
)

type KafkaConfig struct {
	BootstrapServers string
	SecurityProtocol string
	SASLMechanism    string
	SASLUsername     string
	SASLPassword     string
	ConsumerGroup    string
	Consumers        int
}

var jaasOption = regexp.MustCompile(`(username|password)\s*=\s*"([^"]*)"`)

// KafkaConfigFrom maps the bus properties, pulling the SASL credentials out of the JAAS string
func KafkaConfigFrom(bus config.Bus) KafkaConfig {
	kafkaConfig := KafkaConfig{
		BootstrapServers: bus.BootstrapServers,
		SecurityProtocol: bus.SecurityProtocol,
		SASLMechanism:    bus.SASLMechanism,
		ConsumerGroup:    bus.ConsumerGroup,
		Consumers:        bus.Consumers,
	}

	for _, match := range jaasOption.FindAllStringSubmatch(bus.SASLJAASConfig, -1) {
		switch match[1] {
		case "username":
			kafkaConfig.SASLUsername = match[2]
		case "password":
			kafkaConfig.SASLPassword = match[2]
		}
	}

	return kafkaConfig
}

func (c KafkaConfig) baseConfigMap() kafka.ConfigMap {
	configMap := kafka.ConfigMap{
		"bootstrap.servers": c.BootstrapServers,
	}

	if c.SecurityProtocol != "" {
		configMap["security.protocol"] = c.SecurityProtocol
	}
	if c.SASLMechanism != "" {
		configMap["sasl.mechanisms"] = c.SASLMechanism
	}
	if c.SASLUsername != "" {
		configMap["sasl.username"] = c.SASLUsername
		configMap["sasl.password"] = c.SASLPassword
	}

	return configMap
}

// ProducerConfigMap is an idempotent producer waiting for all replicas with one request in flight
func (c KafkaConfig) ProducerConfigMap() *kafka.ConfigMap {
	configMap := c.baseConfigMap()
	configMap["enable.idempotence"] = true
	configMap["acks"] = "all"
	configMap["max.in.flight.requests.per.connection"] = 1

	return &configMap
}

func (c KafkaConfig) ConsumerConfigMap() *kafka.ConfigMap {
	configMap := c.baseConfigMap()
	configMap["group.id"] = c.ConsumerGroup
	configMap["auto.offset.reset"] = "latest"

	return &configMap
}

type KafkaBus struct {
	config KafkaConfig
	topic  string

	producerMutex sync.Mutex
	producer      *kafka.Producer
}

func NewKafkaBus(kafkaConfig KafkaConfig, topic string) (*KafkaBus, error) {
	return &KafkaBus{
		config: kafkaConfig,
		topic:  topic,
	}, nil
}

func (b *KafkaBus) getProducer() (*kafka.Producer, error) {
	b.producerMutex.Lock()
	defer b.producerMutex.Unlock()

	if b.producer != nil {
		return b.producer, nil
	}

	producer, err := kafka.NewProducer(b.config.ProducerConfigMap())
	if err != nil {
		return nil, err
	}

	go func() {
		for event := range producer.Events() {
			if kafkaError, ok := event.(kafka.Error); ok {
				log.Error().Err(kafkaError).Msg("Kafka producer error")
			}
		}
	}()

	b.producer = producer

	return producer, nil
}

// Publish waits for the broker acknowledgement of the message
func (b *KafkaBus) Publish(ctx context.Context, key string, payload []byte) error {
	producer, err := b.getProducer()
	if err != nil {
		return &PublishError{Key: key, Cause: err}
	}

	deliveryChan := make(chan kafka.Event, 1)

	err = producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &b.topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          payload,
	}, deliveryChan)
	if err != nil {
		return &PublishError{Key: key, Cause: err}
	}

	select {
	case <-ctx.Done():
		return &PublishError{Key: key, Cause: ctx.Err()}
	case event := <-deliveryChan:
		message, ok := event.(*kafka.Message)
		if !ok {
			return &PublishError{Key: key, Cause: errors.New("unexpected delivery event")}
		}
		if message.TopicPartition.Error != nil {
			return &PublishError{Key: key, Cause: message.TopicPartition.Error}
		}
	}

	return nil
}

// Subscribe runs one group member per configured consumer, each owning its assigned partitions
func (b *KafkaBus) Subscribe(ctx context.Context, handler Handler) error {
	consumers := b.config.Consumers
	if consumers <= 0 {
		consumers = 1
	}

	var wg sync.WaitGroup
	errs := make(chan error, consumers)

	for i := 0; i < consumers; i++ {
		consumer, err := kafka.NewConsumer(b.config.ConsumerConfigMap())
		if err != nil {
			return err
		}

		if err := consumer.SubscribeTopics([]string{b.topic}, nil); err != nil {
			consumer.Close()
			return err
		}

		log.Info().Str("topic", b.topic).Int("consumer", i).Msg("Subscribed to topic")

		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- b.consume(ctx, consumer, handler)
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}

func (b *KafkaBus) consume(ctx context.Context, consumer *kafka.Consumer, handler Handler) error {
	defer consumer.Close()

	for ctx.Err() == nil {
		message, err := consumer.ReadMessage(100 * time.Millisecond)
		if err != nil {
			var kafkaError kafka.Error
			if errors.As(err, &kafkaError) && kafkaError.Code() == kafka.ErrTimedOut {
				continue
			}

			// Errors are informational and automatically handled by the consumer
			log.Warn().Err(err).Msg("Kafka consumer error")
			continue
		}

		handler(ctx, Message{Key: string(message.Key), Payload: message.Value})
	}

	return nil
}

func (b *KafkaBus) Close() error {
	b.producerMutex.Lock()
	defer b.producerMutex.Unlock()

	if b.producer != nil {
		remaining := b.producer.Flush(5000)
		if remaining > 0 {
			log.Warn().Int("remaining", remaining).Msg("Kafka producer closed with undelivered messages")
		}

		b.producer.Close()
		b.producer = nil
	}

	return nil
}
