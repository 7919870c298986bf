package eventbus

import (
	"context"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSBus publishes each vehicle on its own subject under the topic and
// load-balances consumers through a queue group
type NATSBus struct {
	connection      *nats.Conn
	topic           string
	queueGroup      string
	numberConsumers int
}

func NewNATSBus(url string, topic string, queueGroup string, numberConsumers int) (*NATSBus, error) {
	connection, err := nats.Connect(url,
		nats.Name("transittracker"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			log.Info().Str("url", conn.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, err
	}

	if numberConsumers <= 0 {
		numberConsumers = 1
	}

	return &NATSBus{
		connection:      connection,
		topic:           topic,
		queueGroup:      queueGroup,
		numberConsumers: numberConsumers,
	}, nil
}

func (b *NATSBus) Subject(key string) string {
	return b.topic + "." + subjectToken(key)
}

func (b *NATSBus) Publish(ctx context.Context, key string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return &PublishError{Key: key, Cause: err}
	}

	if err := b.connection.Publish(b.Subject(key), payload); err != nil {
		return &PublishError{Key: key, Cause: err}
	}

	return nil
}

func (b *NATSBus) Subscribe(ctx context.Context, handler Handler) error {
	subject := b.topic + ".>"
	prefix := b.topic + "."

	var subscriptions []*nats.Subscription
	for i := 0; i < b.numberConsumers; i++ {
		subscription, err := b.connection.QueueSubscribe(subject, b.queueGroup, func(msg *nats.Msg) {
			handler(ctx, Message{
				Key:     strings.TrimPrefix(msg.Subject, prefix),
				Payload: msg.Data,
			})
		})
		if err != nil {
			for _, s := range subscriptions {
				s.Unsubscribe()
			}
			return err
		}

		subscriptions = append(subscriptions, subscription)
	}

	log.Info().Str("subject", subject).Str("group", b.queueGroup).Int("consumers", b.numberConsumers).Msg("Subscribed to NATS")

	<-ctx.Done()

	for _, subscription := range subscriptions {
		if err := subscription.Drain(); err != nil {
			log.Warn().Err(err).Msg("Failed to drain NATS subscription")
		}
	}

	return nil
}

func (b *NATSBus) Close() error {
	if b.connection == nil {
		return nil
	}

	if err := b.connection.Drain(); err != nil {
		b.connection.Close()
		return err
	}

	return nil
}

// subjectToken makes a key safe to use as a single NATS subject token
func subjectToken(s string) string {
	s = strings.TrimSpace(s)

	replacer := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = replacer.Replace(s)
	if s == "" {
		s = "_"
	}

	return s
}
