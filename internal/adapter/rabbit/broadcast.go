package rabbit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hpyride/hpyride/internal/service/realtime"
	"github.com/hpyride/hpyride/pkg/broadcast"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	"github.com/hpyride/hpyride/pkg/metrics"
	"github.com/hpyride/hpyride/pkg/rabbit"
)

// BroadcastExchange carries ephemeral channel messages between realtime instances.
// The routing key is the channel name.
const BroadcastExchange = "realtime_broadcast"

// Broker implements realtime.Broker on a topic exchange. Every receiving membership
// owns an exclusive auto-delete queue, so nothing outlives the subscriber.
type Broker struct {
	client *rabbit.RabbitMQ
	log    logger.Logger
}

func NewBroker(client *rabbit.RabbitMQ, log logger.Logger) (*Broker, error) {
	if err := client.DeclareTopic(BroadcastExchange); err != nil {
		return nil, fmt.Errorf("declare %s: %w", BroadcastExchange, err)
	}
	return &Broker{client: client, log: log}, nil
}

func (b *Broker) Join(ctx context.Context, channel string, handler broadcast.Handler) (realtime.Channel, error) {
	const op = "Broker.Join"
	if channel == "" {
		return nil, broadcast.ErrEmptyChannel
	}
	ctx = wrap.WithChannel(ctx, channel)

	m := &membership{broker: b, channel: channel, done: make(chan struct{})}
	if handler == nil {
		return m, nil
	}

	ch, err := b.client.ConsumeChannel(ctx, 0)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	m.tag = "bc-" + uuid.NewString()
	q, deliveries, err := bindMembership(ch, channel, m.tag)
	if err != nil {
		_ = ch.Close()
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	m.ch = ch

	go m.deliver(ctx, q, deliveries, handler)
	return m, nil
}

// bindMembership gives the membership an exclusive auto-delete queue bound to channel.
func bindMembership(ch *amqp.Channel, channel, tag string) (string, <-chan amqp.Delivery, error) {
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return "", nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, channel, BroadcastExchange, false, nil); err != nil {
		return "", nil, fmt.Errorf("bind queue: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, tag, true, true, false, false, nil)
	if err != nil {
		return "", nil, fmt.Errorf("consume: %w", err)
	}
	return q.Name, deliveries, nil
}

type membership struct {
	broker  *Broker
	channel string
	tag     string
	ch      *amqp.Channel
	gate    broadcast.Gate
	done    chan struct{}
}

func (m *membership) deliver(ctx context.Context, queue string, deliveries <-chan amqp.Delivery, handler broadcast.Handler) {
	for {
		select {
		case <-m.done:
			return
		case d, ok := <-deliveries:
			if !ok {
				m.broker.log.Debug(ctx, "broadcast deliveries closed")
				return
			}
			msg := broadcast.Message{Channel: m.channel, Event: d.Type, Payload: d.Body}
			if !m.gate.Do(func() { handler(msg) }) {
				return
			}
			metrics.RecordRabbitMQConsume(queue, nil)
		}
	}
}

// Send publishes once. A failed send is not retried.
func (m *membership) Send(ctx context.Context, event string, payload []byte) error {
	if m.gate.Closed() {
		return broadcast.ErrChannelClosed
	}
	return m.broker.client.PublishOnce(ctx, BroadcastExchange, m.channel, amqp.Publishing{
		ContentType: "application/json",
		Type:        event,
		Body:        payload,
	})
}

// Leave stops deliveries without waiting for a running handler.
func (m *membership) Leave() error {
	if !m.gate.Close() {
		return nil
	}
	close(m.done)

	if m.ch == nil {
		return nil
	}
	// closing the channel drops the consumer and its exclusive queue
	if err := m.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("close consumer %s: %w", m.tag, err)
	}
	return nil
}
