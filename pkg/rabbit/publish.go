package rabbit

import (
	"context"
	"fmt"
	"time"

	"github.com/hpyride/hpyride/pkg/metrics"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	publishAttempts = 3
	publishBackoff  = 200 * time.Millisecond
)

// DeclareTopic declares a durable topic exchange.
func (r *RabbitMQ) DeclareTopic(name string) error {
	ch, err := r.publishChannel()
	if err != nil {
		return err
	}
	return ch.ExchangeDeclare(name, "topic", true, false, false, false, nil)
}

// Publish sends one message, reconnecting and retrying a few times before giving up.
func (r *RabbitMQ) Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	var err error
	for i := range publishAttempts {
		if i > 0 {
			select {
			case <-ctx.Done():
				metrics.RecordRabbitMQPublish(exchange, ctx.Err())
				return ctx.Err()
			case <-time.After(time.Duration(i) * publishBackoff):
			}
		}

		if err = r.EnsureConnection(ctx); err != nil {
			continue
		}

		ch, chErr := r.publishChannel()
		if chErr != nil {
			err = chErr
			continue
		}

		if err = ch.PublishWithContext(ctx, exchange, key, false, false, msg); err == nil {
			break
		}
	}

	metrics.RecordRabbitMQPublish(exchange, err)
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", exchange, key, err)
	}
	return nil
}

// PublishOnce sends one message on the current channel. It neither reconnects nor retries,
// so a broken connection fails the call at once.
func (r *RabbitMQ) PublishOnce(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	var err error = amqp.ErrClosed
	if !r.IsConnectionClosed() {
		var ch *amqp.Channel
		if ch, err = r.publishChannel(); err == nil {
			err = ch.PublishWithContext(ctx, exchange, key, false, false, msg)
		}
	}

	metrics.RecordRabbitMQPublish(exchange, err)
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", exchange, key, err)
	}
	return nil
}
