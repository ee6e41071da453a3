package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	"github.com/hpyride/hpyride/pkg/metrics"
	"github.com/hpyride/hpyride/pkg/rabbit"
)

const (
	PushExchange   = "notification_topic"
	PushQueue      = "push_notifications"
	PushRoutingKey = "notification.push"

	pushPrefetch = 10
)

// PushProducer queues push deliveries for the functions service. The returned
// message id is the job id, not a provider id.
type PushProducer struct {
	client *rabbit.RabbitMQ
}

func NewPushProducer(client *rabbit.RabbitMQ) (*PushProducer, error) {
	if err := client.DeclareTopic(PushExchange); err != nil {
		return nil, fmt.Errorf("declare %s: %w", PushExchange, err)
	}
	return &PushProducer{client: client}, nil
}

func (p *PushProducer) Push(ctx context.Context, req models.PushRequest) (models.PushResult, error) {
	const op = "PushProducer.Push"

	body, err := json.Marshal(req)
	if err != nil {
		ctx = wrap.WithAction(ctx, "marshal_push")
		return models.PushResult{}, wrap.Error(ctx, fmt.Errorf("%s: failed to marshal message: %w", op, err))
	}

	id := uuid.NewString()
	if err := p.client.Publish(ctx, PushExchange, PushRoutingKey, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Body:         body,
	}); err != nil {
		ctx = wrap.WithAction(ctx, "publish_message")
		return models.PushResult{}, wrap.Error(ctx, fmt.Errorf("%s: %w: %w", op, types.ErrPublishFailed, err))
	}

	return models.PushResult{Success: true, MessageID: id}, nil
}

type PushHandler func(ctx context.Context, req models.PushRequest) error

// PushConsumer delivers queued pushes through a PushHandler.
type PushConsumer struct {
	client *rabbit.RabbitMQ
	l      logger.Logger
}

func NewPushConsumer(client *rabbit.RabbitMQ, l logger.Logger) *PushConsumer {
	return &PushConsumer{client: client, l: l}
}

// Consume runs until ctx is done.
func (c *PushConsumer) Consume(ctx context.Context, fn PushHandler) error {
	const op = "PushConsumer.Consume"
	ctx = wrap.WithAction(ctx, "consume_push")

	for {
		if ctx.Err() != nil {
			c.l.Debug(ctx, "push consumer stopped by context")
			return nil
		}

		ch, msgs, err := c.subscribe(ctx)
		if err != nil {
			c.l.Error(ctx, "push consumer setup failed", err, "op", op)
			if !sleepOrDone(ctx.Done(), 2*time.Second) {
				return nil
			}
			continue
		}

		c.l.Info(ctx, "start consuming push notifications", "queue", PushQueue)

		if done := c.drain(ctx, fn, msgs); done {
			_ = ch.Close()
			c.l.Info(ctx, "push consumer shutting down", "op", op)
			return nil
		}
		c.l.Warn(ctx, "message channel closed, reconnecting...", "op", op)
		_ = ch.Close()
	}
}

// drain handles deliveries until ctx is done (true) or the delivery channel closes (false).
func (c *PushConsumer) drain(ctx context.Context, fn PushHandler, msgs <-chan amqp.Delivery) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		case msg, ok := <-msgs:
			if !ok {
				return false
			}
			c.handle(ctx, fn, msg)
		}
	}
}

func (c *PushConsumer) subscribe(ctx context.Context) (*amqp.Channel, <-chan amqp.Delivery, error) {
	ch, err := c.client.ConsumeChannel(ctx, pushPrefetch)
	if err != nil {
		return nil, nil, err
	}

	msgs, err := declarePushQueue(ch)
	if err != nil {
		_ = ch.Close()
		return nil, nil, err
	}
	return ch, msgs, nil
}

func declarePushQueue(ch *amqp.Channel) (<-chan amqp.Delivery, error) {
	if err := ch.ExchangeDeclare(PushExchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(PushQueue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, PushRoutingKey, PushExchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}
	return ch.Consume(q.Name, "", false, false, false, false, nil)
}

// handle acks every decoded job. A failed push is logged and dropped.
func (c *PushConsumer) handle(ctx context.Context, fn PushHandler, msg amqp.Delivery) {
	const op = "PushConsumer.handle"

	var req models.PushRequest
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		c.l.Error(ctx, "decode failed", err, "op", op)
		metrics.RecordRabbitMQConsume(PushQueue, err)
		_ = msg.Nack(false, false)
		return
	}

	ctx = wrap.WithUserID(ctx, req.UserID.String())
	err := fn(ctx, req)
	metrics.RecordRabbitMQConsume(PushQueue, err)

	switch {
	case err == nil:
	case errors.Is(err, types.ErrNotConfigured):
		c.l.Warn(ctx, "dropping push", "reason", err.Error())
	default:
		c.l.Error(wrap.WithAction(ctx, types.ActionPushFailed), "push failed", err, "op", op)
	}

	if err := msg.Ack(false); err != nil {
		c.l.Warn(ctx, "ack failed", "error", err.Error(), "op", op)
	}
}
