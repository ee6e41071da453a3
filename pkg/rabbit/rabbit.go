package rabbit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	heartbeat         = 10 * time.Second
	reconnectAttempts = 5
)

// RabbitMQ owns one connection and the channel used for publishing and declarations.
// Consumers get channels of their own from ConsumeChannel.
type RabbitMQ struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
	stopped bool
	dsn     string

	log logger.Logger
}

// New dials the broker and opens the publish channel.
func New(ctx context.Context, dsn string, log logger.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{dsn: dsn, log: log}

	conn, ch, err := dial(dsn)
	if err != nil {
		return nil, err
	}
	r.attach(conn, ch)

	log.Info(wrap.WithAction(ctx, types.ActionRabbitMQConnected), "connected to rabbitMQ")
	return r, nil
}

func dial(dsn string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(dsn, amqp.Config{Heartbeat: heartbeat})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	return conn, ch, nil
}

// attach installs a fresh connection and starts watching it. Callers hold no lock.
func (r *RabbitMQ) attach(conn *amqp.Connection, ch *amqp.Channel) {
	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

	r.mu.Lock()
	r.conn = conn
	r.channel = ch
	r.closed = false
	r.mu.Unlock()

	go r.monitor(conn, connClosed, chClosed)
}

// monitor marks the client closed once the connection or the publish channel goes away.
func (r *RabbitMQ) monitor(conn *amqp.Connection, connClosed, chClosed <-chan *amqp.Error) {
	var closeErr *amqp.Error
	what := "connection"
	select {
	case closeErr = <-connClosed:
	case closeErr = <-chClosed:
		what = "channel"
	}

	r.mu.Lock()
	if r.conn == conn {
		r.closed = true
	}
	r.mu.Unlock()

	ctx := wrap.WithAction(context.Background(), types.ActionRabbitConnectionClosed)
	if closeErr != nil {
		r.log.Error(ctx, "RabbitMQ "+what+" closed with error", closeErr)
	} else {
		r.log.Debug(ctx, "RabbitMQ "+what+" closed gracefully")
	}
}

// IsConnectionClosed reports whether the connection or the publish channel is gone.
func (r *RabbitMQ) IsConnectionClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil || r.channel == nil {
		return true
	}
	return r.closed || r.conn.IsClosed() || r.channel.IsClosed()
}

// publishChannel returns the shared channel, or amqp.ErrClosed after Close.
func (r *RabbitMQ) publishChannel() (*amqp.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channel == nil {
		return nil, amqp.ErrClosed
	}
	return r.channel, nil
}

// ConsumeChannel opens a dedicated channel on the current connection. A prefetch above
// zero limits unacknowledged deliveries. The caller closes the channel.
func (r *RabbitMQ) ConsumeChannel(ctx context.Context, prefetch int) (*amqp.Channel, error) {
	if err := r.EnsureConnection(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	if conn == nil {
		return nil, amqp.ErrClosed
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open consume channel: %w", err)
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			ch.Close()
			return nil, fmt.Errorf("set qos: %w", err)
		}
	}
	return ch, nil
}

// Close closes the publish channel and the connection. Later calls are no-ops.
func (r *RabbitMQ) Close(ctx context.Context) error {
	ctx = wrap.WithAction(ctx, types.ActionRabbitConnectionClosing)

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	r.closed = true
	ch, conn := r.channel, r.conn
	r.channel, r.conn = nil, nil
	r.mu.Unlock()

	if ch != nil {
		r.log.Debug(ctx, "closing channel")
		if err := closeWithCtxFunc(ctx, ch.Close); err != nil && ctx.Err() == nil && !errors.Is(err, amqp.ErrClosed) {
			r.log.Error(ctx, "error closing channel", err)
		}
	}

	if conn != nil {
		r.log.Debug(ctx, "closing RabbitMQ connection")
		if err := closeWithCtxFunc(ctx, conn.Close); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !errors.Is(err, amqp.ErrClosed) {
				return fmt.Errorf("failed to close connection: %w", err)
			}
		}
	}

	r.log.Info(wrap.WithAction(ctx, types.ActionRabbitConnectionClosed), "rabbitMQ closed")
	return nil
}

// closeWithCtxFunc runs fn but stops waiting for it once ctx is done.
func closeWithCtxFunc(ctx context.Context, fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reconnect dials again with a linear backoff. It does nothing while the connection is healthy
// and refuses after Close.
func (r *RabbitMQ) Reconnect(ctx context.Context) error {
	r.mu.Lock()
	stopped := r.stopped
	r.mu.Unlock()
	if stopped {
		return amqp.ErrClosed
	}
	if r.dsn == "" {
		return fmt.Errorf("dsn is empty: can't reconnect")
	}
	if !r.IsConnectionClosed() {
		return nil
	}

	var (
		conn *amqp.Connection
		ch   *amqp.Channel
		err  error
	)
	for i := range reconnectAttempts {
		if conn, ch, err = dial(r.dsn); err == nil {
			break
		}

		wait := time.Duration(i+1) * 2 * time.Second
		r.log.Debug(ctx, "reconnect attempt failed", "attempt", i+1, "retry_in", wait.String(), "error", err.Error())

		select {
		case <-ctx.Done():
			r.log.Debug(ctx, "stopping reconnect attempts")
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	if err != nil {
		return fmt.Errorf("failed to reconnect to RabbitMQ: %w", err)
	}

	r.mu.Lock()
	old := r.conn
	r.mu.Unlock()
	if old != nil && !old.IsClosed() {
		old.Close()
	}
	r.attach(conn, ch)

	r.log.Info(wrap.WithAction(ctx, types.ActionRabbitReconnected), "RabbitMQ reconnected successfully")
	return nil
}

// EnsureConnection reconnects when the connection or the publish channel was closed.
func (r *RabbitMQ) EnsureConnection(ctx context.Context) error {
	if !r.IsConnectionClosed() {
		return nil
	}

	r.log.Warn(ctx, "rabbit connection closed, reconnecting...")
	if err := r.Reconnect(ctx); err != nil {
		return fmt.Errorf("failed to reconnect to RabbitMQ: %w", err)
	}
	return nil
}
