package microservices

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/hpyride/hpyride/internal/adapter/http/handler"
	"github.com/hpyride/hpyride/pkg/logger"
	"github.com/hpyride/hpyride/pkg/rabbit"
	goredis "github.com/redis/go-redis/v9"
)

var errBrokerDisconnected = errors.New("rabbitmq connection closed")

// wait blocks until a component fails or the process is asked to stop.
func wait(ctx context.Context, errCh <-chan error, log logger.Logger) error {
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	log.Info(ctx, "service started")
	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		log.Info(ctx, "shuting down application", "signal", sig.String())
		return nil
	case <-ctx.Done():
		return nil
	}
}

func redisPinger(rdb *goredis.Client) handler.Pinger {
	return handler.PingFunc(func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
}

func rabbitPinger(client *rabbit.RabbitMQ) handler.Pinger {
	return handler.PingFunc(func(context.Context) error {
		if client.IsConnectionClosed() {
			return errBrokerDisconnected
		}
		return nil
	})
}
