package microservices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hpyride/hpyride/config"
	"github.com/hpyride/hpyride/internal/adapter/http/handler"
	httpserver "github.com/hpyride/hpyride/internal/adapter/http/server"
	wshandler "github.com/hpyride/hpyride/internal/adapter/http/ws"
	"github.com/hpyride/hpyride/internal/adapter/postgres"
	rabbitadapter "github.com/hpyride/hpyride/internal/adapter/rabbit"
	"github.com/hpyride/hpyride/internal/service/auth"
	"github.com/hpyride/hpyride/internal/service/realtime"
	"github.com/hpyride/hpyride/pkg/broadcast"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	postgresclient "github.com/hpyride/hpyride/pkg/postgres"
	"github.com/hpyride/hpyride/pkg/rabbit"
	"github.com/hpyride/hpyride/pkg/tracing"
	"github.com/hpyride/hpyride/pkg/trm"
)

// RealtimeService is the WebSocket gateway. Driver positions travel through the
// RabbitMQ broker so that riders and drivers may sit on different replicas; row
// changes come from the Postgres change feed.
type RealtimeService struct {
	postgresDB      *postgresclient.PostgreDB
	rabbitClient    *rabbit.RabbitMQ
	listener        *postgres.ChangeListener
	gateway         *wshandler.Gateway
	httpServer      *httpserver.API
	shutdownTracing tracing.ShutdownFunc

	cfg config.Config
	log logger.Logger
}

func NewRealtime(ctx context.Context, cfg config.Config, log logger.Logger) (*RealtimeService, error) {
	shutdownTracing, err := tracing.Setup(ctx, cfg.Mode.String(), cfg.Tracing)
	if err != nil {
		log.Error(ctx, "failed to setup tracing", err)
		return nil, err
	}

	db, err := postgresclient.New(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "failed to setup database", err)
		return nil, err
	}

	rabbitClient, err := rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		log.Error(ctx, "failed to connect to rabbitmq", err)
		db.Pool.Close()
		return nil, err
	}

	broker, err := rabbitadapter.NewBroker(rabbitClient, log)
	if err != nil {
		log.Error(ctx, "failed to setup location broker", err)
		_ = rabbitClient.Close(ctx)
		db.Pool.Close()
		return nil, err
	}

	userRepo := postgres.NewUserRepo(db.Pool)
	refreshRepo := postgres.NewRefreshTokenRepo(db.Pool)
	bookingRepo := postgres.NewBookingRepo(db.Pool)

	tokenSvc := auth.NewTokenService(cfg.Auth.JWTSecret, userRepo, refreshRepo, trm.New(db.Pool), cfg.Auth.RefreshTokenTTL, cfg.Auth.AccessTokenTTL, log)
	authSvc := auth.NewAuthService(userRepo, tokenSvc, log)

	changes := realtime.NewChangeHub(broadcast.NewHub())
	listener := postgres.NewChangeListener(db.Pool, changes, log)
	gateway := wshandler.NewGateway(broker, changes, bookingRepo, cfg.Services.APIURL, log)

	server, err := httpserver.New(cfg, httpserver.Services{
		Users:   authSvc,
		Gateway: gateway,
		Health: map[string]handler.Pinger{
			"postgres": db.Pool,
			"rabbitmq": rabbitPinger(rabbitClient),
		},
	}, log)
	if err != nil {
		log.Error(ctx, "failed to setup http server", err)
		_ = rabbitClient.Close(ctx)
		db.Pool.Close()
		return nil, err
	}

	return &RealtimeService{
		postgresDB:      db,
		rabbitClient:    rabbitClient,
		listener:        listener,
		gateway:         gateway,
		httpServer:      server,
		shutdownTracing: shutdownTracing,
		cfg:             cfg,
		log:             log,
	}, nil
}

func (s *RealtimeService) Start(ctx context.Context) error {
	feedCtx, stopFeed := context.WithCancel(ctx)
	defer func() {
		stopFeed()
		s.close(ctx)
		s.log.Info(ctx, "realtime service closed")
	}()

	errCh := make(chan error, 2)
	s.httpServer.Run(ctx, errCh)

	go func() {
		if err := s.listener.Run(feedCtx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("change feed: %w", err)
		}
	}()

	return wait(wrap.WithAction(ctx, "realtime_start"), errCh, s.log)
}

func (s *RealtimeService) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second*10)
	defer cancel()

	// sockets are hijacked, Shutdown does not wait for them
	s.gateway.Close()

	if err := s.httpServer.Stop(ctx); err != nil {
		s.log.Error(ctx, "failed to shutdown HTTP server", err)
	}

	if err := s.rabbitClient.Close(ctx); err != nil {
		s.log.Warn(ctx, "failed to close rabbitmq connection", "error", err.Error())
	}

	s.postgresDB.Pool.Close()

	if err := s.shutdownTracing(ctx); err != nil {
		s.log.Warn(ctx, "failed to flush traces", "error", err.Error())
	}
}
