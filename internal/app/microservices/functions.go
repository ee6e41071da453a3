package microservices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hpyride/hpyride/config"
	"github.com/hpyride/hpyride/internal/adapter/fcm"
	"github.com/hpyride/hpyride/internal/adapter/gemini"
	"github.com/hpyride/hpyride/internal/adapter/http/handler"
	httpserver "github.com/hpyride/hpyride/internal/adapter/http/server"
	"github.com/hpyride/hpyride/internal/adapter/phoneemail"
	"github.com/hpyride/hpyride/internal/adapter/postgres"
	rabbitadapter "github.com/hpyride/hpyride/internal/adapter/rabbit"
	redisadapter "github.com/hpyride/hpyride/internal/adapter/redis"
	"github.com/hpyride/hpyride/internal/adapter/twilio"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/service/admin"
	"github.com/hpyride/hpyride/internal/service/aichat"
	"github.com/hpyride/hpyride/internal/service/auth"
	"github.com/hpyride/hpyride/internal/service/notification"
	"github.com/hpyride/hpyride/internal/service/otp"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	postgresclient "github.com/hpyride/hpyride/pkg/postgres"
	"github.com/hpyride/hpyride/pkg/rabbit"
	redisclient "github.com/hpyride/hpyride/pkg/redis"
	"github.com/hpyride/hpyride/pkg/tracing"
	"github.com/hpyride/hpyride/pkg/trm"
	goredis "github.com/redis/go-redis/v9"
)

const otpLimiterPrefix = "otp"

// FunctionsService serves the named functions. Pushes requested through
// send-push-notification are queued in RabbitMQ and delivered by the consumer
// running in this process.
type FunctionsService struct {
	postgresDB      *postgresclient.PostgreDB
	redis           *goredis.Client
	rabbitClient    *rabbit.RabbitMQ
	pushConsumer    *rabbitadapter.PushConsumer
	fcm             *fcm.Sender
	httpServer      *httpserver.API
	shutdownTracing tracing.ShutdownFunc

	cfg config.Config
	log logger.Logger
}

func NewFunctions(ctx context.Context, cfg config.Config, log logger.Logger) (svc *FunctionsService, err error) {
	shutdownTracing, err := tracing.Setup(ctx, cfg.Mode.String(), cfg.Tracing)
	if err != nil {
		log.Error(ctx, "failed to setup tracing", err)
		return nil, err
	}

	// closers run in reverse order when construction fails
	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	db, err := postgresclient.New(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "failed to setup database", err)
		return nil, err
	}
	closers = append(closers, db.Pool.Close)

	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		log.Error(ctx, "failed to connect to redis", err)
		return nil, err
	}
	closers = append(closers, func() { _ = rdb.Close() })

	rabbitClient, err := rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		log.Error(ctx, "failed to connect to rabbitmq", err)
		return nil, err
	}
	closers = append(closers, func() { _ = rabbitClient.Close(context.WithoutCancel(ctx)) })

	// repositories
	userRepo := postgres.NewUserRepo(db.Pool)
	refreshRepo := postgres.NewRefreshTokenRepo(db.Pool)
	notificationRepo := postgres.NewNotificationRepo(db.Pool)
	adminRepo := postgres.NewAdminRepo(db.Pool)

	// providers
	fcmSender, err := fcm.New(ctx, cfg.Providers.FirebaseProjectID, cfg.Providers.FirebaseCredentialsFile, userRepo)
	if err != nil {
		log.Error(ctx, "failed to setup firebase messaging", err)
		return nil, err
	}
	if !fcmSender.Configured() {
		log.Warn(ctx, "firebase credentials not set, push delivery disabled")
	}

	pushProducer, err := rabbitadapter.NewPushProducer(rabbitClient)
	if err != nil {
		log.Error(ctx, "failed to setup push producer", err)
		return nil, err
	}

	smsProvider := twilio.New(cfg.Providers.TwilioAccountSID, cfg.Providers.TwilioAuthToken, cfg.Providers.TwilioServiceSID, cfg.Providers.HTTPTimeout)
	chatProvider := gemini.New(cfg.Providers.GeminiAPIKey, cfg.Providers.GeminiModel, cfg.Providers.HTTPTimeout)
	phoneResolver := phoneemail.New(phoneemail.DefaultHosts, cfg.Providers.HTTPTimeout)
	otpLimiter := redisadapter.NewLimiter(rdb, otpLimiterPrefix, redisadapter.BucketConfig{
		Capacity:       cfg.OTP.Capacity,
		RefillTokens:   cfg.OTP.RefillTokens,
		RefillInterval: cfg.OTP.RefillInterval,
		TTL:            cfg.OTP.TTL,
	})

	// services
	tokenSvc := auth.NewTokenService(cfg.Auth.JWTSecret, userRepo, refreshRepo, trm.New(db.Pool), cfg.Auth.RefreshTokenTTL, cfg.Auth.AccessTokenTTL, log)
	authSvc := auth.NewAuthService(userRepo, tokenSvc, log)
	notifier := notification.NewService(notificationRepo, userRepo, pushProducer, fcmSender, log)
	adminSvc := admin.NewAdminService(userRepo, redisadapter.NewSessionStore(rdb), adminRepo, adminRepo, notifier, cfg.Admin.SessionTTL, log)
	botSvc := aichat.NewService(chatProvider, log)
	otpSvc := otp.NewService(smsProvider, otpLimiter, phoneResolver, userRepo, log)

	if cfg.Services.ServiceKey == "" {
		log.Warn(ctx, "service key not set, internal callers cannot authenticate")
	}

	server, err := httpserver.New(cfg, httpserver.Services{
		Functions: handler.FunctionDeps{
			Users:       authSvc,
			Admin:       adminSvc,
			Bot:         botSvc,
			Push:        pushProducer,
			Broadcaster: notifier,
			OTP:         otpSvc,
			ServiceKey:  cfg.Services.ServiceKey,
		},
		Health: map[string]handler.Pinger{
			"postgres": db.Pool,
			"redis":    redisPinger(rdb),
			"rabbitmq": rabbitPinger(rabbitClient),
		},
	}, log)
	if err != nil {
		log.Error(ctx, "failed to setup http server", err)
		return nil, err
	}

	return &FunctionsService{
		postgresDB:      db,
		redis:           rdb,
		rabbitClient:    rabbitClient,
		pushConsumer:    rabbitadapter.NewPushConsumer(rabbitClient, log),
		fcm:             fcmSender,
		httpServer:      server,
		shutdownTracing: shutdownTracing,
		cfg:             cfg,
		log:             log,
	}, nil
}

func (s *FunctionsService) Start(ctx context.Context) error {
	consumeCtx, stopConsumer := context.WithCancel(ctx)
	defer func() {
		stopConsumer()
		s.close(ctx)
		s.log.Info(ctx, "functions service closed")
	}()

	errCh := make(chan error, 2)
	s.httpServer.Run(ctx, errCh)

	go func() {
		if err := s.pushConsumer.Consume(consumeCtx, s.deliverPush); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("push consumer: %w", err)
		}
	}()

	return wait(wrap.WithAction(ctx, "functions_start"), errCh, s.log)
}

// deliverPush sends one queued push through FCM.
func (s *FunctionsService) deliverPush(ctx context.Context, req models.PushRequest) error {
	res, err := s.fcm.Push(ctx, req)
	if err != nil {
		return err
	}
	s.log.Debug(ctx, "push delivered", "user_id", req.UserID.String(), "message_id", res.MessageID)
	return nil
}

func (s *FunctionsService) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second*10)
	defer cancel()

	if err := s.httpServer.Stop(ctx); err != nil {
		s.log.Error(ctx, "failed to shutdown HTTP server", err)
	}

	if err := s.rabbitClient.Close(ctx); err != nil {
		s.log.Warn(ctx, "failed to close rabbitmq connection", "error", err.Error())
	}

	if err := s.redis.Close(); err != nil {
		s.log.Warn(ctx, "failed to close redis client", "error", err.Error())
	}

	s.postgresDB.Pool.Close()

	if err := s.shutdownTracing(ctx); err != nil {
		s.log.Warn(ctx, "failed to flush traces", "error", err.Error())
	}
}
