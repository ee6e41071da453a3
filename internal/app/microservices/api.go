package microservices

import (
	"context"
	"time"

	"github.com/hpyride/hpyride/config"
	"github.com/hpyride/hpyride/internal/adapter/functions"
	"github.com/hpyride/hpyride/internal/adapter/http/handler"
	httpserver "github.com/hpyride/hpyride/internal/adapter/http/server"
	"github.com/hpyride/hpyride/internal/adapter/postgres"
	"github.com/hpyride/hpyride/internal/service/auth"
	"github.com/hpyride/hpyride/internal/service/booking"
	"github.com/hpyride/hpyride/internal/service/chat"
	"github.com/hpyride/hpyride/internal/service/feedback"
	"github.com/hpyride/hpyride/internal/service/notification"
	"github.com/hpyride/hpyride/internal/service/ride"
	"github.com/hpyride/hpyride/internal/service/verification"
	"github.com/hpyride/hpyride/pkg/logger"
	postgresclient "github.com/hpyride/hpyride/pkg/postgres"
	"github.com/hpyride/hpyride/pkg/tracing"
	"github.com/hpyride/hpyride/pkg/trm"
)

// APIService is the REST surface: auth, rides, bookings, chat, verification,
// notifications and feedback cues.
type APIService struct {
	postgresDB      *postgresclient.PostgreDB
	httpServer      *httpserver.API
	shutdownTracing tracing.ShutdownFunc

	cfg config.Config
	log logger.Logger
}

func NewAPI(ctx context.Context, cfg config.Config, log logger.Logger) (*APIService, error) {
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
	txManager := trm.New(db.Pool)

	// repositories
	userRepo := postgres.NewUserRepo(db.Pool)
	refreshRepo := postgres.NewRefreshTokenRepo(db.Pool)
	rideRepo := postgres.NewRideRepo(db.Pool)
	bookingRepo := postgres.NewBookingRepo(db.Pool)
	vehicleRepo := postgres.NewVehicleRepo(db.Pool)
	verificationRepo := postgres.NewVerificationRepo(db.Pool)
	ratingRepo := postgres.NewRatingRepo(db.Pool)
	notificationRepo := postgres.NewNotificationRepo(db.Pool)
	chatRepo := postgres.NewChatRepo(db.Pool)
	carChatRepo := postgres.NewCarChatRepo(db.Pool)

	// pushes are delegated to the functions service
	pushClient := functions.New(cfg.Services.FunctionsURL, cfg.Services.ServiceKey, cfg.Providers.HTTPTimeout)

	// services
	tokenSvc := auth.NewTokenService(cfg.Auth.JWTSecret, userRepo, refreshRepo, txManager, cfg.Auth.RefreshTokenTTL, cfg.Auth.AccessTokenTTL, log)
	authSvc := auth.NewAuthService(userRepo, tokenSvc, log)
	notifier := notification.NewService(notificationRepo, userRepo, pushClient, nil, log)
	rideSvc := ride.NewRideService(rideRepo, vehicleRepo, bookingRepo, notifier, log, txManager)
	bookingSvc := booking.NewBookingService(bookingRepo, rideRepo, vehicleRepo, ratingRepo, notifier, log, txManager)
	chatSvc := chat.NewService(chatRepo, carChatRepo, bookingRepo, rideRepo, notifier, log)
	verificationSvc := verification.NewService(verificationRepo, vehicleRepo, log)
	cues := feedback.NewPlayer(nil, nil, feedback.DefaultSampleRate, log)

	server, err := httpserver.New(cfg, httpserver.Services{
		Users:        authSvc,
		Auth:         authSvc,
		Rides:        rideSvc,
		Bookings:     bookingSvc,
		Chat:         chatSvc,
		Verification: verificationSvc,
		Notification: notifier,
		Cues:         cues,
		Health: map[string]handler.Pinger{
			"postgres": db.Pool,
		},
	}, log)
	if err != nil {
		log.Error(ctx, "failed to setup http server", err)
		db.Pool.Close()
		return nil, err
	}

	return &APIService{
		postgresDB:      db,
		httpServer:      server,
		shutdownTracing: shutdownTracing,
		cfg:             cfg,
		log:             log,
	}, nil
}

func (s *APIService) Start(ctx context.Context) error {
	defer func() {
		s.close(ctx)
		s.log.Info(ctx, "api service closed")
	}()

	errCh := make(chan error, 1)
	s.httpServer.Run(ctx, errCh)

	return wait(ctx, errCh, s.log)
}

func (s *APIService) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second*10)
	defer cancel()

	if err := s.httpServer.Stop(ctx); err != nil {
		s.log.Error(ctx, "failed to shutdown HTTP server", err)
	}

	s.postgresDB.Pool.Close()

	if err := s.shutdownTracing(ctx); err != nil {
		s.log.Warn(ctx, "failed to flush traces", "error", err.Error())
	}
}
