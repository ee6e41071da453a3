package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hpyride/hpyride/config"
	"github.com/hpyride/hpyride/internal/adapter/http/handler"
	"github.com/hpyride/hpyride/internal/adapter/http/middleware"
	wshandler "github.com/hpyride/hpyride/internal/adapter/http/ws"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
)

const serverIPAddress = "%s:%s"

var ErrMissingService = errors.New("required service not provided")

// Services are the dependencies of the handlers. Only the ones of the running mode are required.
type Services struct {
	// Users authenticates bearer tokens for the Auth middleware. Optional.
	Users middleware.AuthService

	Auth         handler.AuthService
	Rides        handler.RideService
	Bookings     handler.BookingService
	Chat         handler.ChatService
	Verification handler.VerificationService
	Notification handler.NotificationService
	Cues         handler.CueRenderer

	Gateway *wshandler.Gateway

	Functions handler.FunctionDeps

	// Health maps dependency names to their pingers.
	Health map[string]handler.Pinger
}

type API struct {
	mode   types.ServiceMode
	mux    *http.ServeMux
	server *http.Server
	routes *handlers
	m      *middleware.Middleware

	addr string
	cfg  config.Config
	log  logger.Logger
}

type handlers struct {
	health *handler.Health

	auth         *handler.Auth
	ride         *handler.Ride
	booking      *handler.Booking
	chat         *handler.Chat
	verification *handler.Verification
	notification *handler.Notification
	feedback     *handler.Feedback

	gateway *wshandler.Gateway

	functions *handler.Functions
}

func New(cfg config.Config, svc Services, logger logger.Logger) (*API, error) {
	var addr string
	handlers := &handlers{
		health: handler.NewHealth(cfg.Mode.String(), svc.Health, logger),
	}

	switch cfg.Mode {
	case types.APIService:
		if svc.Auth == nil || svc.Rides == nil || svc.Bookings == nil || svc.Chat == nil ||
			svc.Verification == nil || svc.Notification == nil || svc.Cues == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingService, cfg.Mode)
		}
		addr = fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.Services.APIService)
		handlers.auth = handler.NewAuth(svc.Auth, logger)
		handlers.ride = handler.NewRide(svc.Rides, logger)
		handlers.booking = handler.NewBooking(svc.Bookings, logger)
		handlers.chat = handler.NewChat(svc.Chat, logger)
		handlers.verification = handler.NewVerification(svc.Verification, logger)
		handlers.notification = handler.NewNotification(svc.Notification, logger)
		handlers.feedback = handler.NewFeedback(svc.Cues, logger)
	case types.RealtimeService:
		if svc.Gateway == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingService, cfg.Mode)
		}
		addr = fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.Services.RealtimeService)
		handlers.gateway = svc.Gateway
	case types.FunctionsService:
		addr = fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.Services.FunctionsService)
		handlers.functions = handler.NewFunctions(svc.Functions, logger)
	default:
		return nil, fmt.Errorf("invalid mode: %s", cfg.Mode)
	}

	api := &API{
		mode:   cfg.Mode,
		mux:    http.NewServeMux(),
		routes: handlers,
		m:      middleware.NewMiddleware(svc.Users, logger),
		addr:   addr,
		cfg:    cfg,
		log:    logger,
	}

	setupRoutes(api.mux, api.routes, api.m, api.mode, logger)

	api.server = &http.Server{
		Addr:              api.addr,
		Handler:           api.withMiddleware(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return api, nil
}

// Handler returns the full middleware chain around the routes.
func (a *API) Handler() http.Handler {
	return a.server.Handler
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

// withMiddleware applies middlewares to the mux. Route must stay innermost.
func (a *API) withMiddleware() http.Handler {
	service := a.mode.String()

	var h http.Handler = a.m.Route(a.mux)
	h = a.m.Auth(h)
	h = a.m.Metrics(service)(h)
	h = a.m.Logging(h)
	h = a.m.Tracing(service)(h)
	h = a.m.RequestID(h)
	return a.m.Recover(h)
}
