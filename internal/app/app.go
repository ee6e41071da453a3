package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hpyride/hpyride/config"
	"github.com/hpyride/hpyride/internal/app/microservices"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
)

var (
	ErrInvalidMode           = errors.New("invalid mode")
	ErrServiceNotInitialized = errors.New("service not initialized")
)

type Service interface {
	Start(ctx context.Context) error
}

type constructor func(ctx context.Context, cfg config.Config, log logger.Logger) (Service, error)

// services maps every runnable mode to the constructor of its process.
var services = map[types.ServiceMode]constructor{
	types.APIService: func(ctx context.Context, cfg config.Config, log logger.Logger) (Service, error) {
		return microservices.NewAPI(ctx, cfg, log)
	},
	types.RealtimeService: func(ctx context.Context, cfg config.Config, log logger.Logger) (Service, error) {
		return microservices.NewRealtime(ctx, cfg, log)
	},
	types.FunctionsService: func(ctx context.Context, cfg config.Config, log logger.Logger) (Service, error) {
		return microservices.NewFunctions(ctx, cfg, log)
	},
}

type App struct {
	mode    types.ServiceMode
	service Service

	cfg config.Config
	log logger.Logger
}

// NewApplication builds the service of the configured mode.
func NewApplication(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	app := &App{
		mode: cfg.Mode,
		cfg:  cfg,
		log:  log,
	}

	if err := app.initService(ctx, services); err != nil {
		return nil, err
	}

	return app, nil
}

func (a *App) Run(ctx context.Context) error {
	if a.service == nil {
		return ErrServiceNotInitialized
	}

	a.log.Info(wrap.WithAction(ctx, "app_run"), "starting service", "mode", a.mode.String())
	return a.service.Start(ctx)
}

func (a *App) initService(ctx context.Context, registry map[types.ServiceMode]constructor) error {
	newService, ok := registry[a.mode]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidMode, a.mode)
	}

	service, err := newService(ctx, a.cfg, a.log)
	if err != nil {
		return fmt.Errorf("failed to init %s: %w", a.mode, err)
	}
	if service == nil {
		return fmt.Errorf("%w: %s", ErrServiceNotInitialized, a.mode)
	}

	a.service = service
	return nil
}
