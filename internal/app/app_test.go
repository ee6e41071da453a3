package app

import (
	"context"
	"errors"
	"testing"

	"github.com/hpyride/hpyride/config"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/pkg/logger"
)

type startFunc func(ctx context.Context) error

func (f startFunc) Start(ctx context.Context) error { return f(ctx) }

func TestInitService(t *testing.T) {
	errBoom := errors.New("boom")
	started := false
	registry := map[types.ServiceMode]constructor{
		types.APIService: func(context.Context, config.Config, logger.Logger) (Service, error) {
			return startFunc(func(context.Context) error { started = true; return nil }), nil
		},
		types.RealtimeService: func(context.Context, config.Config, logger.Logger) (Service, error) {
			return nil, errBoom
		},
		types.FunctionsService: func(context.Context, config.Config, logger.Logger) (Service, error) {
			return nil, nil
		},
	}

	tests := []struct {
		mode types.ServiceMode
		want error
	}{
		{types.APIService, nil},
		{types.RealtimeService, errBoom},
		{types.FunctionsService, ErrServiceNotInitialized},
		{types.ServiceMode("driver-service"), ErrInvalidMode},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			a := &App{mode: tt.mode, log: logger.Discard()}
			err := a.initService(context.Background(), registry)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if err != nil {
				return
			}
			if err := a.Run(context.Background()); err != nil || !started {
				t.Fatalf("run: err=%v started=%v", err, started)
			}
		})
	}
}

func TestRun_WithoutService(t *testing.T) {
	a := &App{log: logger.Discard()}
	if err := a.Run(context.Background()); !errors.Is(err, ErrServiceNotInitialized) {
		t.Fatalf("err = %v", err)
	}
}

func TestRegistryCoversEveryMode(t *testing.T) {
	for _, mode := range []types.ServiceMode{types.APIService, types.RealtimeService, types.FunctionsService} {
		if services[mode] == nil {
			t.Errorf("no constructor for %s", mode)
		}
	}
}
