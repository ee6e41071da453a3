package middleware

import (
	"context"

	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/pkg/logger"
)

type (
	AuthService interface {
		Authenticate(ctx context.Context, accessToken string) (*models.User, error)
	}

	Middleware struct {
		auth AuthService
		log  logger.Logger
	}
)

// NewMiddleware builds the middleware set. auth may be nil for services without end-user
// authentication; Auth then treats every request as anonymous.
func NewMiddleware(auth AuthService, log logger.Logger) *Middleware {
	return &Middleware{
		auth: auth,
		log:  log,
	}
}
