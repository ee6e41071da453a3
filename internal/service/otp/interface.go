package otp

import (
	"context"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
)

// Provider is an SMS verification service.
type Provider interface {
	SendCode(ctx context.Context, phone string) (status string, err error)
	CheckCode(ctx context.Context, phone, code string) (bool, error)
}

// Limiter reports whether one more request for key is allowed now.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// PhoneResolver reads the verified phone number behind a one-time verification URL.
type PhoneResolver interface {
	Resolve(ctx context.Context, url string) (phone string, err error)
}

type UserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	SetPhoneVerified(ctx context.Context, userID uuid.UUID, phone string) error
}
