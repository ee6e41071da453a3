package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
)

// UserRepo lookups return types.ErrUserNotFound when no row matches.
type UserRepo interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RefreshTokenRepo Get returns nil, nil when the token id is unknown.
type RefreshTokenRepo interface {
	Save(ctx context.Context, record *models.RefreshTokenRecord) error
	Get(ctx context.Context, tokenID uuid.UUID) (*models.RefreshTokenRecord, error)
	MarkUsed(ctx context.Context, tokenID uuid.UUID) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

type TokenProvider interface {
	GenerateTokens(ctx context.Context, user *models.User) (*models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Revoke(ctx context.Context, refreshToken string) error
	Validate(ctx context.Context, token string) (*models.CustomClaims, error)
}
