package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessToken  = "access"
	RefreshToken = "refresh"
)

func IsValidTokenType(typ string) bool {
	return typ == AccessToken || typ == RefreshToken
}

type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

type CustomClaims struct {
	UserID    uuid.UUID
	TokenID   uuid.UUID
	TokenType string
	Email     string
	Role      string
	jwt.RegisteredClaims
}

// RefreshTokenRecord is the persisted form of an issued refresh token.
type RefreshTokenRecord struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	LastUsed  *time.Time
}
