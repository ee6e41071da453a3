package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/types"
)

type UserCreateRequest struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     types.UserRole
}

type User struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	Phone         string         `json:"phone,omitempty"`
	PhoneVerified bool           `json:"phone_verified"`
	Role          types.UserRole `json:"role"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at,omitzero"`

	PushToken    string `json:"-"`
	PasswordHash string `json:"-"`
}

var anonymous = &User{}

// AnonymousUser is the identity of requests without credentials.
func AnonymousUser() *User {
	return anonymous
}

func (u *User) IsAnonymous() bool {
	return u == anonymous
}

func (u *User) HasRole(roles ...types.UserRole) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

type userCtxKey struct{}

func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext returns nil when no user was stored.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}
