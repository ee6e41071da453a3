package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
)

const sessionPrefix = "admin:session:"

// SessionStore keeps admin sessions as JSON strings with a TTL.
type SessionStore struct {
	rdb goredis.Cmdable
}

func NewSessionStore(rdb goredis.Cmdable) *SessionStore {
	return &SessionStore{rdb: rdb}
}

// storedSession is the persisted form. The session token itself is never written.
type storedSession struct {
	AdminUser models.AdminUser `json:"adminUser"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

func (s *SessionStore) Save(ctx context.Context, key string, session *models.AdminSession, ttl time.Duration) error {
	body, err := json.Marshal(storedSession{
		AdminUser: session.AdminUser,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("SessionStore.Save: %w", err)
	}

	if err := s.rdb.Set(ctx, sessionPrefix+key, body, ttl).Err(); err != nil {
		return fmt.Errorf("SessionStore.Save: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, key string) (*models.AdminSession, error) {
	body, err := s.rdb.Get(ctx, sessionPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("SessionStore.Get: %w", err)
	}

	var stored storedSession
	if err := json.Unmarshal(body, &stored); err != nil {
		return nil, fmt.Errorf("SessionStore.Get: %w", err)
	}
	return &models.AdminSession{
		AdminUser: stored.AdminUser,
		CreatedAt: stored.CreatedAt,
		ExpiresAt: stored.ExpiresAt,
	}, nil
}

func (s *SessionStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, sessionPrefix+key).Err(); err != nil {
		return fmt.Errorf("SessionStore.Delete: %w", err)
	}
	return nil
}
