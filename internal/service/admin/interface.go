package admin

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/internal/service/notification"
)

type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, role types.UserRole, filters models.Filters) ([]models.User, models.Metadata, error)
}

// SessionStore keeps admin sessions keyed by the hash of their token.
// Get returns types.ErrNotFound for unknown or expired keys.
type SessionStore interface {
	Save(ctx context.Context, key string, session *models.AdminSession, ttl time.Duration) error
	Get(ctx context.Context, key string) (*models.AdminSession, error)
	Delete(ctx context.Context, key string) error
}

// ReviewRepo Review methods only change rows that are pending and return types.ErrNotFound otherwise.
type ReviewRepo interface {
	ListVerifications(ctx context.Context, status types.VerificationStatus, filters models.Filters) ([]models.Verification, models.Metadata, error)
	ReviewVerification(ctx context.Context, id uuid.UUID, review models.Review) (*models.Verification, error)
	ListVehicles(ctx context.Context, status types.VerificationStatus, filters models.Filters) ([]models.Vehicle, models.Metadata, error)
	ReviewVehicle(ctx context.Context, id uuid.UUID, review models.Review) (*models.Vehicle, error)
}

type OverviewRepo interface {
	Overview(ctx context.Context) (*models.Overview, error)
}

type Notifier interface {
	Send(ctx context.Context, userID uuid.UUID, t notification.Template) (*models.Notification, error)
}
