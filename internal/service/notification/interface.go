package notification

import (
	"context"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
)

type NotificationRepo interface {
	Create(ctx context.Context, n *models.Notification) error
	CreateForAudience(ctx context.Context, role types.UserRole, n models.Notification) (int, error)
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, filters models.Filters) ([]models.Notification, models.Metadata, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

type PushTokenRepo interface {
	SetPushToken(ctx context.Context, userID uuid.UUID, token string) error
}

// PushSender requests delivery of one push notification.
type PushSender interface {
	Push(ctx context.Context, req models.PushRequest) (models.PushResult, error)
}

// Multicaster pushes one message to every device of an audience.
type Multicaster interface {
	Multicast(ctx context.Context, req models.BroadcastRequest) (models.BroadcastResult, error)
}
