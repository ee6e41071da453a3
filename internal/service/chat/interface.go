package chat

import (
	"context"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/service/notification"
)

type MessageRepo interface {
	Create(ctx context.Context, m *models.ChatMessage) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID, filters models.Filters) ([]models.ChatMessage, models.Metadata, error)
}

type CarChatRepo interface {
	Create(ctx context.Context, m *models.CarChatMessage) error
	// ListByListing returns the messages of a listing that userID sent or received.
	ListByListing(ctx context.Context, listingID, userID uuid.UUID, filters models.Filters) ([]models.CarChatMessage, models.Metadata, error)
}

type BookingRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
}

type RideRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Ride, error)
}

type Notifier interface {
	Send(ctx context.Context, userID uuid.UUID, t notification.Template) (*models.Notification, error)
}
