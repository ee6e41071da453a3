package booking

import (
	"context"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/internal/service/notification"
)

type BookingRepo interface {
	Create(ctx context.Context, b *models.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListForUser(ctx context.Context, userID uuid.UUID, filters models.Filters) ([]models.Booking, models.Metadata, error)
	// UpdateStatus changes the status only when it still equals from and returns
	// types.ErrInvalidTransition otherwise.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to types.BookingStatus, reason string) (*models.Booking, error)
}

type RideRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	// ReserveSeats returns types.ErrNoSeatsAvailable when fewer than n seats are left.
	ReserveSeats(ctx context.Context, rideID uuid.UUID, n int) error
	ReleaseSeats(ctx context.Context, rideID uuid.UUID, n int) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status types.RideStatus) error
}

type VehicleRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
}

// RatingRepo Create returns types.ErrAlreadyRated when the rater already rated the booking.
type RatingRepo interface {
	Create(ctx context.Context, r *models.Rating) error
}

type Notifier interface {
	Send(ctx context.Context, userID uuid.UUID, t notification.Template) (*models.Notification, error)
}
