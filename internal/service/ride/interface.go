package ride

import (
	"context"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/internal/service/notification"
)

type RideRepo interface {
	Create(ctx context.Context, ride *models.Ride) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	Search(ctx context.Context, search models.RideSearch) ([]models.Ride, models.Metadata, error)
	ListByDriver(ctx context.Context, driverID uuid.UUID, filters models.Filters) ([]models.Ride, models.Metadata, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status types.RideStatus) error
}

type VehicleRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
}

type BookingRepo interface {
	ListActiveByRide(ctx context.Context, rideID uuid.UUID) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to types.BookingStatus, reason string) (*models.Booking, error)
}

type Notifier interface {
	Send(ctx context.Context, userID uuid.UUID, t notification.Template) (*models.Notification, error)
}
