package ride

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/internal/service/notification"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	"github.com/hpyride/hpyride/pkg/metrics"
	"github.com/hpyride/hpyride/pkg/trm"
)

type RideService struct {
	repo     RideRepo
	vehicles VehicleRepo
	bookings BookingRepo
	notifier Notifier
	logger   logger.Logger
	trm      trm.TxManager
}

func NewRideService(repo RideRepo, vehicles VehicleRepo, bookings BookingRepo, notifier Notifier, logger logger.Logger, trm trm.TxManager) *RideService {
	return &RideService{
		repo:     repo,
		vehicles: vehicles,
		bookings: bookings,
		notifier: notifier,
		logger:   logger,
		trm:      trm,
	}
}

// Create posts a ride for a driver with a verified vehicle.
func (s *RideService) Create(ctx context.Context, driver *models.User, ride *models.Ride) (*models.Ride, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "create_ride", UserID: driver.ID.String()})

	vehicle, err := s.vehicles.FindByID(ctx, ride.VehicleID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if vehicle.OwnerID != driver.ID {
		return nil, wrap.Error(ctx, types.ErrForbidden)
	}
	if vehicle.Status != types.VerificationVerified {
		return nil, wrap.Error(ctx, types.ErrVehicleNotVerified)
	}
	if ride.SeatsTotal > vehicle.Seats {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: vehicle has %d seats", types.ErrInvalidInput, vehicle.Seats))
	}

	ride.DriverID = driver.ID
	ride.Origin = strings.TrimSpace(ride.Origin)
	ride.Destination = strings.TrimSpace(ride.Destination)
	ride.SeatsAvailable = ride.SeatsTotal
	ride.Status = types.RideScheduled

	if err := s.repo.Create(ctx, ride); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("could not create ride in repo: %w", err))
	}

	s.logger.Info(ctx, "ride created", "ride_id", ride.ID.String(), "departure_at", ride.DepartureAt.Format(time.RFC3339))
	return ride, nil
}

func (s *RideService) Get(ctx context.Context, id uuid.UUID) (*models.Ride, error) {
	ride, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("RideService.Get: %w", err)
	}
	return ride, nil
}

func (s *RideService) Search(ctx context.Context, search models.RideSearch) ([]models.Ride, models.Metadata, error) {
	if search.MinSeats <= 0 {
		search.MinSeats = 1
	}
	rides, meta, err := s.repo.Search(ctx, search)
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("RideService.Search: %w", err)
	}
	return rides, meta, nil
}

func (s *RideService) ListMine(ctx context.Context, driverID uuid.UUID, filters models.Filters) ([]models.Ride, models.Metadata, error) {
	rides, meta, err := s.repo.ListByDriver(ctx, driverID, filters)
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("RideService.ListMine: %w", err)
	}
	return rides, meta, nil
}

// Cancel cancels a scheduled ride and every active booking on it. Riders are notified.
func (s *RideService) Cancel(ctx context.Context, driverID, rideID uuid.UUID, reason string) (*models.Ride, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "cancel_ride", UserID: driverID.String()})
	reason = strings.TrimSpace(reason)

	var (
		ride      *models.Ride
		cancelled []models.Booking
	)

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		var err error
		ride, err = s.owned(ctx, driverID, rideID)
		if err != nil {
			return err
		}
		if ride.Status != types.RideScheduled {
			return types.ErrRideCannotBeChanged
		}

		if err := s.repo.UpdateStatus(ctx, ride.ID, types.RideCancelled); err != nil {
			return fmt.Errorf("could not update ride: %w", err)
		}
		ride.Status = types.RideCancelled

		active, err := s.bookings.ListActiveByRide(ctx, ride.ID)
		if err != nil {
			return fmt.Errorf("could not list bookings: %w", err)
		}
		for _, b := range active {
			updated, err := s.bookings.UpdateStatus(ctx, b.ID, b.Status, types.BookingCancelled, reason)
			if err != nil {
				return fmt.Errorf("could not cancel booking %s: %w", b.ID, err)
			}
			cancelled = append(cancelled, *updated)
		}
		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	metrics.BookingTransitionsTotal.WithLabelValues(types.BookingCancelled.String()).Add(float64(len(cancelled)))
	for _, b := range cancelled {
		s.notify(ctx, b.RiderID, notification.BookingCancelled(reason).With("booking_id", b.ID.String()))
	}

	s.logger.Info(ctx, "ride cancelled", "ride_id", ride.ID.String(), "bookings_cancelled", len(cancelled))
	return ride, nil
}

// Complete closes a ride once the driver has finished it.
func (s *RideService) Complete(ctx context.Context, driverID, rideID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "complete_ride", UserID: driverID.String()})

	var ride *models.Ride
	err := s.trm.Do(ctx, func(ctx context.Context) error {
		var err error
		ride, err = s.owned(ctx, driverID, rideID)
		if err != nil {
			return err
		}
		if ride.Status != types.RideScheduled && ride.Status != types.RideInProgress {
			return types.ErrRideCannotBeChanged
		}
		if err := s.repo.UpdateStatus(ctx, ride.ID, types.RideCompleted); err != nil {
			return fmt.Errorf("could not update ride: %w", err)
		}
		ride.Status = types.RideCompleted
		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	return ride, nil
}

func (s *RideService) owned(ctx context.Context, driverID, rideID uuid.UUID) (*models.Ride, error) {
	ride, err := s.repo.FindByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != driverID {
		return nil, types.ErrForbidden
	}
	return ride, nil
}

func (s *RideService) notify(ctx context.Context, userID uuid.UUID, t notification.Template) {
	if _, err := s.notifier.Send(ctx, userID, t); err != nil {
		s.logger.Error(ctx, "failed to send notification", err, "kind", t.Kind.String())
	}
}
