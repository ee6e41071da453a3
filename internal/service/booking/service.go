package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/internal/service/notification"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	"github.com/hpyride/hpyride/pkg/metrics"
	"github.com/hpyride/hpyride/pkg/trm"
)

const dateLayout = "02 Jan 2006"

// BookingService moves bookings through their lifecycle and notifies the other side of
// every transition.
type BookingService struct {
	repo     BookingRepo
	rides    RideRepo
	vehicles VehicleRepo
	ratings  RatingRepo
	notifier Notifier
	log      logger.Logger
	trm      trm.TxManager
}

func NewBookingService(repo BookingRepo, rides RideRepo, vehicles VehicleRepo, ratings RatingRepo, notifier Notifier, log logger.Logger, trm trm.TxManager) *BookingService {
	return &BookingService{
		repo:     repo,
		rides:    rides,
		vehicles: vehicles,
		ratings:  ratings,
		notifier: notifier,
		log:      log,
		trm:      trm,
	}
}

// Request creates a booking for seats on a scheduled ride.
func (s *BookingService) Request(ctx context.Context, rider *models.User, rideID uuid.UUID, seats int) (*models.Booking, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "request_booking", UserID: rider.ID.String()})

	if seats <= 0 {
		return nil, types.ErrInvalidInput
	}

	ride, err := s.rides.FindByID(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	switch {
	case ride.Status != types.RideScheduled:
		return nil, wrap.Error(ctx, types.ErrRideNotBookable)
	case ride.DriverID == rider.ID:
		return nil, wrap.Error(ctx, types.ErrOwnRide)
	case ride.SeatsAvailable < seats:
		return nil, wrap.Error(ctx, types.ErrNoSeatsAvailable)
	}

	b := &models.Booking{
		RideID:   ride.ID,
		RiderID:  rider.ID,
		DriverID: ride.DriverID,
		Seats:    seats,
		Status:   types.BookingRequested,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("could not create booking: %w", err))
	}

	ctx = wrap.WithBookingID(ctx, b.ID.String())
	metrics.BookingTransitionsTotal.WithLabelValues(b.Status.String()).Inc()
	s.log.Info(ctx, "booking requested", "ride_id", ride.ID.String(), "seats", seats)

	s.notify(ctx, b.DriverID, notification.NewRideRequest(rider.Name, ride.Origin), b)
	return b, nil
}

func (s *BookingService) Get(ctx context.Context, user *models.User, id uuid.UUID) (*models.Booking, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("BookingService.Get: %w", err)
	}
	if _, ok := b.Counterpart(user.ID); !ok && !user.HasRole(types.RoleAdmin) {
		return nil, types.ErrNotParticipant
	}
	return b, nil
}

func (s *BookingService) ListMine(ctx context.Context, userID uuid.UUID, filters models.Filters) ([]models.Booking, models.Metadata, error) {
	list, meta, err := s.repo.ListForUser(ctx, userID, filters)
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("BookingService.ListMine: %w", err)
	}
	return list, meta, nil
}

// Confirm accepts a requested booking and reserves its seats in the same transaction.
func (s *BookingService) Confirm(ctx context.Context, driver *models.User, id uuid.UUID) (*models.Booking, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "confirm_booking", UserID: driver.ID.String(), BookingID: id.String()})

	var (
		b    *models.Booking
		ride *models.Ride
	)
	err := s.trm.Do(ctx, func(ctx context.Context) error {
		current, err := s.asDriver(ctx, driver.ID, id)
		if err != nil {
			return err
		}
		if err := s.rides.ReserveSeats(ctx, current.RideID, current.Seats); err != nil {
			return err
		}
		if ride, err = s.rides.FindByID(ctx, current.RideID); err != nil {
			return err
		}
		b, err = s.transition(ctx, current, types.BookingConfirmed, "")
		return err
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.notify(ctx, b.RiderID, notification.RideAccepted(driver.Name), b)
	s.notify(ctx, b.RiderID, notification.BookingConfirmed(ride.Origin, ride.DepartureAt.Format(dateLayout)), b)
	return b, nil
}

// Reject declines a requested booking.
func (s *BookingService) Reject(ctx context.Context, driver *models.User, id uuid.UUID, reason string) (*models.Booking, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "reject_booking", UserID: driver.ID.String(), BookingID: id.String()})

	current, err := s.asDriver(ctx, driver.ID, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	b, err := s.transition(ctx, current, types.BookingRejected, reason)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if reason == "" {
		reason = "The driver could not accept your request."
	}
	s.notify(ctx, b.RiderID, notification.BookingCancelled(reason), b)
	return b, nil
}

// Arrive tells the rider that the driver reached the pickup point. The status is unchanged.
func (s *BookingService) Arrive(ctx context.Context, driver *models.User, id uuid.UUID) (*models.Booking, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "driver_arrived", UserID: driver.ID.String(), BookingID: id.String()})

	b, err := s.asDriver(ctx, driver.ID, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if b.Status != types.BookingConfirmed {
		return nil, wrap.Error(ctx, types.ErrInvalidTransition)
	}

	vehicleNo := "your ride"
	if ride, err := s.rides.FindByID(ctx, b.RideID); err == nil {
		if v, err := s.vehicles.FindByID(ctx, ride.VehicleID); err == nil {
			vehicleNo = v.RegistrationNumber
		}
	}

	s.notify(ctx, b.RiderID, notification.DriverArrived(driver.Name, vehicleNo), b)
	return b, nil
}

// Start begins the trip. The ride moves to in_progress with its first started booking.
func (s *BookingService) Start(ctx context.Context, driver *models.User, id uuid.UUID) (*models.Booking, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "start_trip", UserID: driver.ID.String(), BookingID: id.String()})

	var b *models.Booking
	err := s.trm.Do(ctx, func(ctx context.Context) error {
		current, err := s.asDriver(ctx, driver.ID, id)
		if err != nil {
			return err
		}
		if b, err = s.transition(ctx, current, types.BookingInProgress, ""); err != nil {
			return err
		}

		ride, err := s.rides.FindByID(ctx, b.RideID)
		if err != nil {
			return err
		}
		if ride.Status == types.RideScheduled {
			return s.rides.UpdateStatus(ctx, ride.ID, types.RideInProgress)
		}
		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.notify(ctx, b.RiderID, notification.TripStarted(), b)
	return b, nil
}

// Complete finishes the trip and tells the rider the fare.
func (s *BookingService) Complete(ctx context.Context, driver *models.User, id uuid.UUID) (*models.Booking, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "complete_trip", UserID: driver.ID.String(), BookingID: id.String()})

	current, err := s.asDriver(ctx, driver.ID, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	b, err := s.transition(ctx, current, types.BookingCompleted, "")
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	fare := 0.0
	if ride, err := s.rides.FindByID(ctx, b.RideID); err == nil {
		fare = ride.Fare * float64(b.Seats)
	} else {
		s.log.Warn(ctx, "fare unavailable for completed trip", "error", err.Error())
	}

	s.notify(ctx, b.RiderID, notification.TripCompleted(fare), b)
	return b, nil
}

// Cancel is allowed to either participant before the trip starts. Reserved seats are released.
func (s *BookingService) Cancel(ctx context.Context, user *models.User, id uuid.UUID, reason string) (*models.Booking, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "cancel_booking", UserID: user.ID.String(), BookingID: id.String()})
	reason = strings.TrimSpace(reason)

	var b *models.Booking
	err := s.trm.Do(ctx, func(ctx context.Context) error {
		current, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if _, ok := current.Counterpart(user.ID); !ok {
			return types.ErrNotParticipant
		}

		if b, err = s.transition(ctx, current, types.BookingCancelled, reason); err != nil {
			return err
		}
		if current.Status == types.BookingConfirmed {
			return s.rides.ReleaseSeats(ctx, b.RideID, b.Seats)
		}
		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	other, _ := b.Counterpart(user.ID)
	s.notify(ctx, other, notification.BookingCancelled(reason), b)
	return b, nil
}

// Rate records a 1 to 5 star rating of the other participant of a completed booking.
func (s *BookingService) Rate(ctx context.Context, user *models.User, id uuid.UUID, stars int, comment string) (*models.Rating, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "rate_booking", UserID: user.ID.String(), BookingID: id.String()})

	if stars < 1 || stars > 5 {
		return nil, types.ErrInvalidInput
	}

	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	ratee, ok := b.Counterpart(user.ID)
	if !ok {
		return nil, wrap.Error(ctx, types.ErrNotParticipant)
	}
	if b.Status != types.BookingCompleted {
		return nil, wrap.Error(ctx, types.ErrBookingNotCompleted)
	}

	r := &models.Rating{
		BookingID: b.ID,
		RaterID:   user.ID,
		RateeID:   ratee,
		Stars:     stars,
		Comment:   strings.TrimSpace(comment),
	}
	if err := s.ratings.Create(ctx, r); err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return r, nil
}

func (s *BookingService) asDriver(ctx context.Context, driverID, id uuid.UUID) (*models.Booking, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.DriverID != driverID {
		return nil, types.ErrForbidden
	}
	return b, nil
}

func (s *BookingService) transition(ctx context.Context, b *models.Booking, to types.BookingStatus, reason string) (*models.Booking, error) {
	if !b.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: %s to %s", types.ErrInvalidTransition, b.Status, to)
	}

	updated, err := s.repo.UpdateStatus(ctx, b.ID, b.Status, to, strings.TrimSpace(reason))
	if err != nil {
		return nil, err
	}

	metrics.BookingTransitionsTotal.WithLabelValues(to.String()).Inc()
	s.log.Info(ctx, "booking status changed", "from", b.Status.String(), "to", to.String())
	return updated, nil
}

func (s *BookingService) notify(ctx context.Context, userID uuid.UUID, t notification.Template, b *models.Booking) {
	t = t.With("booking_id", b.ID.String()).With("ride_id", b.RideID.String())
	if _, err := s.notifier.Send(ctx, userID, t); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Error(ctx, "failed to send notification", err, "kind", t.Kind.String())
	}
}
