package ride

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/internal/service/notification"
	"github.com/hpyride/hpyride/pkg/logger"
)

type memRides struct {
	rides map[uuid.UUID]models.Ride
}

func (m *memRides) Create(_ context.Context, r *models.Ride) error {
	r.ID = uuid.New()
	m.rides[r.ID] = *r
	return nil
}

func (m *memRides) FindByID(_ context.Context, id uuid.UUID) (*models.Ride, error) {
	r, ok := m.rides[id]
	if !ok {
		return nil, types.ErrRideNotFound
	}
	return &r, nil
}

func (m *memRides) Search(_ context.Context, s models.RideSearch) ([]models.Ride, models.Metadata, error) {
	var out []models.Ride
	for _, r := range m.rides {
		if r.SeatsAvailable >= s.MinSeats {
			out = append(out, r)
		}
	}
	return out, models.Metadata{TotalRecords: len(out)}, nil
}

func (m *memRides) ListByDriver(_ context.Context, driverID uuid.UUID, _ models.Filters) ([]models.Ride, models.Metadata, error) {
	var out []models.Ride
	for _, r := range m.rides {
		if r.DriverID == driverID {
			out = append(out, r)
		}
	}
	return out, models.Metadata{TotalRecords: len(out)}, nil
}

func (m *memRides) UpdateStatus(_ context.Context, id uuid.UUID, status types.RideStatus) error {
	r := m.rides[id]
	r.Status = status
	m.rides[id] = r
	return nil
}

type stubVehicles map[uuid.UUID]models.Vehicle

func (s stubVehicles) FindByID(_ context.Context, id uuid.UUID) (*models.Vehicle, error) {
	v, ok := s[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return &v, nil
}

type memBookings struct {
	bookings []models.Booking
}

func (m *memBookings) ListActiveByRide(_ context.Context, rideID uuid.UUID) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range m.bookings {
		if b.RideID == rideID && (b.Status == types.BookingRequested || b.Status.IsActive()) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBookings) UpdateStatus(_ context.Context, id uuid.UUID, from, to types.BookingStatus, reason string) (*models.Booking, error) {
	for i, b := range m.bookings {
		if b.ID != id {
			continue
		}
		if b.Status != from {
			return nil, types.ErrInvalidTransition
		}
		m.bookings[i].Status = to
		m.bookings[i].CancelReason = reason
		out := m.bookings[i]
		return &out, nil
	}
	return nil, types.ErrBookingNotFound
}

type recNotifier struct {
	to []uuid.UUID
}

func (n *recNotifier) Send(_ context.Context, userID uuid.UUID, _ notification.Template) (*models.Notification, error) {
	n.to = append(n.to, userID)
	return &models.Notification{}, nil
}

type noTx struct{}

func (noTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestCreate(t *testing.T) {
	driver := &models.User{ID: uuid.New(), Role: types.RoleDriver}
	verified := models.Vehicle{ID: uuid.New(), OwnerID: driver.ID, Seats: 4, Status: types.VerificationVerified}
	pending := models.Vehicle{ID: uuid.New(), OwnerID: driver.ID, Seats: 4, Status: types.VerificationPending}
	foreign := models.Vehicle{ID: uuid.New(), OwnerID: uuid.New(), Seats: 4, Status: types.VerificationVerified}

	rides := &memRides{rides: make(map[uuid.UUID]models.Ride)}
	svc := NewRideService(rides, stubVehicles{verified.ID: verified, pending.ID: pending, foreign.ID: foreign},
		&memBookings{}, &recNotifier{}, logger.Discard(), noTx{})
	ctx := context.Background()

	newRide := func(vehicle uuid.UUID, seats int) *models.Ride {
		return &models.Ride{
			VehicleID:   vehicle,
			Origin:      " MG Road ",
			Destination: "Airport",
			DepartureAt: time.Now().Add(24 * time.Hour),
			SeatsTotal:  seats,
			Fare:        150,
		}
	}

	r, err := svc.Create(ctx, driver, newRide(verified.ID, 3))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.Status != types.RideScheduled || r.SeatsAvailable != 3 || r.Origin != "MG Road" || r.DriverID != driver.ID {
		t.Fatalf("unexpected ride %+v", r)
	}

	cases := []struct {
		name string
		ride *models.Ride
		want error
	}{
		{"pending vehicle", newRide(pending.ID, 2), types.ErrVehicleNotVerified},
		{"foreign vehicle", newRide(foreign.ID, 2), types.ErrForbidden},
		{"too many seats", newRide(verified.ID, 5), types.ErrInvalidInput},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, driver, tc.ride); !errors.Is(err, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestCancel(t *testing.T) {
	driver := uuid.New()
	ride := models.Ride{ID: uuid.New(), DriverID: driver, Status: types.RideScheduled, SeatsTotal: 3, SeatsAvailable: 1}

	riderA, riderB, riderC := uuid.New(), uuid.New(), uuid.New()
	bookings := &memBookings{bookings: []models.Booking{
		{ID: uuid.New(), RideID: ride.ID, RiderID: riderA, DriverID: driver, Status: types.BookingRequested},
		{ID: uuid.New(), RideID: ride.ID, RiderID: riderB, DriverID: driver, Status: types.BookingConfirmed},
		{ID: uuid.New(), RideID: ride.ID, RiderID: riderC, DriverID: driver, Status: types.BookingRejected},
	}}

	rides := &memRides{rides: map[uuid.UUID]models.Ride{ride.ID: ride}}
	n := &recNotifier{}
	svc := NewRideService(rides, stubVehicles{}, bookings, n, logger.Discard(), noTx{})
	ctx := context.Background()

	if _, err := svc.Cancel(ctx, uuid.New(), ride.ID, "x"); !errors.Is(err, types.ErrForbidden) {
		t.Fatalf("other driver: got %v", err)
	}

	got, err := svc.Cancel(ctx, driver, ride.ID, " car broke down ")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.Status != types.RideCancelled {
		t.Fatalf("status = %s", got.Status)
	}

	for _, b := range bookings.bookings {
		switch b.RiderID {
		case riderC:
			if b.Status != types.BookingRejected {
				t.Errorf("rejected booking changed to %s", b.Status)
			}
		default:
			if b.Status != types.BookingCancelled || b.CancelReason != "car broke down" {
				t.Errorf("booking of %s = %s %q", b.RiderID, b.Status, b.CancelReason)
			}
		}
	}
	if len(n.to) != 2 {
		t.Fatalf("notified %d riders, want 2", len(n.to))
	}

	if _, err := svc.Cancel(ctx, driver, ride.ID, ""); !errors.Is(err, types.ErrRideCannotBeChanged) {
		t.Fatalf("second cancel: got %v", err)
	}
}
