package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/internal/service/notification"
	"github.com/hpyride/hpyride/pkg/logger"
)

type memStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]models.Booking
	rides    map[uuid.UUID]models.Ride
	ratings  map[[2]uuid.UUID]models.Rating
}

func newMemStore() *memStore {
	return &memStore{
		bookings: make(map[uuid.UUID]models.Booking),
		rides:    make(map[uuid.UUID]models.Ride),
		ratings:  make(map[[2]uuid.UUID]models.Rating),
	}
}

type bookingRepo struct{ *memStore }

func (r bookingRepo) Create(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	r.bookings[b.ID] = *b
	return nil
}

func (r bookingRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, types.ErrBookingNotFound
	}
	return &b, nil
}

func (r bookingRepo) ListForUser(_ context.Context, userID uuid.UUID, f models.Filters) ([]models.Booking, models.Metadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.RiderID == userID || b.DriverID == userID {
			out = append(out, b)
		}
	}
	return out, models.CalculateMetadata(len(out), f.Page, f.PageSize), nil
}

func (r bookingRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to types.BookingStatus, reason string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, types.ErrBookingNotFound
	}
	if b.Status != from {
		return nil, types.ErrInvalidTransition
	}
	b.Status = to
	b.CancelReason = reason
	r.bookings[id] = b
	return &b, nil
}

type rideRepo struct{ *memStore }

func (r rideRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.rides[id]
	if !ok {
		return nil, types.ErrRideNotFound
	}
	return &ride, nil
}

func (r rideRepo) ReserveSeats(_ context.Context, id uuid.UUID, n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride := r.rides[id]
	if ride.SeatsAvailable < n {
		return types.ErrNoSeatsAvailable
	}
	ride.SeatsAvailable -= n
	r.rides[id] = ride
	return nil
}

func (r rideRepo) ReleaseSeats(_ context.Context, id uuid.UUID, n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride := r.rides[id]
	ride.SeatsAvailable = min(ride.SeatsAvailable+n, ride.SeatsTotal)
	r.rides[id] = ride
	return nil
}

func (r rideRepo) UpdateStatus(_ context.Context, id uuid.UUID, status types.RideStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ride := r.rides[id]
	ride.Status = status
	r.rides[id] = ride
	return nil
}

type ratingRepo struct{ *memStore }

func (r ratingRepo) Create(_ context.Context, rt *models.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]uuid.UUID{rt.BookingID, rt.RaterID}
	if _, ok := r.ratings[key]; ok {
		return types.ErrAlreadyRated
	}
	rt.ID = uuid.New()
	r.ratings[key] = *rt
	return nil
}

type vehicleRepo struct{ v models.Vehicle }

func (r vehicleRepo) FindByID(context.Context, uuid.UUID) (*models.Vehicle, error) {
	v := r.v
	return &v, nil
}

type sent struct {
	to uuid.UUID
	t  notification.Template
}

type recNotifier struct {
	mu   sync.Mutex
	sent []sent
}

func (n *recNotifier) Send(_ context.Context, userID uuid.UUID, t notification.Template) (*models.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sent{to: userID, t: t})
	return &models.Notification{ID: uuid.New(), UserID: userID, Type: t.Kind}, nil
}

func (n *recNotifier) kinds(to uuid.UUID) []types.NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []types.NotificationKind
	for _, s := range n.sent {
		if s.to == to {
			out = append(out, s.t.Kind)
		}
	}
	return out
}

type noTx struct{}

func (noTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (noTx) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc      *BookingService
	store    *memStore
	notifier *recNotifier
	driver   *models.User
	rider    *models.User
	ride     models.Ride
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newMemStore()
	driver := &models.User{ID: uuid.New(), Name: "Ravi", Role: types.RoleDriver}
	rider := &models.User{ID: uuid.New(), Name: "Asha", Role: types.RoleRider}

	ride := models.Ride{
		ID:             uuid.New(),
		DriverID:       driver.ID,
		VehicleID:      uuid.New(),
		Origin:         "MG Road",
		Destination:    "Airport",
		DepartureAt:    time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		SeatsTotal:     3,
		SeatsAvailable: 3,
		Fare:           150,
		Status:         types.RideScheduled,
	}
	store.rides[ride.ID] = ride

	n := &recNotifier{}
	svc := NewBookingService(
		bookingRepo{store}, rideRepo{store},
		vehicleRepo{models.Vehicle{RegistrationNumber: "KA01AB1234"}},
		ratingRepo{store}, n, logger.Discard(), noTx{},
	)

	return &fixture{svc: svc, store: store, notifier: n, driver: driver, rider: rider, ride: ride}
}

func (f *fixture) seats() int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.rides[f.ride.ID].SeatsAvailable
}

func TestRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Request(ctx, f.rider, f.ride.ID, 2)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if b.Status != types.BookingRequested || b.DriverID != f.driver.ID {
		t.Fatalf("unexpected booking %+v", b)
	}
	if got := f.notifier.kinds(f.driver.ID); len(got) != 1 || got[0] != types.KindNewRideRequest {
		t.Fatalf("driver notifications = %v", got)
	}
	if f.seats() != 3 {
		t.Fatal("seats must not be reserved before confirmation")
	}
}

func TestRequest_Rejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Request(ctx, f.driver, f.ride.ID, 1); !errors.Is(err, types.ErrOwnRide) {
		t.Errorf("own ride: got %v", err)
	}
	if _, err := f.svc.Request(ctx, f.rider, f.ride.ID, 4); !errors.Is(err, types.ErrNoSeatsAvailable) {
		t.Errorf("too many seats: got %v", err)
	}
	if _, err := f.svc.Request(ctx, f.rider, f.ride.ID, 0); !errors.Is(err, types.ErrInvalidInput) {
		t.Errorf("zero seats: got %v", err)
	}

	ride := f.store.rides[f.ride.ID]
	ride.Status = types.RideCancelled
	f.store.rides[f.ride.ID] = ride
	if _, err := f.svc.Request(ctx, f.rider, f.ride.ID, 1); !errors.Is(err, types.ErrRideNotBookable) {
		t.Errorf("cancelled ride: got %v", err)
	}
}

func TestLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Request(ctx, f.rider, f.ride.ID, 2)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	if _, err := f.svc.Confirm(ctx, f.rider, b.ID); !errors.Is(err, types.ErrForbidden) {
		t.Fatalf("rider confirm: got %v", err)
	}

	if _, err := f.svc.Confirm(ctx, f.driver, b.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if f.seats() != 1 {
		t.Fatalf("seats = %d after confirm, want 1", f.seats())
	}

	if _, err := f.svc.Arrive(ctx, f.driver, b.ID); err != nil {
		t.Fatalf("Arrive: %v", err)
	}
	if _, err := f.svc.Start(ctx, f.driver, b.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if f.store.rides[f.ride.ID].Status != types.RideInProgress {
		t.Fatal("ride must be in progress once a trip starts")
	}

	done, err := f.svc.Complete(ctx, f.driver, b.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Status != types.BookingCompleted {
		t.Fatalf("status = %s", done.Status)
	}

	want := []types.NotificationKind{
		types.KindRideAccepted,
		types.KindBookingConfirmed,
		types.KindDriverArrived,
		types.KindTripStarted,
		types.KindTripCompleted,
	}
	got := f.notifier.kinds(f.rider.ID)
	if len(got) != len(want) {
		t.Fatalf("rider notifications = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rider notifications = %v, want %v", got, want)
		}
	}

	last := f.notifier.sent[len(f.notifier.sent)-1].t
	if last.Body != "You have reached your destination. Fare: ₹300" {
		t.Fatalf("fare body = %q", last.Body)
	}
	if last.Data["booking_id"] != b.ID.String() {
		t.Fatal("notification must reference the booking")
	}
}

func TestConfirm_NoSeatsLeft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, _ := f.svc.Request(ctx, f.rider, f.ride.ID, 2)
	other := &models.User{ID: uuid.New(), Name: "Meera", Role: types.RoleRider}
	second, _ := f.svc.Request(ctx, other, f.ride.ID, 2)

	if _, err := f.svc.Confirm(ctx, f.driver, first.ID); err != nil {
		t.Fatalf("Confirm first: %v", err)
	}
	if _, err := f.svc.Confirm(ctx, f.driver, second.ID); !errors.Is(err, types.ErrNoSeatsAvailable) {
		t.Fatalf("Confirm second: got %v", err)
	}
}

func TestInvalidTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, _ := f.svc.Request(ctx, f.rider, f.ride.ID, 1)
	if _, err := f.svc.Start(ctx, f.driver, b.ID); !errors.Is(err, types.ErrInvalidTransition) {
		t.Fatalf("start from requested: got %v", err)
	}
	if _, err := f.svc.Arrive(ctx, f.driver, b.ID); !errors.Is(err, types.ErrInvalidTransition) {
		t.Fatalf("arrive before confirm: got %v", err)
	}
}

func TestCancel_ReleasesSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, _ := f.svc.Request(ctx, f.rider, f.ride.ID, 2)
	if _, err := f.svc.Confirm(ctx, f.driver, b.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	stranger := &models.User{ID: uuid.New()}
	if _, err := f.svc.Cancel(ctx, stranger, b.ID, "x"); !errors.Is(err, types.ErrNotParticipant) {
		t.Fatalf("stranger cancel: got %v", err)
	}

	got, err := f.svc.Cancel(ctx, f.rider, b.ID, "  plans changed ")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.CancelReason != "plans changed" {
		t.Fatalf("reason = %q", got.CancelReason)
	}
	if f.seats() != 3 {
		t.Fatalf("seats = %d, want 3", f.seats())
	}

	kinds := f.notifier.kinds(f.driver.ID)
	if kinds[len(kinds)-1] != types.KindBookingCancelled {
		t.Fatalf("driver must be told about the cancellation, got %v", kinds)
	}
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, _ := f.svc.Request(ctx, f.rider, f.ride.ID, 1)
	got, err := f.svc.Reject(ctx, f.driver, b.ID, "")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if got.Status != types.BookingRejected {
		t.Fatalf("status = %s", got.Status)
	}
	if kinds := f.notifier.kinds(f.rider.ID); len(kinds) != 1 || kinds[0] != types.KindBookingCancelled {
		t.Fatalf("rider notifications = %v", kinds)
	}
}

func TestRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, _ := f.svc.Request(ctx, f.rider, f.ride.ID, 1)
	if _, err := f.svc.Rate(ctx, f.rider, b.ID, 5, ""); !errors.Is(err, types.ErrBookingNotCompleted) {
		t.Fatalf("rate before completion: got %v", err)
	}

	for _, step := range []func(context.Context, *models.User, uuid.UUID) (*models.Booking, error){
		f.svc.Confirm, f.svc.Start, f.svc.Complete,
	} {
		if _, err := step(ctx, f.driver, b.ID); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	if _, err := f.svc.Rate(ctx, f.rider, b.ID, 6, ""); !errors.Is(err, types.ErrInvalidInput) {
		t.Fatalf("six stars: got %v", err)
	}

	r, err := f.svc.Rate(ctx, f.rider, b.ID, 5, " smooth ")
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if r.RateeID != f.driver.ID || r.Comment != "smooth" {
		t.Fatalf("unexpected rating %+v", r)
	}

	if _, err := f.svc.Rate(ctx, f.rider, b.ID, 4, ""); !errors.Is(err, types.ErrAlreadyRated) {
		t.Fatalf("second rating: got %v", err)
	}
	if _, err := f.svc.Rate(ctx, f.driver, b.ID, 4, ""); err != nil {
		t.Fatalf("driver rating: %v", err)
	}
}
