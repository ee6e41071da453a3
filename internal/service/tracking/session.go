package tracking

import (
	"context"
	"fmt"
	"sync"

	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/internal/service/feedback"
	"github.com/hpyride/hpyride/internal/service/realtime"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
)

type Subscriber interface {
	SubscribeToDriverLocation(ctx context.Context, bookingID string, cb func(models.LocationMessage)) (*realtime.Subscription, error)
	SubscribeToRideStatus(ctx context.Context, bookingID string, cb func(models.BookingChange)) (*realtime.Subscription, error)
}

type CuePlayer interface {
	Play(ctx context.Context, c feedback.Category)
}

type Deps struct {
	Realtime Subscriber
	Player   CuePlayer
	Log      logger.Logger
}

// Session tracks one booking for a rider: the driver's last position and the booking status.
type Session struct {
	bookingID string
	emit      func(Event)
	player    CuePlayer
	log       logger.Logger
	ctx       context.Context

	mu       sync.Mutex
	location *models.LocationMessage
	status   types.BookingStatus
	finished bool

	subs      []*realtime.Subscription
	closeOnce sync.Once
}

// Open subscribes to the driver location and status of bookingID. emit is called
// serially and must not call back into the Session. Close the session when done.
func Open(ctx context.Context, deps Deps, bookingID string, initial types.BookingStatus, emit func(Event)) (*Session, error) {
	const op = "tracking.Open"

	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "track_booking", BookingID: bookingID})

	s := &Session{
		bookingID: bookingID,
		emit:      emit,
		player:    deps.Player,
		log:       deps.Log,
		ctx:       context.WithoutCancel(ctx),
		status:    initial,
		finished:  initial.Valid() && initial.IsFinal(),
	}

	locSub, err := deps.Realtime.SubscribeToDriverLocation(ctx, bookingID, s.onLocation)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.subs = append(s.subs, locSub)

	statusSub, err := deps.Realtime.SubscribeToRideStatus(ctx, bookingID, s.onStatus)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.subs = append(s.subs, statusSub)

	s.log.Info(ctx, "tracking session opened")
	return s, nil
}

func (s *Session) BookingID() string {
	return s.bookingID
}

// DriverLocation returns the last received driver position.
func (s *Session) DriverLocation() (models.LocationMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.location == nil {
		return models.LocationMessage{}, false
	}
	return *s.location, true
}

func (s *Session) Status() types.BookingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Close releases both subscriptions. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		for _, sub := range s.subs {
			sub.Unsubscribe()
		}
		s.log.Debug(s.ctx, "tracking session closed")
	})
}

func (s *Session) onLocation(m models.LocationMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.location = &m
	s.emit(Event{
		Type:      EventDriverLocation,
		BookingID: s.bookingID,
		Location:  &m,
	})
}

func (s *Session) onStatus(c models.BookingChange) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := c.Booking.Status
	if next == s.status {
		return
	}
	s.status = next
	s.emit(Event{
		Type:      EventStatusChanged,
		BookingID: s.bookingID,
		Status:    next,
	})

	if s.finished {
		return
	}

	switch next {
	case types.BookingCompleted:
		s.finished = true
		s.emit(Event{
			Type:      EventToast,
			BookingID: s.bookingID,
			Toast:     &Toast{Kind: ToastSuccess, Message: "Trip completed! Thanks for riding with HpyRide."},
		})
		s.emit(Event{
			Type:      EventRateDriver,
			BookingID: s.bookingID,
			DriverID:  c.Booking.DriverID.String(),
		})
		s.cue(feedback.CategorySuccess)

	case types.BookingCancelled, types.BookingRejected:
		s.finished = true
		msg := "Your booking was cancelled."
		if next == types.BookingRejected {
			msg = "The driver declined your booking."
		}
		s.emit(Event{
			Type:      EventToast,
			BookingID: s.bookingID,
			Toast:     &Toast{Kind: ToastError, Message: msg},
		})
		s.cue(feedback.CategoryError)
	}
}

func (s *Session) cue(c feedback.Category) {
	if s.player == nil {
		return
	}
	go s.player.Play(s.ctx, c)
}
