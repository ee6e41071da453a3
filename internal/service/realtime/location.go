package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/pkg/broadcast"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	"github.com/hpyride/hpyride/pkg/metrics"
)

// LocationService streams driver positions and relays row changes for one device.
type LocationService struct {
	broker Broker
	feed   ChangeFeed
	geo    Geolocator
	log    logger.Logger

	mu     sync.Mutex
	active *broadcastSession
}

type broadcastSession struct {
	driverID  string
	bookingID string
	channel   Channel
	watch     WatchID
}

func NewLocationService(broker Broker, feed ChangeFeed, geo Geolocator, log logger.Logger) *LocationService {
	return &LocationService{
		broker: broker,
		feed:   feed,
		geo:    geo,
		log:    log,
	}
}

// StartBroadcasting opens driver-location-{bookingID} and sends every position fix on it.
// Calling it while a broadcast is active does nothing.
func (s *LocationService) StartBroadcasting(ctx context.Context, driverID, bookingID string) error {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{
		Action:    "start_broadcasting",
		UserID:    driverID,
		BookingID: bookingID,
	})

	if driverID == "" || bookingID == "" {
		return wrap.Error(ctx, ErrInvalidBroadcast)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		s.log.Debug(ctx, "broadcast already active", "active_booking_id", s.active.bookingID)
		return nil
	}

	if s.geo == nil || !s.geo.Available() {
		s.log.Warn(ctx, "geolocation is not available")
		return wrap.Error(ctx, ErrGeolocationUnavailable)
	}

	name := DriverLocationChannel(bookingID)
	ctx = wrap.WithChannel(ctx, name)

	ch, err := s.broker.Join(ctx, name, nil)
	if err != nil {
		s.log.Error(ctx, "failed to open location channel", err)
		return wrap.Error(ctx, fmt.Errorf("%w: %w", ErrChannelUnavailable, err))
	}

	sess := &broadcastSession{
		driverID:  driverID,
		bookingID: bookingID,
		channel:   ch,
	}

	sendCtx := context.WithoutCancel(ctx)
	watch, err := s.geo.WatchPosition(
		func(p models.Position) {
			s.publish(sendCtx, sess, p)
		},
		func(err error) {
			s.log.Error(sendCtx, "position watch error", err)
		},
	)
	if err != nil {
		if leaveErr := ch.Leave(); leaveErr != nil {
			s.log.Warn(ctx, "failed to release location channel", "error", leaveErr.Error())
		}
		s.log.Error(ctx, "failed to watch position", err)
		return wrap.Error(ctx, fmt.Errorf("%w: %w", ErrGeolocationUnavailable, err))
	}
	sess.watch = watch

	s.active = sess
	metrics.ActiveBroadcastsGauge.Inc()
	s.log.Info(ctx, "location broadcast started")

	return nil
}

func (s *LocationService) publish(ctx context.Context, sess *broadcastSession, p models.Position) {
	msg := models.NewLocationMessage(sess.driverID, sess.bookingID, p)

	body, err := json.Marshal(msg)
	if err != nil {
		s.log.Error(ctx, "failed to encode location", err)
		return
	}

	err = sess.channel.Send(ctx, types.EventLocationUpdate, body)
	if errors.Is(err, broadcast.ErrChannelClosed) {
		s.log.Debug(ctx, "position after broadcast stopped")
		return
	}
	metrics.RecordLocationBroadcast(err)
	if err != nil {
		s.log.Error(ctx, "failed to send location", err)
	}
}

// StopBroadcasting clears the position watch and releases the channel. It is a no-op when idle.
func (s *LocationService) StopBroadcasting(ctx context.Context) {
	s.mu.Lock()
	sess := s.active
	s.active = nil
	s.mu.Unlock()

	if sess == nil {
		return
	}

	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{
		Action:    "stop_broadcasting",
		UserID:    sess.driverID,
		BookingID: sess.bookingID,
		Channel:   DriverLocationChannel(sess.bookingID),
	})

	s.geo.ClearWatch(sess.watch)
	if err := sess.channel.Leave(); err != nil {
		s.log.Warn(ctx, "failed to release location channel", "error", err.Error())
	}

	metrics.ActiveBroadcastsGauge.Dec()
	s.log.Info(ctx, "location broadcast stopped")
}

func (s *LocationService) IsBroadcasting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

// ActiveBooking returns the booking being broadcast, if any.
func (s *LocationService) ActiveBooking() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return "", false
	}
	return s.active.bookingID, true
}

// SubscribeToDriverLocation receives location_update messages for a booking.
// Payloads that fail validation are logged and dropped.
func (s *LocationService) SubscribeToDriverLocation(ctx context.Context, bookingID string, cb func(models.LocationMessage)) (*Subscription, error) {
	if cb == nil {
		return nil, ErrNilCallback
	}
	if bookingID == "" {
		return nil, ErrEmptyID
	}

	name := DriverLocationChannel(bookingID)
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{
		Action:    "subscribe_driver_location",
		BookingID: bookingID,
		Channel:   name,
	})
	logCtx := context.WithoutCancel(ctx)

	ch, err := s.broker.Join(ctx, name, func(m broadcast.Message) {
		if m.Event != types.EventLocationUpdate {
			s.log.Debug(logCtx, "ignoring broadcast event", "event", m.Event)
			return
		}

		loc, err := models.DecodeLocationMessage(m.Payload)
		if err != nil {
			s.log.Warn(logCtx, "dropping invalid location message", "error", err.Error())
			return
		}
		cb(loc)
	})
	if err != nil {
		s.log.Error(ctx, "failed to join location channel", err)
		return nil, wrap.Error(ctx, fmt.Errorf("%w: %w", ErrChannelUnavailable, err))
	}

	return newSubscription(name, "driver_location", ch.Leave, s.log), nil
}
