package realtime

import (
	"context"
	"fmt"

	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	"github.com/hpyride/hpyride/pkg/metrics"
)

// SubscribeToRideStatus observes inserts and updates of a single booking.
func (s *LocationService) SubscribeToRideStatus(ctx context.Context, bookingID string, cb func(models.BookingChange)) (*Subscription, error) {
	if bookingID == "" {
		return nil, ErrEmptyID
	}
	return s.subscribeBookings(ctx, "ride_status", models.ChangeSubscription{
		Channel: RideStatusChannel(bookingID),
		Table:   types.TableBookings,
		Events:  []types.ChangeType{types.ChangeInsert, types.ChangeUpdate},
		Filter:  models.EqFilter("id", bookingID),
	}, cb)
}

// SubscribeToBookingUpdates observes every booking change of a rider.
func (s *LocationService) SubscribeToBookingUpdates(ctx context.Context, userID string, cb func(models.BookingChange)) (*Subscription, error) {
	if userID == "" {
		return nil, ErrEmptyID
	}
	return s.subscribeBookings(ctx, "booking_updates", models.ChangeSubscription{
		Channel: BookingUpdatesChannel(userID),
		Table:   types.TableBookings,
		Filter:  models.EqFilter("rider_id", userID),
	}, cb)
}

// SubscribeToRideRequests observes new bookings on a driver's rides.
func (s *LocationService) SubscribeToRideRequests(ctx context.Context, driverID string, cb func(models.BookingChange)) (*Subscription, error) {
	if driverID == "" {
		return nil, ErrEmptyID
	}
	return s.subscribeBookings(ctx, "ride_requests", models.ChangeSubscription{
		Channel: RideRequestsChannel(driverID),
		Table:   types.TableBookings,
		Events:  []types.ChangeType{types.ChangeInsert},
		Filter:  models.EqFilter("driver_id", driverID),
	}, cb)
}

// SubscribeToChat observes new messages of a booking thread.
func (s *LocationService) SubscribeToChat(ctx context.Context, bookingID string, cb func(models.ChatMessage)) (*Subscription, error) {
	if cb == nil {
		return nil, ErrNilCallback
	}
	if bookingID == "" {
		return nil, ErrEmptyID
	}

	sub := models.ChangeSubscription{
		Channel: ChatChannel(bookingID),
		Table:   types.TableChatMessages,
		Events:  []types.ChangeType{types.ChangeInsert},
		Filter:  models.EqFilter("booking_id", bookingID),
	}
	return s.subscribeChanges(ctx, "chat", sub, func(logCtx context.Context, c models.RowChange) {
		msg, err := models.DecodeChatMessage(c)
		if err != nil {
			s.log.Warn(logCtx, "dropping invalid chat message", "error", err.Error())
			return
		}
		cb(msg)
	})
}

// SubscribeToCarChat observes new messages of a car listing thread.
func (s *LocationService) SubscribeToCarChat(ctx context.Context, listingID string, cb func(models.CarChatMessage)) (*Subscription, error) {
	if cb == nil {
		return nil, ErrNilCallback
	}
	if listingID == "" {
		return nil, ErrEmptyID
	}

	sub := models.ChangeSubscription{
		Channel: CarChatChannel(listingID),
		Table:   types.TableCarChats,
		Events:  []types.ChangeType{types.ChangeInsert},
		Filter:  models.EqFilter("listing_id", listingID),
	}
	return s.subscribeChanges(ctx, "car_chat", sub, func(logCtx context.Context, c models.RowChange) {
		msg, err := models.DecodeCarChatMessage(c)
		if err != nil {
			s.log.Warn(logCtx, "dropping invalid car chat message", "error", err.Error())
			return
		}
		cb(msg)
	})
}

func (s *LocationService) subscribeBookings(ctx context.Context, kind string, sub models.ChangeSubscription, cb func(models.BookingChange)) (*Subscription, error) {
	if cb == nil {
		return nil, ErrNilCallback
	}
	return s.subscribeChanges(ctx, kind, sub, func(logCtx context.Context, c models.RowChange) {
		change, err := models.DecodeBookingChange(c)
		if err != nil {
			s.log.Warn(logCtx, "dropping invalid booking change", "error", err.Error())
			return
		}
		cb(change)
	})
}

func (s *LocationService) subscribeChanges(ctx context.Context, kind string, sub models.ChangeSubscription, handle func(context.Context, models.RowChange)) (*Subscription, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{
		Action:  "subscribe_" + kind,
		Channel: sub.Channel,
	})
	logCtx := context.WithoutCancel(ctx)

	release, err := s.feed.Subscribe(ctx, sub, func(c models.RowChange) {
		metrics.ChangeFeedEventsTotal.WithLabelValues(c.Table, string(c.Type)).Inc()
		handle(logCtx, c)
	})
	if err != nil {
		s.log.Error(ctx, "failed to subscribe to change feed", err, "filter", sub.Filter.String())
		return nil, wrap.Error(ctx, fmt.Errorf("%w: %w", ErrChannelUnavailable, err))
	}

	s.log.Debug(ctx, "subscribed to change feed", "table", sub.Table, "filter", sub.Filter.String())
	return newSubscription(sub.Channel, kind, release, s.log), nil
}
