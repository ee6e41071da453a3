package wshandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hpyride/hpyride/internal/adapter/http/ws/dto"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/internal/service/feedback"
	"github.com/hpyride/hpyride/internal/service/realtime"
	"github.com/hpyride/hpyride/internal/service/tracking"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	"github.com/hpyride/hpyride/pkg/metrics"
	"github.com/hpyride/hpyride/pkg/validator"
	ws "github.com/hpyride/hpyride/pkg/wsHub"
)

type BookingReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
}

// Gateway serves the realtime WebSocket endpoints. Every connection gets its own
// LocationService, so broadcast state is per device.
type Gateway struct {
	broker   realtime.Broker
	feed     realtime.ChangeFeed
	bookings BookingReader

	drivers *ws.ConnectionHub
	riders  *ws.ConnectionHub

	upgrader websocket.Upgrader
	cueURL   string
	log      logger.Logger
}

// NewGateway builds the gateway. cueURL is the base URL clients fetch feedback WAVs from.
func NewGateway(broker realtime.Broker, feed realtime.ChangeFeed, bookings BookingReader, cueURL string, log logger.Logger) *Gateway {
	return &Gateway{
		broker:   broker,
		feed:     feed,
		bookings: bookings,
		drivers:  ws.NewConnHub(log),
		riders:   ws.NewConnHub(log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		cueURL: cueURL,
		log:    log,
	}
}

// Close closes every open socket.
func (g *Gateway) Close() {
	g.drivers.Close()
	g.riders.Close()
}

// HandleDriver serves GET /ws/drivers/{driver_id}.
func (g *Gateway) HandleDriver(w http.ResponseWriter, r *http.Request) {
	driverID := r.PathValue("driver_id")
	user := models.UserFromContext(r.Context())
	if !authorized(w, user, driverID, types.RoleDriver) {
		return
	}

	ctx := wrap.WithLogCtx(context.WithoutCancel(r.Context()), wrap.LogCtx{Action: "driver_socket", UserID: driverID})

	conn, ok := g.open(ctx, w, r, g.drivers, "driver:"+driverID, "driver")
	if !ok {
		return
	}
	defer g.release(ctx, g.drivers, conn, "driver")

	geo := NewConnGeolocator()
	defer geo.Close()

	svc := realtime.NewLocationService(g.broker, g.feed, geo, g.log)
	defer svc.StopBroadcasting(ctx)

	requests, err := svc.SubscribeToRideRequests(ctx, driverID, func(c models.BookingChange) {
		if err := conn.Send(dto.ServerMessage{Type: dto.TypeRideRequest, BookingID: c.Booking.ID.String(), Payload: c.Booking}); err != nil {
			g.log.Debug(ctx, "failed to forward ride request", "error", err.Error())
		}
	})
	if err != nil {
		g.log.Error(ctx, "failed to subscribe to ride requests", err)
		_ = errorResponse(conn, "ride requests are unavailable")
	} else {
		defer requests.Unsubscribe()
	}

	err = conn.Listen(func(raw []byte) error {
		return g.handleDriverMessage(ctx, conn, svc, geo, user, raw)
	})
	if err != nil {
		g.log.Debug(ctx, "driver socket closed", "error", err.Error())
	}
}

func (g *Gateway) handleDriverMessage(ctx context.Context, conn *ws.Conn, svc *realtime.LocationService, geo *ConnGeolocator, driver *models.User, raw []byte) error {
	msg, err := dto.DecodeClientMessage(raw)
	if err != nil {
		return errorResponse(conn, "message must be a JSON object")
	}

	v := validator.New()
	msg.Validate(v)
	if !v.Valid() {
		return failedValidationResponse(conn, v.Errors)
	}

	switch msg.Type {
	case dto.TypeStartBroadcast:
		id := uuid.MustParse(msg.BookingID)
		b, err := g.bookings.FindByID(ctx, id)
		switch {
		case errors.Is(err, types.ErrBookingNotFound):
			return errorResponse(conn, err.Error())
		case err != nil:
			g.log.Error(wrap.ErrorCtx(ctx, err), "failed to load booking", err)
			return errorResponse(conn, "failed to load booking")
		case b.DriverID != driver.ID:
			return errorResponse(conn, types.ErrNotParticipant.Error())
		case !b.Status.IsActive():
			return errorResponse(conn, "booking is not confirmed or in progress")
		}

		if err := svc.StartBroadcasting(ctx, driver.ID.String(), msg.BookingID); err != nil {
			return errorResponse(conn, err.Error())
		}
		active, _ := svc.ActiveBooking()
		return conn.Send(dto.ServerMessage{Type: dto.TypeBroadcastStarted, BookingID: active})

	case dto.TypeStopBroadcast:
		active, _ := svc.ActiveBooking()
		svc.StopBroadcasting(ctx)
		return conn.Send(dto.ServerMessage{Type: dto.TypeBroadcastStopped, BookingID: active})

	case dto.TypePosition:
		geo.Feed(msg.Position())
	}

	return nil
}

// HandleTrack serves GET /ws/bookings/{booking_id}/track: the rider tracking scope.
// ?vibration=true declares that the app can vibrate.
func (g *Gateway) HandleTrack(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("booking_id")
	user := models.UserFromContext(r.Context())

	b, ok := g.participant(w, r, user, bookingID)
	if !ok {
		return
	}

	ctx := wrap.WithLogCtx(context.WithoutCancel(r.Context()), wrap.LogCtx{
		Action:    "tracking_socket",
		UserID:    user.ID.String(),
		BookingID: bookingID,
	})

	conn, ok := g.open(ctx, w, r, g.riders, "track:"+bookingID+":"+user.ID.String(), "tracking")
	if !ok {
		return
	}
	defer g.release(ctx, g.riders, conn, "tracking")

	player := feedback.NewPlayer(
		&cueSink{conn: conn, baseURL: g.cueURL},
		&connVibrator{conn: conn, supported: r.URL.Query().Get("vibration") == "true"},
		feedback.DefaultSampleRate,
		g.log,
	)

	svc := realtime.NewLocationService(g.broker, g.feed, nil, g.log)
	session, err := tracking.Open(ctx, tracking.Deps{Realtime: svc, Player: player, Log: g.log}, bookingID, b.Status,
		func(e tracking.Event) {
			if err := conn.Send(e); err != nil {
				g.log.Debug(ctx, "failed to send tracking event", "type", string(e.Type), "error", err.Error())
			}
		})
	if err != nil {
		g.log.Error(ctx, "failed to open tracking session", err)
		_ = errorResponse(conn, "tracking is unavailable")
		return
	}
	defer session.Close()

	_ = conn.Send(tracking.Event{Type: tracking.EventStatusChanged, BookingID: bookingID, Status: b.Status})

	g.drain(ctx, conn)
}

// HandleBookingUpdates serves GET /ws/users/{user_id}/bookings.
func (g *Gateway) HandleBookingUpdates(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	user := models.UserFromContext(r.Context())
	if !authorized(w, user, userID) {
		return
	}

	ctx := wrap.WithLogCtx(context.WithoutCancel(r.Context()), wrap.LogCtx{Action: "booking_updates_socket", UserID: userID})

	conn, ok := g.open(ctx, w, r, g.riders, "bookings:"+userID, "booking_updates")
	if !ok {
		return
	}
	defer g.release(ctx, g.riders, conn, "booking_updates")

	svc := realtime.NewLocationService(g.broker, g.feed, nil, g.log)
	sub, err := svc.SubscribeToBookingUpdates(ctx, userID, func(c models.BookingChange) {
		_ = conn.Send(dto.ServerMessage{Type: dto.TypeBookingUpdate, BookingID: c.Booking.ID.String(), Payload: c})
	})
	if err != nil {
		g.log.Error(ctx, "failed to subscribe to booking updates", err)
		_ = errorResponse(conn, "booking updates are unavailable")
		return
	}
	defer sub.Unsubscribe()

	g.drain(ctx, conn)
}

// HandleChat serves GET /ws/bookings/{booking_id}/chat: new messages of a booking thread.
func (g *Gateway) HandleChat(w http.ResponseWriter, r *http.Request) {
	bookingID := r.PathValue("booking_id")
	user := models.UserFromContext(r.Context())

	if _, ok := g.participant(w, r, user, bookingID); !ok {
		return
	}

	ctx := wrap.WithLogCtx(context.WithoutCancel(r.Context()), wrap.LogCtx{
		Action:    "chat_socket",
		UserID:    user.ID.String(),
		BookingID: bookingID,
	})

	conn, ok := g.open(ctx, w, r, g.riders, "chat:"+bookingID+":"+user.ID.String(), "chat")
	if !ok {
		return
	}
	defer g.release(ctx, g.riders, conn, "chat")

	svc := realtime.NewLocationService(g.broker, g.feed, nil, g.log)
	sub, err := svc.SubscribeToChat(ctx, bookingID, func(m models.ChatMessage) {
		_ = conn.Send(dto.ServerMessage{Type: dto.TypeChatMessage, BookingID: bookingID, Payload: m})
	})
	if err != nil {
		g.log.Error(ctx, "failed to subscribe to chat", err)
		_ = errorResponse(conn, "chat is unavailable")
		return
	}
	defer sub.Unsubscribe()

	g.drain(ctx, conn)
}

// HandleListingChat serves GET /ws/listings/{listing_id}/chat. A user only receives the
// listing messages they sent or received; admins receive all of them.
func (g *Gateway) HandleListingChat(w http.ResponseWriter, r *http.Request) {
	listingID := r.PathValue("listing_id")
	user := models.UserFromContext(r.Context())

	if user == nil || user.IsAnonymous() {
		httpError(w, http.StatusUnauthorized, "authorization required")
		return
	}
	if _, err := uuid.Parse(listingID); err != nil {
		httpError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	ctx := wrap.WithLogCtx(context.WithoutCancel(r.Context()), wrap.LogCtx{
		Action: "car_chat_socket",
		UserID: user.ID.String(),
	})

	conn, ok := g.open(ctx, w, r, g.riders, "car_chat:"+listingID+":"+user.ID.String(), "car_chat")
	if !ok {
		return
	}
	defer g.release(ctx, g.riders, conn, "car_chat")

	admin := user.HasRole(types.RoleAdmin)
	svc := realtime.NewLocationService(g.broker, g.feed, nil, g.log)
	sub, err := svc.SubscribeToCarChat(ctx, listingID, func(m models.CarChatMessage) {
		if !admin && m.SenderID != user.ID && m.RecipientID != user.ID {
			return
		}
		_ = conn.Send(dto.ServerMessage{Type: dto.TypeCarChatMessage, ListingID: listingID, Payload: m})
	})
	if err != nil {
		g.log.Error(ctx, "failed to subscribe to car chat", err)
		_ = errorResponse(conn, "chat is unavailable")
		return
	}
	defer sub.Unsubscribe()

	g.drain(ctx, conn)
}

// participant loads the booking and checks that user is its rider, its driver or an admin.
// It writes the HTTP error itself.
func (g *Gateway) participant(w http.ResponseWriter, r *http.Request, user *models.User, bookingID string) (*models.Booking, bool) {
	if user == nil || user.IsAnonymous() {
		httpError(w, http.StatusUnauthorized, "authorization required")
		return nil, false
	}

	id, err := uuid.Parse(bookingID)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid booking id")
		return nil, false
	}

	b, err := g.bookings.FindByID(r.Context(), id)
	switch {
	case errors.Is(err, types.ErrBookingNotFound):
		httpError(w, http.StatusNotFound, err.Error())
		return nil, false
	case err != nil:
		g.log.Error(wrap.ErrorCtx(r.Context(), err), "failed to load booking", err)
		httpError(w, http.StatusInternalServerError, "failed to load booking")
		return nil, false
	}

	if _, ok := b.Counterpart(user.ID); !ok && !user.HasRole(types.RoleAdmin) {
		httpError(w, http.StatusForbidden, types.ErrNotParticipant.Error())
		return nil, false
	}
	return b, true
}

func (g *Gateway) open(ctx context.Context, w http.ResponseWriter, r *http.Request, hub *ws.ConnectionHub, key, kind string) (*ws.Conn, bool) {
	raw, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn(ctx, "websocket upgrade failed", "error", err.Error())
		return nil, false
	}

	conn := ws.NewConn(ctx, key, raw)
	if err := hub.Add(conn); err != nil {
		_ = raw.Close()
		g.log.Error(ctx, "failed to register websocket", err)
		return nil, false
	}
	metrics.WebSocketConnectionsGauge.WithLabelValues(kind).Inc()
	go conn.KeepAlive()

	g.log.Info(ctx, "websocket connected", "kind", kind)
	return conn, true
}

func (g *Gateway) release(ctx context.Context, hub *ws.ConnectionHub, conn *ws.Conn, kind string) {
	_ = hub.Delete(conn)
	metrics.WebSocketConnectionsGauge.WithLabelValues(kind).Dec()
	g.log.Info(ctx, "websocket disconnected", "kind", kind)
}

// drain reads and discards client frames until the socket closes.
func (g *Gateway) drain(ctx context.Context, conn *ws.Conn) {
	if err := conn.Listen(func([]byte) error { return nil }); err != nil {
		g.log.Debug(ctx, "socket closed", "error", err.Error())
	}
}

// authorized checks that user is the owner of id (with one of roles, if given) or an admin.
func authorized(w http.ResponseWriter, user *models.User, id string, roles ...types.UserRole) bool {
	if user == nil || user.IsAnonymous() {
		httpError(w, http.StatusUnauthorized, "authorization required")
		return false
	}
	if user.HasRole(types.RoleAdmin) && len(roles) == 0 {
		return true
	}
	if user.ID.String() != id || (len(roles) > 0 && !user.HasRole(roles...)) {
		httpError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}
