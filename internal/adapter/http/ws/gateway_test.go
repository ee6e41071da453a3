package wshandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/internal/service/realtime"
	"github.com/hpyride/hpyride/pkg/broadcast"
	"github.com/hpyride/hpyride/pkg/logger"
)

type fakeBookings struct {
	byID map[uuid.UUID]*models.Booking
}

func (f *fakeBookings) FindByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	b, ok := f.byID[id]
	if !ok {
		return nil, types.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

type fixture struct {
	srv     *httptest.Server
	changes *realtime.ChangeHub
	booking *models.Booking
	rider   *models.User
	driver  *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	rider := &models.User{ID: uuid.New(), Name: "Asha", Role: types.RoleRider}
	driver := &models.User{ID: uuid.New(), Name: "Ravi", Role: types.RoleDriver}
	booking := &models.Booking{
		ID:       uuid.New(),
		RideID:   uuid.New(),
		RiderID:  rider.ID,
		DriverID: driver.ID,
		Seats:    1,
		Status:   types.BookingConfirmed,
	}

	changes := realtime.NewChangeHub(broadcast.NewHub())
	gw := NewGateway(
		realtime.NewHubBroker(broadcast.NewHub()),
		changes,
		&fakeBookings{byID: map[uuid.UUID]*models.Booking{booking.ID: booking}},
		"http://api.test",
		logger.Discard(),
	)

	users := map[string]*models.User{"rider": rider, "driver": driver}
	as := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			u, ok := users[r.URL.Query().Get("as")]
			if !ok {
				u = models.AnonymousUser()
			}
			h(w, r.WithContext(models.WithUser(r.Context(), u)))
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/drivers/{driver_id}", as(gw.HandleDriver))
	mux.HandleFunc("GET /ws/bookings/{booking_id}/track", as(gw.HandleTrack))
	mux.HandleFunc("GET /ws/users/{user_id}/bookings", as(gw.HandleBookingUpdates))
	mux.HandleFunc("GET /ws/listings/{listing_id}/chat", as(gw.HandleListingChat))

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		gw.Close()
		srv.Close()
	})

	return &fixture{srv: srv, changes: changes, booking: booking, rider: rider, driver: driver}
}

func (f *fixture) dial(t *testing.T, path string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + path
	c, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Cleanup(func() { c.Close() })
	}
	return c, resp, err
}

func readMsg(t *testing.T, c *websocket.Conn) map[string]any {
	t.Helper()
	c.SetReadDeadline(time.Now().Add(2 * time.Second))
	var m map[string]any
	if err := c.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	return m
}

func readUntil(t *testing.T, c *websocket.Conn, typ string) map[string]any {
	t.Helper()
	for range 10 {
		if m := readMsg(t, c); m["type"] == typ {
			return m
		}
	}
	t.Fatalf("no %q message", typ)
	return nil
}

func bookingChange(t *testing.T, b models.Booking) models.RowChange {
	t.Helper()
	rec, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	return models.RowChange{Table: types.TableBookings, Type: types.ChangeUpdate, Record: rec, CommitTimestamp: time.Now()}
}

func TestTrackingFlow(t *testing.T) {
	f := newFixture(t)

	rider, _, err := f.dial(t, "/ws/bookings/"+f.booking.ID.String()+"/track?as=rider&vibration=true")
	if err != nil {
		t.Fatalf("dial rider: %v", err)
	}
	first := readMsg(t, rider)
	if first["type"] != "status_changed" || first["status"] != "confirmed" {
		t.Fatalf("first message = %v", first)
	}

	driver, _, err := f.dial(t, "/ws/drivers/"+f.driver.ID.String()+"?as=driver")
	if err != nil {
		t.Fatalf("dial driver: %v", err)
	}
	if err := driver.WriteJSON(map[string]any{"type": "start_broadcast", "booking_id": f.booking.ID.String()}); err != nil {
		t.Fatal(err)
	}
	started := readMsg(t, driver)
	if started["type"] != "broadcast_started" || started["booking_id"] != f.booking.ID.String() {
		t.Fatalf("start reply = %v", started)
	}

	if err := driver.WriteJSON(map[string]any{"type": "position", "lat": 12.97, "lng": 77.59, "heading": 90}); err != nil {
		t.Fatal(err)
	}
	loc := readUntil(t, rider, "driver_location")
	location, _ := loc["location"].(map[string]any)
	if location["lat"] != 12.97 || location["driverId"] != f.driver.ID.String() {
		t.Fatalf("location = %v", loc)
	}

	done := *f.booking
	done.Status = types.BookingCompleted
	if _, err := f.changes.Dispatch(bookingChange(t, done)); err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{}
	for range 6 {
		m := readMsg(t, rider)
		seen[m["type"].(string)] = true
		if seen["rate_driver"] && seen["feedback"] && seen["vibrate"] {
			break
		}
	}
	for _, typ := range []string{"status_changed", "toast", "rate_driver", "feedback", "vibrate"} {
		if !seen[typ] {
			t.Errorf("missing %q event, saw %v", typ, seen)
		}
	}
}

func TestDriverSocket_Validation(t *testing.T) {
	f := newFixture(t)

	driver, _, err := f.dial(t, "/ws/drivers/"+f.driver.ID.String()+"?as=driver")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	tests := []struct {
		name string
		msg  map[string]any
	}{
		{"unknown type", map[string]any{"type": "teleport"}},
		{"bad booking id", map[string]any{"type": "start_broadcast", "booking_id": "nope"}},
		{"lat out of range", map[string]any{"type": "position", "lat": 91, "lng": 0}},
		{"unknown booking", map[string]any{"type": "start_broadcast", "booking_id": uuid.NewString()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := driver.WriteJSON(tt.msg); err != nil {
				t.Fatal(err)
			}
			if m := readMsg(t, driver); m["type"] != "error" {
				t.Fatalf("reply = %v, want error", m)
			}
		})
	}
}

func TestAuthorization(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"anonymous driver socket", "/ws/drivers/" + f.driver.ID.String(), http.StatusUnauthorized},
		{"rider on driver socket", "/ws/drivers/" + f.driver.ID.String() + "?as=rider", http.StatusForbidden},
		{"other user's updates", "/ws/users/" + f.driver.ID.String() + "/bookings?as=rider", http.StatusForbidden},
		{"unknown booking", "/ws/bookings/" + uuid.NewString() + "/track?as=rider", http.StatusNotFound},
		{"anonymous listing chat", "/ws/listings/" + uuid.NewString() + "/chat", http.StatusUnauthorized},
		{"invalid listing id", "/ws/listings/not-a-uuid/chat?as=rider", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := f.dial(t, tt.path)
			if err == nil {
				t.Fatal("expected dial to fail")
			}
			if resp == nil || resp.StatusCode != tt.want {
				t.Fatalf("status = %v, want %d", resp, tt.want)
			}
		})
	}
}

func TestBookingUpdates(t *testing.T) {
	f := newFixture(t)

	c, _, err := f.dial(t, "/ws/users/"+f.rider.ID.String()+"/bookings?as=rider")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	// subscription is registered after the upgrade; retry until it is seen
	deadline := time.Now().Add(2 * time.Second)
	for {
		n, err := f.changes.Dispatch(bookingChange(t, *f.booking))
		if err != nil {
			t.Fatal(err)
		}
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("subscription never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	m := readMsg(t, c)
	if m["type"] != "booking_update" || m["booking_id"] != f.booking.ID.String() {
		t.Fatalf("message = %v", m)
	}
}

func TestListingChat(t *testing.T) {
	f := newFixture(t)
	listingID := uuid.New()

	c, _, err := f.dial(t, "/ws/listings/"+listingID.String()+"/chat?as=rider")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	carChat := func(m models.CarChatMessage) models.RowChange {
		rec, err := json.Marshal(m)
		if err != nil {
			t.Fatal(err)
		}
		return models.RowChange{Table: types.TableCarChats, Type: types.ChangeInsert, Record: rec, CommitTimestamp: time.Now()}
	}

	// messages between other users are never forwarded to the rider
	foreign := carChat(models.CarChatMessage{ID: uuid.New(), ListingID: listingID, SenderID: uuid.New(), RecipientID: uuid.New(), Text: "not yours"})
	deadline := time.Now().Add(2 * time.Second)
	for {
		n, err := f.changes.Dispatch(foreign)
		if err != nil {
			t.Fatal(err)
		}
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("subscription never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	mine := models.CarChatMessage{ID: uuid.New(), ListingID: listingID, SenderID: f.driver.ID, RecipientID: f.rider.ID, Text: "seat is free"}
	if _, err := f.changes.Dispatch(carChat(mine)); err != nil {
		t.Fatal(err)
	}

	m := readMsg(t, c)
	if m["type"] != "car_chat_message" || m["listing_id"] != listingID.String() {
		t.Fatalf("message = %v", m)
	}
	payload, _ := m["payload"].(map[string]any)
	if payload["text"] != "seat is free" {
		t.Fatalf("payload = %v", payload)
	}
}
