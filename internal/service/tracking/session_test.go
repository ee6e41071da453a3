package tracking

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/internal/service/feedback"
	"github.com/hpyride/hpyride/internal/service/realtime"
	"github.com/hpyride/hpyride/pkg/broadcast"
	"github.com/hpyride/hpyride/pkg/logger"
)

type deviceGPS struct {
	mu      sync.Mutex
	onFix   func(models.Position)
	cleared bool
}

func (g *deviceGPS) Available() bool { return true }

func (g *deviceGPS) WatchPosition(onPosition func(models.Position), _ func(error)) (realtime.WatchID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onFix = onPosition
	return 1, nil
}

func (g *deviceGPS) ClearWatch(realtime.WatchID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onFix = nil
	g.cleared = true
}

func (g *deviceGPS) fix(p models.Position) {
	g.mu.Lock()
	h := g.onFix
	g.mu.Unlock()
	if h != nil {
		h(p)
	}
}

type cueRecorder struct {
	played chan feedback.Category
}

func (c *cueRecorder) Play(_ context.Context, cat feedback.Category) {
	c.played <- cat
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) add(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) types() []EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventType, len(l.events))
	for i, e := range l.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	driver *realtime.LocationService
	rider  *realtime.LocationService
	feed   *realtime.ChangeHub
	gps    *deviceGPS
	cues   *cueRecorder
}

func newFixture() *fixture {
	broker := realtime.NewHubBroker(broadcast.NewHub())
	feed := realtime.NewChangeHub(broadcast.NewHub())
	gps := &deviceGPS{}
	return &fixture{
		driver: realtime.NewLocationService(broker, feed, gps, logger.Discard()),
		rider:  realtime.NewLocationService(broker, feed, nil, logger.Discard()),
		feed:   feed,
		gps:    gps,
		cues:   &cueRecorder{played: make(chan feedback.Category, 4)},
	}
}

func (f *fixture) deps() Deps {
	return Deps{Realtime: f.rider, Player: f.cues, Log: logger.Discard()}
}

func (f *fixture) setStatus(t *testing.T, b models.Booking, status types.BookingStatus) {
	t.Helper()
	b.Status = status
	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := f.feed.Dispatch(models.RowChange{Table: types.TableBookings, Type: types.ChangeUpdate, Record: raw}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
}

func TestSession_TrackToCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	booking := models.Booking{ID: uuid.New(), RiderID: uuid.New(), DriverID: uuid.New(), Status: types.BookingConfirmed}
	bookingID := booking.ID.String()

	var log eventLog
	s, err := Open(ctx, f.deps(), bookingID, types.BookingConfirmed, log.add)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := f.driver.StartBroadcasting(ctx, booking.DriverID.String(), bookingID); err != nil {
		t.Fatalf("start broadcasting: %v", err)
	}
	defer f.driver.StopBroadcasting(ctx)

	f.gps.fix(models.Position{Lat: 12.9, Lng: 77.6, Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})

	loc, ok := s.DriverLocation()
	if !ok {
		t.Fatal("driver location not updated")
	}
	if loc.Lat != 12.9 || loc.Lng != 77.6 || loc.BookingID != bookingID {
		t.Errorf("unexpected location: %+v", loc)
	}

	f.setStatus(t, booking, types.BookingInProgress)
	f.setStatus(t, booking, types.BookingCompleted)

	if s.Status() != types.BookingCompleted {
		t.Fatalf("status = %q", s.Status())
	}

	want := []EventType{
		EventDriverLocation,
		EventStatusChanged,
		EventStatusChanged,
		EventToast,
		EventRateDriver,
	}
	got := log.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}

	toast := log.events[3].Toast
	if toast == nil || toast.Kind != ToastSuccess {
		t.Errorf("unexpected toast: %+v", toast)
	}
	if log.events[4].DriverID != booking.DriverID.String() {
		t.Errorf("rate prompt for %q", log.events[4].DriverID)
	}

	select {
	case c := <-f.cues.played:
		if c != feedback.CategorySuccess {
			t.Errorf("cue = %q, want success", c)
		}
	case <-time.After(time.Second):
		t.Fatal("success cue not played")
	}
}

func TestSession_CompletionPromptsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	booking := models.Booking{ID: uuid.New(), RiderID: uuid.New(), DriverID: uuid.New()}

	var log eventLog
	s, err := Open(ctx, f.deps(), booking.ID.String(), types.BookingInProgress, log.add)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	f.setStatus(t, booking, types.BookingCompleted)
	f.setStatus(t, booking, types.BookingCompleted)

	prompts := 0
	for _, typ := range log.types() {
		if typ == EventRateDriver {
			prompts++
		}
	}
	if prompts != 1 {
		t.Fatalf("rate prompts = %d, want 1", prompts)
	}
}

func TestSession_CancelledShowsErrorToast(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	booking := models.Booking{ID: uuid.New(), RiderID: uuid.New(), DriverID: uuid.New()}

	var log eventLog
	s, err := Open(ctx, f.deps(), booking.ID.String(), types.BookingConfirmed, log.add)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	f.setStatus(t, booking, types.BookingCancelled)

	got := log.types()
	if len(got) != 2 || got[1] != EventToast || log.events[1].Toast.Kind != ToastError {
		t.Fatalf("unexpected events: %v", got)
	}
	select {
	case c := <-f.cues.played:
		if c != feedback.CategoryError {
			t.Errorf("cue = %q", c)
		}
	case <-time.After(time.Second):
		t.Fatal("error cue not played")
	}
}

func TestSession_CloseStopsEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	booking := models.Booking{ID: uuid.New(), RiderID: uuid.New(), DriverID: uuid.New()}

	var log eventLog
	s, err := Open(ctx, f.deps(), booking.ID.String(), types.BookingConfirmed, log.add)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.Close()
	s.Close()

	f.setStatus(t, booking, types.BookingInProgress)
	if n := len(log.types()); n != 0 {
		t.Fatalf("received %d events after close", n)
	}
}
