package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/internal/service/notification"
	"github.com/hpyride/hpyride/pkg/logger"
)

type memMessages struct {
	booking []models.ChatMessage
	car     []models.CarChatMessage
}

func (m *memMessages) Create(_ context.Context, msg *models.ChatMessage) error {
	msg.ID = uuid.New()
	m.booking = append(m.booking, *msg)
	return nil
}

func (m *memMessages) ListByBooking(_ context.Context, id uuid.UUID, _ models.Filters) ([]models.ChatMessage, models.Metadata, error) {
	var out []models.ChatMessage
	for _, msg := range m.booking {
		if msg.BookingID == id {
			out = append(out, msg)
		}
	}
	return out, models.Metadata{TotalRecords: len(out)}, nil
}

type memCarChats struct{ *memMessages }

func (m memCarChats) Create(_ context.Context, msg *models.CarChatMessage) error {
	msg.ID = uuid.New()
	m.car = append(m.car, *msg)
	return nil
}

func (m memCarChats) ListByListing(_ context.Context, listingID, userID uuid.UUID, _ models.Filters) ([]models.CarChatMessage, models.Metadata, error) {
	var out []models.CarChatMessage
	for _, msg := range m.car {
		if msg.ListingID == listingID && (msg.SenderID == userID || msg.RecipientID == userID) {
			out = append(out, msg)
		}
	}
	return out, models.Metadata{TotalRecords: len(out)}, nil
}

type stubBookings map[uuid.UUID]models.Booking

func (s stubBookings) FindByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	b, ok := s[id]
	if !ok {
		return nil, types.ErrBookingNotFound
	}
	return &b, nil
}

type stubRides map[uuid.UUID]models.Ride

func (s stubRides) FindByID(_ context.Context, id uuid.UUID) (*models.Ride, error) {
	r, ok := s[id]
	if !ok {
		return nil, types.ErrRideNotFound
	}
	return &r, nil
}

type recNotifier struct {
	to []uuid.UUID
	t  []notification.Template
}

func (n *recNotifier) Send(_ context.Context, userID uuid.UUID, t notification.Template) (*models.Notification, error) {
	n.to = append(n.to, userID)
	n.t = append(n.t, t)
	return &models.Notification{}, nil
}

func setup() (*Service, *memMessages, *recNotifier, models.Booking, models.Ride) {
	rider, driver := uuid.New(), uuid.New()
	b := models.Booking{ID: uuid.New(), RiderID: rider, DriverID: driver, Status: types.BookingConfirmed}
	r := models.Ride{ID: uuid.New(), DriverID: driver}

	msgs := &memMessages{}
	n := &recNotifier{}
	svc := NewService(msgs, memCarChats{msgs}, stubBookings{b.ID: b}, stubRides{r.ID: r}, n, logger.Discard())
	return svc, msgs, n, b, r
}

func TestSend(t *testing.T) {
	svc, msgs, n, b, _ := setup()
	ctx := context.Background()
	rider := &models.User{ID: b.RiderID, Name: "Asha"}

	m, err := svc.Send(ctx, rider, b.ID, "  I'm at gate 2 ")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if m.Text != "I'm at gate 2" || len(msgs.booking) != 1 {
		t.Fatalf("unexpected stored message %+v", m)
	}
	if len(n.to) != 1 || n.to[0] != b.DriverID {
		t.Fatalf("the driver must be notified, got %v", n.to)
	}
	if n.t[0].Kind != types.KindNewMessage || n.t[0].Data["booking_id"] != b.ID.String() {
		t.Fatalf("unexpected notification %+v", n.t[0])
	}

	list, _, err := svc.History(ctx, &models.User{ID: b.DriverID}, b.ID, models.DefaultFilters())
	if err != nil || len(list) != 1 {
		t.Fatalf("History = %v, %v", list, err)
	}
}

func TestSend_Rejects(t *testing.T) {
	svc, _, n, b, _ := setup()
	ctx := context.Background()
	stranger := &models.User{ID: uuid.New()}

	if _, err := svc.Send(ctx, stranger, b.ID, "hi"); !errors.Is(err, types.ErrNotParticipant) {
		t.Errorf("stranger: got %v", err)
	}
	if _, _, err := svc.History(ctx, stranger, b.ID, models.DefaultFilters()); !errors.Is(err, types.ErrNotParticipant) {
		t.Errorf("stranger history: got %v", err)
	}
	rider := &models.User{ID: b.RiderID}
	if _, err := svc.Send(ctx, rider, b.ID, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("blank: got %v", err)
	}
	if _, err := svc.Send(ctx, rider, b.ID, strings.Repeat("a", MaxTextLength+1)); !errors.Is(err, ErrMessageTooLong) {
		t.Errorf("long: got %v", err)
	}
	if len(n.to) != 0 {
		t.Fatal("rejected messages must not notify")
	}
}

func TestSendListing(t *testing.T) {
	svc, _, n, _, r := setup()
	ctx := context.Background()
	buyer := &models.User{ID: uuid.New(), Name: "Meera"}
	owner := &models.User{ID: r.DriverID, Name: "Ravi"}

	m, err := svc.SendListing(ctx, buyer, r.ID, uuid.Nil, "Is it still available?")
	if err != nil {
		t.Fatalf("SendListing: %v", err)
	}
	if m.RecipientID != owner.ID {
		t.Fatalf("recipient = %s, want listing owner", m.RecipientID)
	}

	if _, err := svc.SendListing(ctx, owner, r.ID, uuid.Nil, "Yes"); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("owner without recipient: got %v", err)
	}
	if _, err := svc.SendListing(ctx, owner, r.ID, buyer.ID, "Yes"); err != nil {
		t.Fatalf("owner reply: %v", err)
	}

	if len(n.to) != 2 || n.to[0] != owner.ID || n.to[1] != buyer.ID {
		t.Fatalf("notified %v", n.to)
	}

	list, _, err := svc.ListingHistory(ctx, buyer, r.ID, models.DefaultFilters())
	if err != nil || len(list) != 2 {
		t.Fatalf("ListingHistory = %d messages, %v", len(list), err)
	}
	other, _, _ := svc.ListingHistory(ctx, &models.User{ID: uuid.New()}, r.ID, models.DefaultFilters())
	if len(other) != 0 {
		t.Fatal("third parties must not see the thread")
	}
}
