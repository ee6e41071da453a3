package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/internal/service/notification"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
)

const MaxTextLength = 1000

var (
	ErrEmptyMessage   = errors.New("message text must not be empty")
	ErrMessageTooLong = fmt.Errorf("message text must be at most %d characters", MaxTextLength)
	ErrNoRecipient    = errors.New("recipient is required when the listing owner writes")
)

// Service stores chat messages. Delivery to open screens happens through the change
// feed on chat_messages and car_chats; the recipient also gets a new_message notification.
type Service struct {
	messages MessageRepo
	carChats CarChatRepo
	bookings BookingRepo
	rides    RideRepo
	notifier Notifier
	log      logger.Logger
}

func NewService(messages MessageRepo, carChats CarChatRepo, bookings BookingRepo, rides RideRepo, notifier Notifier, log logger.Logger) *Service {
	return &Service{
		messages: messages,
		carChats: carChats,
		bookings: bookings,
		rides:    rides,
		notifier: notifier,
		log:      log,
	}
}

// Send appends a message to a booking thread. Only the rider and the driver may write.
func (s *Service) Send(ctx context.Context, sender *models.User, bookingID uuid.UUID, text string) (*models.ChatMessage, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "send_chat_message", UserID: sender.ID.String(), BookingID: bookingID.String()})

	text, err := normalize(text)
	if err != nil {
		return nil, err
	}

	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	recipient, ok := b.Counterpart(sender.ID)
	if !ok {
		return nil, wrap.Error(ctx, types.ErrNotParticipant)
	}

	m := &models.ChatMessage{BookingID: b.ID, SenderID: sender.ID, Text: text}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("could not store message: %w", err))
	}

	s.notify(ctx, recipient, notification.NewMessage(sender.Name, text).With("booking_id", b.ID.String()))
	return m, nil
}

func (s *Service) History(ctx context.Context, user *models.User, bookingID uuid.UUID, filters models.Filters) ([]models.ChatMessage, models.Metadata, error) {
	const op = "Service.History"

	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
	}
	if _, ok := b.Counterpart(user.ID); !ok {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, types.ErrNotParticipant)
	}

	list, meta, err := s.messages.ListByBooking(ctx, b.ID, filters)
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
	}
	return list, meta, nil
}

// SendListing writes to the owner of a listing. A listing is a posted ride, so the
// owner is its driver. The owner replies by naming the recipient.
func (s *Service) SendListing(ctx context.Context, sender *models.User, listingID, recipientID uuid.UUID, text string) (*models.CarChatMessage, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "send_car_chat", UserID: sender.ID.String()})

	text, err := normalize(text)
	if err != nil {
		return nil, err
	}

	listing, err := s.rides.FindByID(ctx, listingID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	recipient := listing.DriverID
	if sender.ID == listing.DriverID {
		if recipientID == uuid.Nil || recipientID == sender.ID {
			return nil, ErrNoRecipient
		}
		recipient = recipientID
	}

	m := &models.CarChatMessage{
		ListingID:   listing.ID,
		SenderID:    sender.ID,
		RecipientID: recipient,
		Text:        text,
	}
	if err := s.carChats.Create(ctx, m); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("could not store message: %w", err))
	}

	s.notify(ctx, recipient, notification.NewMessage(sender.Name, text).With("listing_id", listing.ID.String()))
	return m, nil
}

func (s *Service) ListingHistory(ctx context.Context, user *models.User, listingID uuid.UUID, filters models.Filters) ([]models.CarChatMessage, models.Metadata, error) {
	list, meta, err := s.carChats.ListByListing(ctx, listingID, user.ID, filters)
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("Service.ListingHistory: %w", err)
	}
	return list, meta, nil
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, t notification.Template) {
	if _, err := s.notifier.Send(ctx, userID, t); err != nil {
		s.log.Error(ctx, "failed to send notification", err, "kind", t.Kind.String())
	}
}

func normalize(text string) (string, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return "", ErrEmptyMessage
	case utf8.RuneCountInString(text) > MaxTextLength:
		return "", ErrMessageTooLong
	}
	return text, nil
}
