package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/types"
)

// ChatMessage belongs to a booking thread. Append-only.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	BookingID uuid.UUID `json:"booking_id"`
	SenderID  uuid.UUID `json:"sender_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CarChatMessage belongs to a car listing thread between two users. Append-only.
type CarChatMessage struct {
	ID          uuid.UUID `json:"id"`
	ListingID   uuid.UUID `json:"listing_id"`
	SenderID    uuid.UUID `json:"sender_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}

var ErrInvalidChatRecord = errors.New("invalid chat record")

// DecodeChatMessage validates an insert on chat_messages.
func DecodeChatMessage(c RowChange) (ChatMessage, error) {
	if c.Table != types.TableChatMessages || c.Type != types.ChangeInsert {
		return ChatMessage{}, fmt.Errorf("%w: %s on %q", ErrInvalidChatRecord, c.Type, c.Table)
	}

	var m ChatMessage
	if err := json.Unmarshal(c.Record, &m); err != nil {
		return ChatMessage{}, fmt.Errorf("%w: %v", ErrInvalidChatRecord, err)
	}
	if m.ID == uuid.Nil || m.BookingID == uuid.Nil || m.SenderID == uuid.Nil {
		return ChatMessage{}, fmt.Errorf("%w: missing ids", ErrInvalidChatRecord)
	}
	return m, nil
}

// DecodeCarChatMessage validates an insert on car_chats.
func DecodeCarChatMessage(c RowChange) (CarChatMessage, error) {
	if c.Table != types.TableCarChats || c.Type != types.ChangeInsert {
		return CarChatMessage{}, fmt.Errorf("%w: %s on %q", ErrInvalidChatRecord, c.Type, c.Table)
	}

	var m CarChatMessage
	if err := json.Unmarshal(c.Record, &m); err != nil {
		return CarChatMessage{}, fmt.Errorf("%w: %v", ErrInvalidChatRecord, err)
	}
	if m.ID == uuid.Nil || m.ListingID == uuid.Nil {
		return CarChatMessage{}, fmt.Errorf("%w: missing ids", ErrInvalidChatRecord)
	}
	return m, nil
}
