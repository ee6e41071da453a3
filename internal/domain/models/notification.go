package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/types"
)

// Notification is the durable in-app record of a notification.
type Notification struct {
	ID        uuid.UUID              `json:"id"`
	UserID    uuid.UUID              `json:"user_id"`
	Type      types.NotificationKind `json:"type"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Payload   map[string]string      `json:"payload,omitempty"`
	IsRead    bool                   `json:"is_read"`
	CreatedAt time.Time              `json:"created_at"`
}

// PushRequest is the body of the send-push-notification function.
type PushRequest struct {
	UserID uuid.UUID         `json:"userId"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

type PushResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
}

// BroadcastRequest is the body of the broadcast-notification function.
type BroadcastRequest struct {
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Audience types.Audience `json:"audience"`
}

type BroadcastResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}
