package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/pkg/validator"
)

// Client message types on the driver socket.
const (
	TypeStartBroadcast = "start_broadcast"
	TypeStopBroadcast  = "stop_broadcast"
	TypePosition       = "position"
)

// Server message types.
const (
	TypeBroadcastStarted = "broadcast_started"
	TypeBroadcastStopped = "broadcast_stopped"
	TypeRideRequest      = "ride_request"
	TypeBookingUpdate    = "booking_update"
	TypeChatMessage      = "chat_message"
	TypeCarChatMessage   = "car_chat_message"
	TypeFeedback         = "feedback"
	TypeVibrate          = "vibrate"
	TypeError            = "error"
)

// ClientMessage is the envelope every client frame is decoded into first.
type ClientMessage struct {
	Type      string   `json:"type"`
	BookingID string   `json:"booking_id,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
	Heading   *float64 `json:"heading,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
}

func DecodeClientMessage(raw []byte) (ClientMessage, error) {
	var m ClientMessage
	err := json.Unmarshal(raw, &m)
	return m, err
}

func (m *ClientMessage) Validate(v *validator.Validator) {
	v.Check(validator.PermittedValue(m.Type, TypeStartBroadcast, TypeStopBroadcast, TypePosition), "type", "unknown message type")

	switch m.Type {
	case TypeStartBroadcast:
		_, err := uuid.Parse(m.BookingID)
		v.Check(err == nil, "booking_id", "must be a valid uuid")
	case TypePosition:
		v.Check(m.Lat != nil, "lat", "must be provided")
		v.Check(m.Lng != nil, "lng", "must be provided")
		if m.Lat != nil {
			v.Check(validator.InRange(*m.Lat, -90, 90), "lat", "must be between -90 and 90")
		}
		if m.Lng != nil {
			v.Check(validator.InRange(*m.Lng, -180, 180), "lng", "must be between -180 and 180")
		}
		if m.Heading != nil {
			v.Check(validator.InRange(*m.Heading, 0, 360), "heading", "must be between 0 and 360")
		}
		if m.Speed != nil {
			v.Check(*m.Speed >= 0, "speed", "must not be negative")
		}
		if m.Timestamp != "" {
			_, err := models.ParseTimestamp(m.Timestamp)
			v.Check(err == nil, "timestamp", "must be ISO-8601")
		}
	}
}

// Position converts a validated position message. A missing timestamp means now.
func (m *ClientMessage) Position() models.Position {
	p := models.Position{
		Heading:   m.Heading,
		Speed:     m.Speed,
		Timestamp: time.Now(),
	}
	if m.Lat != nil {
		p.Lat = *m.Lat
	}
	if m.Lng != nil {
		p.Lng = *m.Lng
	}
	if ts, err := models.ParseTimestamp(m.Timestamp); err == nil {
		p.Timestamp = ts
	}
	return p
}

type ServerMessage struct {
	Type      string `json:"type"`
	BookingID string `json:"booking_id,omitempty"`
	ListingID string `json:"listing_id,omitempty"`
	Payload   any    `json:"payload,omitempty"`
	Error     any    `json:"error,omitempty"`
}

// FeedbackCue tells the client which sound cue to play.
type FeedbackCue struct {
	Category   string `json:"category"`
	URL        string `json:"url"`
	DurationMS int64  `json:"duration_ms"`
}

type Vibration struct {
	PatternMS []int64 `json:"pattern_ms"`
}
