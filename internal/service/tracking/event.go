package tracking

import (
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
)

type EventType string

const (
	EventDriverLocation EventType = "driver_location"
	EventStatusChanged  EventType = "status_changed"
	EventToast          EventType = "toast"
	EventRateDriver     EventType = "rate_driver"
)

const (
	ToastSuccess = "success"
	ToastError   = "error"
)

type Toast struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Event is one state change of a tracking session.
type Event struct {
	Type      EventType               `json:"type"`
	BookingID string                  `json:"booking_id"`
	Location  *models.LocationMessage `json:"location,omitempty"`
	Status    types.BookingStatus     `json:"status,omitempty"`
	Toast     *Toast                  `json:"toast,omitempty"`
	DriverID  string                  `json:"driver_id,omitempty"`
}
