package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/types"
)

// Booking is a rider's reserved seat on a ride.
type Booking struct {
	ID           uuid.UUID           `json:"id"`
	RideID       uuid.UUID           `json:"ride_id"`
	RiderID      uuid.UUID           `json:"rider_id"`
	DriverID     uuid.UUID           `json:"driver_id"`
	Seats        int                 `json:"seats"`
	Status       types.BookingStatus `json:"status"`
	CancelReason string              `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at,omitzero"`
}

// Counterpart returns the other participant of the booking.
func (b *Booking) Counterpart(userID uuid.UUID) (uuid.UUID, bool) {
	switch userID {
	case b.RiderID:
		return b.DriverID, true
	case b.DriverID:
		return b.RiderID, true
	}
	return uuid.Nil, false
}

// BookingChange is the typed payload of a change-feed event on the bookings table.
type BookingChange struct {
	Type    types.ChangeType `json:"type"`
	Booking Booking          `json:"booking"`
	Old     *Booking         `json:"old,omitempty"`
}

var ErrInvalidBookingRecord = errors.New("invalid booking record")

// DecodeBookingChange validates a raw row change against the bookings schema.
func DecodeBookingChange(c RowChange) (BookingChange, error) {
	if c.Table != types.TableBookings {
		return BookingChange{}, fmt.Errorf("%w: table %q", ErrInvalidBookingRecord, c.Table)
	}

	src := c.Record
	if c.Type == types.ChangeDelete {
		src = c.OldRecord
	}

	var b Booking
	if err := json.Unmarshal(src, &b); err != nil {
		return BookingChange{}, fmt.Errorf("%w: %v", ErrInvalidBookingRecord, err)
	}
	if b.ID == uuid.Nil {
		return BookingChange{}, fmt.Errorf("%w: missing id", ErrInvalidBookingRecord)
	}
	if !b.Status.Valid() {
		return BookingChange{}, fmt.Errorf("%w: status %q", ErrInvalidBookingRecord, b.Status)
	}

	out := BookingChange{Type: c.Type, Booking: b}

	if len(c.OldRecord) > 0 && c.Type == types.ChangeUpdate {
		var old Booking
		if err := json.Unmarshal(c.OldRecord, &old); err == nil && old.ID != uuid.Nil {
			out.Old = &old
		}
	}

	return out, nil
}
