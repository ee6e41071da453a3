package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// localLayout is ISO-8601 without an offset. Fractional seconds are optional.
const localLayout = "2006-01-02T15:04:05.999999999"

// ParseTimestamp reads an ISO-8601 date-time. A value without an offset is taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	return time.ParseInLocation(localLayout, s, time.UTC)
}

// Position is one raw fix reported by a device's geolocation source.
type Position struct {
	Lat       float64
	Lng       float64
	Heading   *float64
	Speed     *float64
	Timestamp time.Time
}

// LocationMessage is the payload of a location_update broadcast on driver-location-{bookingId}.
type LocationMessage struct {
	DriverID  string   `json:"driverId"`
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Heading   *float64 `json:"heading,omitempty"`
	Speed     *float64 `json:"speed,omitempty"`
	Timestamp string   `json:"timestamp"`
	BookingID string   `json:"bookingId"`
}

var ErrInvalidLocation = errors.New("invalid location message")

// NewLocationMessage packages a raw fix without any smoothing.
func NewLocationMessage(driverID, bookingID string, p Position) LocationMessage {
	ts := p.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return LocationMessage{
		DriverID:  driverID,
		Lat:       p.Lat,
		Lng:       p.Lng,
		Heading:   p.Heading,
		Speed:     p.Speed,
		Timestamp: ts.UTC().Format(TimestampLayout),
		BookingID: bookingID,
	}
}

func (m LocationMessage) Validate() error {
	switch {
	case m.DriverID == "":
		return fmt.Errorf("%w: driverId is required", ErrInvalidLocation)
	case m.BookingID == "":
		return fmt.Errorf("%w: bookingId is required", ErrInvalidLocation)
	case m.Lat < -90 || m.Lat > 90:
		return fmt.Errorf("%w: lat out of range", ErrInvalidLocation)
	case m.Lng < -180 || m.Lng > 180:
		return fmt.Errorf("%w: lng out of range", ErrInvalidLocation)
	case m.Heading != nil && (*m.Heading < 0 || *m.Heading > 360):
		return fmt.Errorf("%w: heading out of range", ErrInvalidLocation)
	case m.Speed != nil && *m.Speed < 0:
		return fmt.Errorf("%w: speed must not be negative", ErrInvalidLocation)
	}

	if _, err := ParseTimestamp(m.Timestamp); err != nil {
		return fmt.Errorf("%w: timestamp must be ISO-8601", ErrInvalidLocation)
	}
	return nil
}

// DecodeLocationMessage parses and validates a location_update payload.
func DecodeLocationMessage(payload []byte) (LocationMessage, error) {
	var m LocationMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return LocationMessage{}, fmt.Errorf("%w: %v", ErrInvalidLocation, err)
	}
	if err := m.Validate(); err != nil {
		return LocationMessage{}, err
	}
	return m, nil
}
