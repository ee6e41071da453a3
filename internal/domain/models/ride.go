package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/types"
)

// Ride is a pooled trip posted by a driver.
type Ride struct {
	ID             uuid.UUID        `json:"id"`
	DriverID       uuid.UUID        `json:"driver_id"`
	VehicleID      uuid.UUID        `json:"vehicle_id"`
	Origin         string           `json:"origin"`
	Destination    string           `json:"destination"`
	DepartureAt    time.Time        `json:"departure_at"`
	SeatsTotal     int              `json:"seats_total"`
	SeatsAvailable int              `json:"seats_available"`
	Fare           float64          `json:"fare"`
	Status         types.RideStatus `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at,omitzero"`
}

// RideSearch narrows GET /rides.
type RideSearch struct {
	Origin      string
	Destination string
	Date        *time.Time
	MinSeats    int
	Filters     Filters
}
