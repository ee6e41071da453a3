package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/pkg/validator"
)

// DateLayout is the format of the ?date= ride search parameter.
const DateLayout = "2006-01-02"

type CreateRideRequest struct {
	VehicleID   string    `json:"vehicle_id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	DepartureAt time.Time `json:"departure_at"`
	Seats       int       `json:"seats"`
	Fare        float64   `json:"fare"`
}

func (r *CreateRideRequest) Validate(v *validator.Validator, now time.Time) {
	_, err := uuid.Parse(r.VehicleID)
	v.Check(err == nil, "vehicle_id", "must be a valid uuid")

	v.Check(strings.TrimSpace(r.Origin) != "", "origin", "must be provided")
	v.Check(validator.MaxChars(r.Origin, 200), "origin", "must not be more than 200 characters")
	v.Check(strings.TrimSpace(r.Destination) != "", "destination", "must be provided")
	v.Check(validator.MaxChars(r.Destination, 200), "destination", "must not be more than 200 characters")

	v.Check(!r.DepartureAt.IsZero(), "departure_at", "must be provided")
	v.Check(r.DepartureAt.After(now), "departure_at", "must be in the future")

	v.Check(validator.InRange(r.Seats, 1, 8), "seats", "must be between 1 and 8")
	v.Check(r.Fare >= 0, "fare", "must not be negative")
}

func (r *CreateRideRequest) ToModel() *models.Ride {
	return &models.Ride{
		VehicleID:   uuid.MustParse(r.VehicleID),
		Origin:      r.Origin,
		Destination: r.Destination,
		DepartureAt: r.DepartureAt.UTC(),
		SeatsTotal:  r.Seats,
		Fare:        r.Fare,
	}
}

type ReasonRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (r *ReasonRequest) Validate(v *validator.Validator) {
	v.Check(validator.MaxChars(r.Reason, 500), "reason", "must not be more than 500 characters")
}

type BookingRequest struct {
	RideID string `json:"ride_id"`
	Seats  int    `json:"seats"`
}

func (r *BookingRequest) Validate(v *validator.Validator) {
	_, err := uuid.Parse(r.RideID)
	v.Check(err == nil, "ride_id", "must be a valid uuid")
	v.Check(validator.InRange(r.Seats, 1, 8), "seats", "must be between 1 and 8")
}

type RatingRequest struct {
	Stars   int    `json:"stars"`
	Comment string `json:"comment,omitempty"`
}

func (r *RatingRequest) Validate(v *validator.Validator) {
	v.Check(validator.InRange(r.Stars, 1, 5), "stars", "must be between 1 and 5")
	v.Check(validator.MaxChars(r.Comment, 1000), "comment", "must not be more than 1000 characters")
}
