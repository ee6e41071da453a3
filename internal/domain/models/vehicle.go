package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/types"
)

type Vehicle struct {
	ID                 uuid.UUID                `json:"id"`
	OwnerID            uuid.UUID                `json:"owner_id"`
	RegistrationNumber string                   `json:"registration_number"`
	Make               string                   `json:"make,omitempty"`
	Model              string                   `json:"model,omitempty"`
	Seats              int                      `json:"seats"`
	Status             types.VerificationStatus `json:"status"`
	CreatedAt          time.Time                `json:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at,omitzero"`
}

// Verification is the identity check record of a user.
type Verification struct {
	ID          uuid.UUID                `json:"id"`
	UserID      uuid.UUID                `json:"user_id"`
	Status      types.VerificationStatus `json:"status"`
	DocumentURL string                   `json:"document_url,omitempty"`
	Reason      string                   `json:"reason,omitempty"`
	ReviewedBy  *uuid.UUID               `json:"reviewed_by,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at,omitzero"`
}

// Review is an admin decision on a verification or a vehicle.
type Review struct {
	ID         uuid.UUID
	ReviewerID uuid.UUID
	Status     types.VerificationStatus
	Reason     string
}

type Rating struct {
	ID        uuid.UUID `json:"id"`
	BookingID uuid.UUID `json:"booking_id"`
	RaterID   uuid.UUID `json:"rater_id"`
	RateeID   uuid.UUID `json:"ratee_id"`
	Stars     int       `json:"stars"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
