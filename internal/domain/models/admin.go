package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminUser is the identity kept in an admin session. It never carries credentials.
type AdminUser struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

type AdminSession struct {
	Token     string    `json:"-"`
	AdminUser AdminUser `json:"adminUser"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Overview struct {
	Timestamp            time.Time `json:"timestamp"`
	Users                int       `json:"users"`
	Drivers              int       `json:"drivers"`
	ScheduledRides       int       `json:"scheduled_rides"`
	ActiveBookings       int       `json:"active_bookings"`
	PendingVerifications int       `json:"pending_verifications"`
	PendingVehicles      int       `json:"pending_vehicles"`
}
