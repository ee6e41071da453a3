package types

type ServiceMode string

// API Service - REST surface: auth, rides, bookings, chat, notifications, feedback cues
// Realtime Service - WebSocket gateway: driver location broadcast and change-feed fan-out
// Functions Service - named serverless-style functions (admin-data, OTP, push, AI chat)
const (
	APIService       ServiceMode = "api-service"
	RealtimeService  ServiceMode = "realtime-service"
	FunctionsService ServiceMode = "functions-service"
)

func (m ServiceMode) String() string {
	return string(m)
}

// UserRole of an account.
type UserRole string

func (r UserRole) String() string {
	return string(r)
}

const (
	RoleRider  UserRole = "RIDER"
	RoleDriver UserRole = "DRIVER"
	RoleAdmin  UserRole = "ADMIN"
)

// RideStatus of a posted ride.
type RideStatus string

const (
	RideScheduled  RideStatus = "scheduled"
	RideInProgress RideStatus = "in_progress"
	RideCompleted  RideStatus = "completed"
	RideCancelled  RideStatus = "cancelled"
)

// VerificationStatus of a user or a vehicle.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "unverified"
	VerificationPending    VerificationStatus = "pending"
	VerificationVerified   VerificationStatus = "verified"
	VerificationRejected   VerificationStatus = "rejected"
)

// Audience of a promotional broadcast.
type Audience string

const (
	AudienceAll     Audience = "all"
	AudienceRiders  Audience = "riders"
	AudienceDrivers Audience = "drivers"
)

func (a Audience) Valid() bool {
	switch a {
	case AudienceAll, AudienceRiders, AudienceDrivers:
		return true
	}
	return false
}

// Role returns the user role the audience is limited to, or "" for everyone.
func (a Audience) Role() UserRole {
	switch a {
	case AudienceRiders:
		return RoleRider
	case AudienceDrivers:
		return RoleDriver
	}
	return ""
}
