package types

import "errors"

var (
	ErrNotFound         = errors.New("requested item not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrForbidden        = errors.New("action forbidden")
	ErrDatabaseFailed   = errors.New("database operation failed")
	ErrInvalidInput     = errors.New("invalid input")
	ErrProviderFailed   = errors.New("external provider failed")
	ErrPublishFailed    = errors.New("failed to publish message")
	ErrNotConfigured    = errors.New("provider not configured")
	ErrTooManyRequests  = errors.New("too many requests")
	ErrInvalidPhone     = errors.New("phone must be in E.164 format")
	ErrInvalidOTP       = errors.New("code must be 4 to 8 digits")
	ErrAlreadySubmitted = errors.New("already submitted")

	ErrRideNotFound        = errors.New("ride not found")
	ErrRideNotBookable     = errors.New("ride is not open for booking")
	ErrRideCannotBeChanged = errors.New("ride cannot be changed in its current status")
	ErrOwnRide             = errors.New("drivers cannot book their own ride")
	ErrNoSeatsAvailable    = errors.New("not enough seats available")
	ErrVehicleNotVerified  = errors.New("vehicle is not verified")
	ErrVehicleExists       = errors.New("vehicle with this registration number already exists")

	ErrBookingNotFound     = errors.New("booking not found")
	ErrInvalidTransition   = errors.New("booking status transition not allowed")
	ErrBookingNotCompleted = errors.New("booking is not completed")
	ErrAlreadyRated        = errors.New("booking already rated by this user")
	ErrNotParticipant      = errors.New("user is not a participant of this booking")
)
