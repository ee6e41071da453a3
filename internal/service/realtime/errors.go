package realtime

import "errors"

var (
	ErrGeolocationUnavailable = errors.New("geolocation is not available on this device")
	ErrChannelUnavailable     = errors.New("realtime channel could not be opened")
	ErrInvalidBroadcast       = errors.New("driver id and booking id are required")
	ErrNilCallback            = errors.New("callback is required")
	ErrEmptyID                = errors.New("id is required")
)
