package admin

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid admin credentials")
	ErrInvalidSession     = errors.New("admin session is invalid or expired")
	ErrUnknownAction      = errors.New("unknown admin action")
)
