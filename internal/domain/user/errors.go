package user

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserInactive    = errors.New("user is inactive")
	ErrInvalidRole     = errors.New("invalid role")
	ErrMissingCallerID = errors.New("user_id claim is missing or invalid")
)
