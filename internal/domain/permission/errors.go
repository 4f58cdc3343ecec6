package permission

import "errors"

var (
	ErrCapabilityDenied    = errors.New("insufficient permissions")
	ErrSuperAdminProtected = errors.New("cannot modify superadmin permissions")
	ErrAdminRequired       = errors.New("only admins can update permissions")
	ErrViewOwnOnly         = errors.New("you can only view your own permissions")
	ErrInvalidModule       = errors.New("invalid module")
)
