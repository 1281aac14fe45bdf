package service

import "errors"

var (
	ErrValidation             = errors.New("validation failed")
	ErrAdminNotFound          = errors.New("admin not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrAccountInactive        = errors.New("admin account is inactive")
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")
	ErrWeakPassword           = errors.New("password does not meet requirements")
	ErrForcedChangeNotAllowed = errors.New("forced password change is only allowed before the first change")
	ErrConflict               = errors.New("already exists")
	ErrTokenExpired           = errors.New("token expired")
)
