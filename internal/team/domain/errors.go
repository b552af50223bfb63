package domain

import "errors"

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUnauthorized     = errors.New("you don't have permission to perform this action")

	ErrUserNotFound    = errors.New("user not found")
	ErrUserInactive    = errors.New("user account is not active")
	ErrEmailTaken      = errors.New("a user with this email already exists")
	ErrSelfDeactivate  = errors.New("you cannot deactivate your own account")
	ErrWeakPassword    = errors.New("password must be at least 8 characters long")
	ErrSecretMismatch  = errors.New("invalid secret code")
	ErrNotConfigured   = errors.New("admin secret code is not configured")
)
