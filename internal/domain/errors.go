package domain

import "errors"

var (
	// Link errors
	ErrMalformedStartArgs = errors.New("start arguments must look like <phone>_<tenant>")
	ErrAuthMissing        = errors.New("tenant is not authenticated")

	// Validation errors
	ErrCodeRequired   = errors.New("code is required")
	ErrUserIDRequired = errors.New("user_id is required")
	ErrInvalidUserID  = errors.New("user_id must be a telegram user id")

	// Registry errors
	ErrNoTenants     = errors.New("tenant registry is empty")
	ErrUnknownTenant = errors.New("unknown tenant")
)
