package domain

import "errors"

var (
	ErrInvalidRequest        = errors.New("invalid request")
	ErrNotFound              = errors.New("not found")
	ErrPlatformNotConfigured = errors.New("platform not configured")
	ErrPlatformDisabled      = errors.New("platform not enabled")
	ErrMissingCredentials    = errors.New("credentials are required")
	ErrMissingRequiredField  = errors.New("missing required credential field")
	ErrUnsupportedPlatform   = errors.New("unsupported platform")
	ErrUpstreamFetch         = errors.New("upstream fetch failed")
)
