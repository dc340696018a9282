package shared

import "errors"

var (
	// Configuration errors
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrMissingCredentials = errors.New("missing credentials")

	// Authentication errors
	ErrAuthFailed       = errors.New("authentication failed")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionExpired   = errors.New("session expired")

	// Upstream and cache errors
	ErrUpstreamFailure  = errors.New("upstream request failed")
	ErrResponseTooLarge = errors.New("upstream response exceeds size limit")
	ErrCacheFailure     = errors.New("cache operation failed")
	ErrTimeout          = errors.New("operation timed out")
	ErrMissingArgument  = errors.New("missing required argument")
)
