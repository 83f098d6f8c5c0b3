package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Registry errors
	ErrUnsupportedService = fmt.Errorf("unsupported service")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrAuthAbandoned    = fmt.Errorf("authentication abandoned")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")

	// Provider errors
	ErrCapabilityNotSupported = fmt.Errorf("capability not supported")
	ErrProviderOperation      = fmt.Errorf("provider operation failed")
	ErrProviderNotFound       = fmt.Errorf("provider not found")
	ErrSyncInFlight           = fmt.Errorf("sync already in flight")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
