package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrAuthExpired      = fmt.Errorf("credential expired or revoked")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrInvalidSession   = fmt.Errorf("invalid session token")

	// API and service errors
	ErrUpstream           = fmt.Errorf("upstream API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Store errors
	ErrUserNotFound     = fmt.Errorf("user not found")
	ErrGroupNotFound    = fmt.Errorf("group not found")
	ErrGroupConflict    = fmt.Errorf("group was modified concurrently")
	ErrNotGroupMember   = fmt.Errorf("user is not a member of the group")
	ErrPreviewNotFound  = fmt.Errorf("preview not found or expired")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
