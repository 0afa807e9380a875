package domain

import "errors"

// Failure taxonomy surfaced to the API layer. Components wrap these with
// fmt.Errorf("%w: ...") and the boundary maps them to HTTP statuses.
var (
	// ErrInvalidInput indicates the caller omitted required data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized indicates a missing or unresolvable caller credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotConnected is returned when no provider credential exists for the user.
	ErrNotConnected = errors.New("strava account not connected")
	// ErrProviderRejected indicates the provider refused a code or refresh-token exchange.
	ErrProviderRejected = errors.New("provider rejected token exchange")
	// ErrProviderUnavailable indicates a non-success HTTP response from the provider.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrProviderContract indicates a success status with a malformed provider body.
	ErrProviderContract = errors.New("unexpected provider response shape")
	// ErrPersistence indicates a store write failed.
	ErrPersistence = errors.New("persistence failure")
)
