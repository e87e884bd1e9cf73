package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidQuery indicates an empty or malformed search query.
	// Rejected before any source is contacted.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrSourceTimeout indicates a retrieval source exceeded the shared budget
	ErrSourceTimeout = errors.New("source timeout")

	// ErrSourceFailure indicates a retrieval source returned an error
	ErrSourceFailure = errors.New("source failure")

	// ErrAllSourcesFailed indicates no retrieval source produced usable data
	ErrAllSourcesFailed = errors.New("all sources failed")

	// ErrProfileBuild indicates a personalization profile could not be built.
	// Callers fall back to non-personalized ranking.
	ErrProfileBuild = errors.New("profile build failed")

	// ErrMalformedHit indicates a source hit is missing required fields
	ErrMalformedHit = errors.New("malformed hit")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrServiceUnavailable indicates a backing service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)
