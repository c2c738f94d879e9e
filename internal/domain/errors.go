package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// pin does not exist or has been soft-deleted. The two cases are deliberately
// indistinguishable to callers.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing name, unknown category).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrOutOfRange is returned when a position write falls outside the configured
// bounding box. The write is refused; nothing is persisted.
var ErrOutOfRange = errors.New("position out of range")

// ErrAuthorityUnavailable is returned when the external coordinate authority
// cannot be reached, times out, or answers with an unexpected status.
// Reads degrade instead of returning it; writes always surface it.
var ErrAuthorityUnavailable = errors.New("coordinate authority unavailable")

// ErrForbidden is returned when the acting user may not perform an operation
// on a pin (e.g. deleting somebody else's pin without the admin role).
var ErrForbidden = errors.New("forbidden")
