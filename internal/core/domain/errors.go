package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrValidation indicates malformed or invalid input
	// (empty rects, empty memo body, invalid page).
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a requested anchor, memo or highlight does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	// Raised when a second highlight is attached to the same anchor.
	ErrAlreadyExists = errors.New("already exists")

	// ErrTransport indicates the annotation backend could not be reached
	// or answered with a server failure.
	ErrTransport = errors.New("transport failure")

	// ErrConcurrencyDrift indicates a page fetch resolved after a newer
	// page context became active. The result is dropped, never shown.
	ErrConcurrencyDrift = errors.New("stale page response")

	// ErrSaving indicates a submission is already in flight.
	ErrSaving = errors.New("a save is already in progress")

	// ErrNotImplemented indicates functionality is not yet available.
	ErrNotImplemented = errors.New("not implemented")
)

// UserMessage returns the short, user-facing text for an error.
// Drift is internal and yields an empty string.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConcurrencyDrift):
		return ""
	case errors.Is(err, ErrNotFound):
		return "This annotation no longer exists. Refresh the page and try again."
	case errors.Is(err, ErrSaving):
		return "Still saving, please wait."
	case errors.Is(err, ErrValidation), errors.Is(err, ErrAlreadyExists):
		return err.Error()
	case errors.Is(err, ErrTransport):
		return "Could not reach the annotation server. Your changes were not saved."
	default:
		return err.Error()
	}
}
