package service

import "errors"

var (
	// ErrStalePrice means a submitted unit price drifted from the catalog
	// beyond the configured tolerance. The cart should be refreshed and
	// the order resubmitted.
	ErrStalePrice = errors.New("submitted price no longer matches catalog")

	// ErrCollaboratorUnavailable wraps tax or shipping calculation failures
	// after retries and circuit breaking have been applied.
	ErrCollaboratorUnavailable = errors.New("pricing collaborator unavailable")

	// ErrOrderNumberExhausted is returned when every generation attempt
	// collided with an existing order number.
	ErrOrderNumberExhausted = errors.New("could not allocate a unique order number")
)
