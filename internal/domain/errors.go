package domain

import "errors"

var (
	// ErrNotFound signals that a campaign, mail job, or mail list does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotConfigured signals that a user has no SMTP credential on record.
	ErrNotConfigured = errors.New("smtp credential not configured")

	// ErrValidation signals malformed input (recipient, status, transition).
	ErrValidation = errors.New("validation error")

	// ErrConflict signals a state transition that is no longer possible.
	ErrConflict = errors.New("conflict")

	// ErrForbidden signals an operation on a resource owned by another user.
	ErrForbidden = errors.New("forbidden")
)
