package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound signals a missing grid session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRecordNotFound signals that no record in the current result set has the given primary key.
	ErrRecordNotFound = errors.New("record not found")
	// ErrInvalidEnvelope signals a result envelope that cannot be decoded at all.
	ErrInvalidEnvelope = errors.New("invalid result envelope")
	// ErrInvalidEdit signals a column edit whose arguments are malformed (not merely stale).
	ErrInvalidEdit = errors.New("invalid column edit")
	// ErrTooManySessions signals that the session store is full.
	ErrTooManySessions = errors.New("too many sessions")
)

// EnvelopeError wraps ErrInvalidEnvelope with the offending field.
type EnvelopeError struct {
	Field string
	Err   error
}

func (e *EnvelopeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrInvalidEnvelope.Error(), e.Field)
	}
	return fmt.Sprintf("%s: %s: %v", ErrInvalidEnvelope.Error(), e.Field, e.Err)
}

func (e *EnvelopeError) Unwrap() error { return ErrInvalidEnvelope }

// NewEnvelopeError creates an envelope decoding error for the given field.
func NewEnvelopeError(field string, err error) error {
	return &EnvelopeError{Field: field, Err: err}
}
