package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidParcelID is returned when a parcel identifier is empty,
	// too long, or contains characters that cannot appear in a route segment.
	ErrInvalidParcelID = fmt.Errorf("%w: invalid parcel ID", ErrValidation)
)
