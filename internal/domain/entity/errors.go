package entity

import "errors"

var (
	// ErrValidation is returned when a required field is missing or malformed.
	// The record under review is never mutated when this error is raised.
	ErrValidation = errors.New("validation failed")

	// ErrUnknownRole is returned when decoding a stored record whose
	// requester role discriminator is not a known variant.
	ErrUnknownRole = errors.New("unknown requester role")
)
