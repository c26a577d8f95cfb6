package model

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidQuantity    = errors.New("quantity must be greater than 0")
	ErrTransientStore     = errors.New("store temporarily unavailable")
	ErrReferentialAnomaly = errors.New("sales reference missing items")
	ErrImageRefSet        = errors.New("image reference already set")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Is reports ErrValidation as a match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
