package domain

import "errors"

var (
	ErrSerializationFailure = errors.New("serialization failure")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrValidation           = errors.New("invalid input")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrUnauthenticated      = errors.New("not authenticated")
	ErrForbidden            = errors.New("forbidden")
)
