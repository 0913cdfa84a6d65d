package repository

import "errors"

var (
	// ErrNotFound is returned by mutations targeting a row that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition is returned when a status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
)

const (
	shortTimeout = 3
	longTimeout  = 10
)
