package common

import "errors"

var (
	// ErrAccountNotFound is returned when a handle is not on the roster.
	ErrAccountNotFound = errors.New("account not found")
	// ErrCycleInProgress is returned when a scan cycle is already running.
	ErrCycleInProgress = errors.New("scan cycle already in progress")
	// ErrInvalidArgument marks caller input that failed validation.
	ErrInvalidArgument = errors.New("invalid argument")
)
