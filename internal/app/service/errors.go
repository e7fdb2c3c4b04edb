package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned when the long URL fails validation both raw and normalized.
	ErrInvalidURL = errors.New("invalid URL format")
	// ErrCodeConflict is returned when a custom code is already taken.
	ErrCodeConflict = errors.New("custom code already exists")
	// ErrNotFound covers both unknown and expired short codes.
	ErrNotFound = errors.New("short URL not found or expired")
	// ErrInvalidTimeout is returned for a non-positive or oversized timeout.
	ErrInvalidTimeout = errors.New("timeout must be a positive number of seconds")
	// ErrInvalidCode is returned for a custom code that cannot be routed.
	ErrInvalidCode = errors.New("invalid custom code")
	// ErrInvalidUserID is returned when no owner is supplied.
	ErrInvalidUserID = errors.New("user id is required")
)

// StorageError wraps a failure reported by the persistence layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err originates from the persistence layer.
func IsStorageError(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}

// IsValidationError reports whether err rejects caller input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidURL) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrInvalidCode) ||
		errors.Is(err, ErrInvalidUserID)
}
