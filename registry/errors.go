package registry

import (
	"errors"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("registry record not found")
	// ErrCorrupt is returned when a stored record cannot be decoded
	ErrCorrupt = errors.New("registry record is corrupt")
	// ErrIOFailure is returned when the backing store fails to open,
	// lock, read, write or commit
	ErrIOFailure = errors.New("registry i/o failure")
	// ErrInvalidArgument is returned for malformed paths, names or values
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAlreadyExists is returned when creating a key that exists
	ErrAlreadyExists = errors.New("registry key already exists")
	// ErrTimeout is returned when a record lock could not be acquired
	// in time
	ErrTimeout = errors.New("timed out waiting for registry lock")
	// ErrClosed is returned when a closed handle is used
	ErrClosed = errors.New("registry is closed")
)
