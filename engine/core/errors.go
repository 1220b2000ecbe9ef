package core

import (
	"errors"
)

var (
	// ErrAlreadyExists is returned when a resource with the same file path
	// is already cached or pending.
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrNotFound is returned when no capable type loader (or no cache
	// entry) matches the request.
	ErrNotFound = errors.New("not found")
	// ErrFault is returned when a type loader accepted a media type but
	// failed to produce a load task.
	ErrFault = errors.New("type loader fault")
	// ErrFailed is returned when media type inference fails.
	ErrFailed = errors.New("failed")
	// ErrNotReady is the panic value raised when a payload accessor is
	// invoked on a resource that has not been marked ready.
	ErrNotReady = errors.New("resource is not ready")
	// ErrEventDestroyed is returned by wake-event operations after Destroy.
	ErrEventDestroyed = errors.New("event already destroyed")
	ErrUnknown        = errors.New("unknown")
)
