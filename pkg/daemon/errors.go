package daemon

import "errors"

var (
	// ErrNotInitialized is returned by Start before Initialize.
	ErrNotInitialized = errors.New("daemon not initialized")

	// ErrAlreadyInitialized is returned by a second call to Initialize.
	ErrAlreadyInitialized = errors.New("daemon already initialized")
)
