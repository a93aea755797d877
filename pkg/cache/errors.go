package cache

import "errors"

var (
	// ErrMiss is returned by a Store when a key is not present. It is the
	// only store error the Service treats as a plain miss rather than a
	// failure.
	ErrMiss = errors.New("cache: key not found")

	// ErrNotConnected is returned when an operation is attempted while the
	// store connection is down. Operations fail immediately instead of
	// queuing behind a reconnect.
	ErrNotConnected = errors.New("cache: store not connected")

	// ErrClosed is returned after Close has been called.
	ErrClosed = errors.New("cache: store closed")
)
