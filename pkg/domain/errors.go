package domain

import (
	"errors"
)

// Common domain errors
var (
	// ErrConnectionClosed is returned when pushing to a closed channel.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrInvalidSignal is returned when an inbound signal cannot be decoded.
	ErrInvalidSignal = errors.New("invalid signal")
)
