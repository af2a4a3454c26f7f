package domain

import (
	"context"
)

// Client represents one live bidirectional channel owned by a single user.
type Client interface {
	// UserID returns the identity of the user that owns this channel.
	UserID() string

	// Send pushes a fully serialized payload to the client as a single frame.
	Send(ctx context.Context, payload []byte) error

	// Receive sets up a handler for inbound frames from the client.
	Receive(handler MessageHandler) error

	// Close closes the client connection.
	Close() error

	// Context is done once the underlying transport has closed.
	Context() context.Context
}

// MessageHandler is a function that handles inbound frames.
type MessageHandler func(payload []byte) error
