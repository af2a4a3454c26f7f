package domain

import (
	"context"
)

// Hub routes events to the right subset of connected users. It owns the
// connection registry and the room membership index and serializes access
// to both.
type Hub interface {
	// Register installs the client as the active channel for its user,
	// silently replacing any previous entry.
	Register(client Client)

	// Unregister removes the active channel for the user and evicts the
	// user from every room. No-op if the user is not connected.
	Unregister(userID string)

	// JoinChat adds the user to the room for chatID. Idempotent. The hub
	// trusts its caller to have authorized the user for the chat.
	JoinChat(userID, chatID string)

	// LeaveChat removes the user from the room for chatID. No-op otherwise.
	LeaveChat(userID, chatID string)

	// Members returns the current membership of the room, empty if unknown.
	Members(chatID string) []string

	// Resolve looks up the live channel for a user, if any.
	Resolve(userID string) (Client, bool)

	// BroadcastToChat pushes payload to every connected member of the chat
	// except excludeUserID. Members without a live channel are skipped.
	// Returns the number of successful deliveries.
	BroadcastToChat(ctx context.Context, chatID string, payload []byte, excludeUserID string) int

	// SendDirect pushes payload to a single user if connected. Reports
	// whether a delivery was made.
	SendDirect(ctx context.Context, userID string, payload []byte) bool
}

// HubStats provides a point-in-time view of hub activity.
type HubStats struct {
	ConnectedUsers int   `json:"connected_users"`
	ActiveRooms    int   `json:"active_rooms"`
	EventsSent     int64 `json:"events_sent"`
	EventsDropped  int64 `json:"events_dropped"`
}
