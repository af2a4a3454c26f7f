package realtime

import (
	"duplex/pkg/domain"
)

// Registry maps user identities to their single live channel. A user has at
// most one entry; registering again silently supersedes the previous channel
// without closing or notifying it.
//
// Registry is not safe for concurrent use on its own. The Hub serializes all
// access behind its lock; see Hub.
type Registry struct {
	conns map[string]domain.Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]domain.Client),
	}
}

// Register installs client as the active channel for its user. Last writer
// wins. Always succeeds.
func (r *Registry) Register(client domain.Client) {
	r.conns[client.UserID()] = client
}

// Unregister removes the active channel for userID, returning the removed
// client. No-op if the user has no entry.
func (r *Registry) Unregister(userID string) (domain.Client, bool) {
	client, ok := r.conns[userID]
	if ok {
		delete(r.conns, userID)
	}
	return client, ok
}

// Resolve looks up the live channel for userID. Pure lookup, never an error.
func (r *Registry) Resolve(userID string) (domain.Client, bool) {
	client, ok := r.conns[userID]
	return client, ok
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	return len(r.conns)
}
