package realtime

import (
	"github.com/samber/lo"
)

// Roster maps chat identities to the set of users that joined them during
// their current connection. It stores user identities only; membership never
// implies a live channel exists. Rooms are rebuilt from scratch on every
// connection, nothing is persisted.
//
// The roster does not check whether a user is authorized for a chat; that is
// the caller's responsibility.
//
// Roster is not safe for concurrent use on its own. The Hub serializes all
// access behind its lock; see Hub.
type Roster struct {
	rooms map[string]map[string]struct{}
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{
		rooms: make(map[string]map[string]struct{}),
	}
}

// Join adds userID to the room for chatID. Idempotent.
func (r *Roster) Join(userID, chatID string) {
	room, ok := r.rooms[chatID]
	if !ok {
		room = make(map[string]struct{})
		r.rooms[chatID] = room
	}
	room[userID] = struct{}{}
}

// Leave removes userID from the room for chatID. No-op if the user is not a
// member. Empty rooms are dropped.
func (r *Roster) Leave(userID, chatID string) {
	room, ok := r.rooms[chatID]
	if !ok {
		return
	}
	delete(room, userID)
	if len(room) == 0 {
		delete(r.rooms, chatID)
	}
}

// Members returns the membership of chatID, empty for an unknown chat.
// Iteration order is unspecified.
func (r *Roster) Members(chatID string) []string {
	room, ok := r.rooms[chatID]
	if !ok {
		return nil
	}
	return lo.Keys(room)
}

// Evict removes userID from every room. Used on disconnect so that stale
// memberships do not outlive the connection.
func (r *Roster) Evict(userID string) {
	for chatID, room := range r.rooms {
		delete(room, userID)
		if len(room) == 0 {
			delete(r.rooms, chatID)
		}
	}
}

// Len returns the number of rooms with at least one member.
func (r *Roster) Len() int {
	return len(r.rooms)
}
