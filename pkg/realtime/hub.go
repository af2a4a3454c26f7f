package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"duplex/internal/eventbus"
	"duplex/internal/logging"
	"duplex/pkg/domain"
)

const defaultSendTimeout = 5 * time.Second

// HubOptions represents hub configuration options
type HubOptions struct {
	Logger   *logging.Logger
	EventBus eventbus.Bus
	// SendTimeout bounds one push to one client so a slow receiver cannot
	// stall delivery to the rest of a room.
	SendTimeout time.Duration
}

// Hub implements domain.Hub over two keyed stores: the connection registry
// (user to channel) and the roster (chat to member set). A single RWMutex is
// the serialization boundary for both; mutations are mutually exclusive,
// lookups may run concurrently. Pushes happen outside the lock against a
// snapshot of the membership, so a stalled client never blocks the registry.
type Hub struct {
	mu       sync.RWMutex
	registry *Registry
	roster   *Roster

	logger      *logging.Logger
	eventBus    eventbus.Bus
	sendTimeout time.Duration

	eventsSent    int64
	eventsDropped int64
}

var _ domain.Hub = (*Hub)(nil)

// NewHub creates a new hub
func NewHub(opts HubOptions) *Hub {
	if opts.Logger == nil {
		opts.Logger = logging.New(logging.Config{Level: "info", Format: "text"})
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = defaultSendTimeout
	}

	return &Hub{
		registry:    NewRegistry(),
		roster:      NewRoster(),
		logger:      opts.Logger,
		eventBus:    opts.EventBus,
		sendTimeout: opts.SendTimeout,
	}
}

// Register implements domain.Hub. A previous channel for the same user is
// superseded silently; it is neither closed nor notified.
func (h *Hub) Register(client domain.Client) {
	h.mu.Lock()
	h.registry.Register(client)
	total := h.registry.Len()
	h.mu.Unlock()

	h.logger.Info("user connected",
		"user_id", client.UserID(),
		"total_connections", total,
	)

	h.publish(eventbus.EventUserConnected, map[string]string{"user_id": client.UserID()})
}

// Unregister implements domain.Hub. Besides dropping the channel entry it
// evicts the user from every room, so stale memberships do not cause wasted
// lookups after disconnect.
func (h *Hub) Unregister(userID string) {
	h.mu.Lock()
	_, existed := h.registry.Unregister(userID)
	h.roster.Evict(userID)
	total := h.registry.Len()
	h.mu.Unlock()

	if !existed {
		return
	}

	h.logger.Info("user disconnected",
		"user_id", userID,
		"total_connections", total,
	)

	h.publish(eventbus.EventUserDisconnected, map[string]string{"user_id": userID})
}

// JoinChat implements domain.Hub.
func (h *Hub) JoinChat(userID, chatID string) {
	h.mu.Lock()
	h.roster.Join(userID, chatID)
	h.mu.Unlock()

	h.logger.Debug("user joined chat", "user_id", userID, "chat_id", chatID)

	h.publish(eventbus.EventChatJoined, map[string]string{
		"user_id": userID,
		"chat_id": chatID,
	})
}

// LeaveChat implements domain.Hub. No inbound signal is wired to it; rooms
// are normally vacated only through Unregister on disconnect.
func (h *Hub) LeaveChat(userID, chatID string) {
	h.mu.Lock()
	h.roster.Leave(userID, chatID)
	h.mu.Unlock()

	h.logger.Debug("user left chat", "user_id", userID, "chat_id", chatID)
}

// Members implements domain.Hub.
func (h *Hub) Members(chatID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.roster.Members(chatID)
}

// Resolve implements domain.Hub.
func (h *Hub) Resolve(userID string) (domain.Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.registry.Resolve(userID)
}

// BroadcastToChat implements domain.Hub. Members without a live channel are
// skipped silently; that is steady state for anyone who is offline. A failed
// push is logged and does not abort delivery to the remaining members, and
// the dead channel is left for the disconnect path to clean up.
func (h *Hub) BroadcastToChat(ctx context.Context, chatID string, payload []byte, excludeUserID string) int {
	targets := h.snapshot(chatID, excludeUserID)

	delivered := 0
	for _, client := range targets {
		if err := h.push(ctx, client, payload); err != nil {
			atomic.AddInt64(&h.eventsDropped, 1)
			h.logger.Warn("push failed",
				"user_id", client.UserID(),
				"chat_id", chatID,
				"error", err,
			)
			continue
		}
		delivered++
		atomic.AddInt64(&h.eventsSent, 1)
	}

	h.logger.Debug("broadcast complete",
		"chat_id", chatID,
		"delivered", delivered,
		"members", len(targets),
	)

	if delivered > 0 {
		h.publish(eventbus.EventBroadcast, map[string]string{"chat_id": chatID})
	}

	return delivered
}

// SendDirect implements domain.Hub.
func (h *Hub) SendDirect(ctx context.Context, userID string, payload []byte) bool {
	h.mu.RLock()
	client, ok := h.registry.Resolve(userID)
	h.mu.RUnlock()

	if !ok {
		return false
	}

	if err := h.push(ctx, client, payload); err != nil {
		atomic.AddInt64(&h.eventsDropped, 1)
		h.logger.Warn("push failed", "user_id", userID, "error", err)
		return false
	}

	atomic.AddInt64(&h.eventsSent, 1)
	return true
}

// Stats returns a point-in-time view of hub activity.
func (h *Hub) Stats() domain.HubStats {
	h.mu.RLock()
	connected := h.registry.Len()
	rooms := h.roster.Len()
	h.mu.RUnlock()

	return domain.HubStats{
		ConnectedUsers: connected,
		ActiveRooms:    rooms,
		EventsSent:     atomic.LoadInt64(&h.eventsSent),
		EventsDropped:  atomic.LoadInt64(&h.eventsDropped),
	}
}

// snapshot resolves the connected members of chatID minus the excluded user,
// under the read lock. Pushes then run lock-free against the snapshot.
func (h *Hub) snapshot(chatID, excludeUserID string) []domain.Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := h.roster.Members(chatID)
	targets := make([]domain.Client, 0, len(members))
	for _, userID := range members {
		if userID == excludeUserID {
			continue
		}
		client, ok := h.registry.Resolve(userID)
		if !ok {
			continue
		}
		targets = append(targets, client)
	}
	return targets
}

// push writes one serialized payload to one client, bounded by the send
// timeout.
func (h *Hub) push(ctx context.Context, client domain.Client, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, h.sendTimeout)
	defer cancel()
	return client.Send(ctx, payload)
}

func (h *Hub) publish(eventType eventbus.EventType, data map[string]string) {
	if h.eventBus == nil {
		return
	}
	h.eventBus.PublishAsync(eventbus.NewEvent(eventType, "hub", data))
}
