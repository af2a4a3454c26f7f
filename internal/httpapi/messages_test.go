package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"duplex/internal/filestore"
	"duplex/internal/logging"
	"duplex/pkg/domain"
	"duplex/pkg/realtime"
	ws "duplex/pkg/transport/websocket"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

// fakeClient is an in-process domain.Client that records pushed frames.
type fakeClient struct {
	userID string
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	frames [][]byte
}

var _ domain.Client = (*fakeClient)(nil)

func newFakeClient(userID string) *fakeClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &fakeClient{userID: userID, ctx: ctx, cancel: cancel}
}

func (c *fakeClient) UserID() string { return c.userID }

func (c *fakeClient) Send(_ context.Context, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame := make([]byte, len(payload))
	copy(frame, payload)
	c.frames = append(c.frames, frame)
	return nil
}

func (c *fakeClient) Receive(domain.MessageHandler) error { return nil }

func (c *fakeClient) Close() error {
	c.cancel()
	return nil
}

func (c *fakeClient) Context() context.Context { return c.ctx }

func (c *fakeClient) sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	frames := make([][]byte, len(c.frames))
	copy(frames, c.frames)
	return frames
}

type testEnv struct {
	hub    *realtime.Hub
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logging.New(logging.Config{Level: "error", Format: "text"})
	hub := realtime.NewHub(realtime.HubOptions{Logger: logger})

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	disk, err := filestore.NewDisk(t.TempDir())
	require.NoError(t, err)

	files := filestore.NewService(filestore.NewStore(db, logger), disk, filestore.ServiceOptions{
		MaxFileSize: 1 << 20,
		Logger:      logger,
	})

	server := ws.NewServer(
		ws.WithHub(hub),
		ws.WithDispatcher(realtime.NewDispatcher(hub, logger)),
		ws.WithLogger(logger),
	)

	router := NewRouter(RouterOptions{
		Hub:       hub,
		Websocket: server,
		Files:     files,
		Logger:    logger,
	})

	return &testEnv{hub: hub, router: router}
}

func (e *testEnv) connect(userID string, chatIDs ...string) *fakeClient {
	client := newFakeClient(userID)
	e.hub.Register(client)
	for _, chatID := range chatIDs {
		e.hub.JoinChat(userID, chatID)
	}
	return client
}

func (e *testEnv) do(method, path, userID string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set(UserIDHeader, userID)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestSendMessage_BroadcastsToOtherMembers(t *testing.T) {
	env := newTestEnv(t)

	alice := env.connect("alice", "chat1")
	bob := env.connect("bob", "chat1")

	rec := env.do(http.MethodPost, "/chats/chat1/messages", "alice", `{"content":"hello bob"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Message   domain.MessagePayload `json:"message"`
		ChatID    string                `json:"chat_id"`
		Delivered int                   `json:"delivered"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "chat1", resp.ChatID)
	require.Equal(t, 1, resp.Delivered)
	require.Equal(t, "hello bob", resp.Message.Content)
	require.Equal(t, "alice", resp.Message.SenderID)
	require.NotEmpty(t, resp.Message.ID)

	require.Len(t, bob.sent(), 1)
	require.Empty(t, alice.sent())

	var event domain.NewMessageEvent
	require.NoError(t, json.Unmarshal(bob.sent()[0], &event))
	require.Equal(t, domain.EventTypeNewMessage, event.Type)
	require.Equal(t, "hello bob", event.Message.Content)
}

func TestSendMessage_RequiresIdentity(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/chats/chat1/messages", "", `{"content":"hi"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "MISSING_IDENTITY")
}

func TestSendMessage_RejectsEmptyContent(t *testing.T) {
	env := newTestEnv(t)
	env.connect("alice", "chat1")

	rec := env.do(http.MethodPost, "/chats/chat1/messages", "alice", `{"content":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessage_SucceedsWithNobodyListening(t *testing.T) {
	env := newTestEnv(t)
	env.connect("alice", "chat1")

	rec := env.do(http.MethodPost, "/chats/chat1/messages", "alice", `{"content":"anyone there?"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Delivered int `json:"delivered"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Zero(t, resp.Delivered)
}

func TestMarkRead_FansOutOneEventPerMessage(t *testing.T) {
	env := newTestEnv(t)

	env.connect("alice", "chat1")
	bob := env.connect("bob", "chat1")

	rec := env.do(http.MethodPut, "/chats/messages/read", "alice",
		`{"chat_id":"chat1","message_ids":["m1","m2"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"updated_count":2}`, rec.Body.String())

	frames := bob.sent()
	require.Len(t, frames, 2)

	seen := make([]string, 0, 2)
	for _, frame := range frames {
		var event domain.MessageReadEvent
		require.NoError(t, json.Unmarshal(frame, &event))
		require.Equal(t, domain.EventTypeMessageRead, event.Type)
		require.Equal(t, "alice", event.ReaderID)
		require.NotNil(t, event.ReadAt)
		seen = append(seen, event.MessageID)
	}
	require.ElementsMatch(t, []string{"m1", "m2"}, seen)
}

func TestMarkRead_RejectsMissingChatID(t *testing.T) {
	env := newTestEnv(t)
	env.connect("alice", "chat1")

	rec := env.do(http.MethodPut, "/chats/messages/read", "alice", `{"message_ids":["m1"]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkRead_RejectsEmptyMessageList(t *testing.T) {
	env := newTestEnv(t)
	env.connect("alice", "chat1")

	rec := env.do(http.MethodPut, "/chats/messages/read", "alice", `{"chat_id":"chat1","message_ids":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndStats(t *testing.T) {
	env := newTestEnv(t)
	env.connect("alice", "chat1")

	rec := env.do(http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/stats", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats domain.HubStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, 1, stats.ConnectedUsers)
	require.Equal(t, 1, stats.ActiveRooms)
}
