package realtime

import (
	"context"
	"sync"

	"duplex/pkg/domain"
)

// fakeClient records every payload pushed to it. Safe for concurrent use.
type fakeClient struct {
	userID   string
	failSend bool

	mu     sync.Mutex
	frames [][]byte
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
}

var _ domain.Client = (*fakeClient)(nil)

func newFakeClient(userID string) *fakeClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &fakeClient{
		userID: userID,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *fakeClient) UserID() string {
	return c.userID
}

func (c *fakeClient) Send(_ context.Context, payload []byte) error {
	if c.failSend {
		return domain.ErrConnectionClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	frame := make([]byte, len(payload))
	copy(frame, payload)
	c.frames = append(c.frames, frame)
	return nil
}

func (c *fakeClient) Receive(domain.MessageHandler) error {
	return nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.cancel()
	return nil
}

func (c *fakeClient) Context() context.Context {
	return c.ctx
}

func (c *fakeClient) sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	frames := make([][]byte, len(c.frames))
	copy(frames, c.frames)
	return frames
}

func (c *fakeClient) wasClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
