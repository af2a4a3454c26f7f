package websocket

import (
	"context"
	"sync"
	"time"

	"duplex/internal/logging"
	"duplex/pkg/domain"
	"duplex/pkg/errors"

	"github.com/gorilla/websocket"
)

// ClientOptions represents websocket client options
type ClientOptions struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	SendBufferSize  int
	ReadBufferSize  int
	WriteBufferSize int
}

// DefaultClientOptions returns default client options
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  512 * 1024, // 512KB
		SendBufferSize:  256,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// Client implements the domain.Client interface for WebSocket
type Client struct {
	userID   string
	conn     *websocket.Conn
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *logging.Logger
	options  ClientOptions
	sendChan chan []byte
	handler  domain.MessageHandler
	errs     errors.Handler
	mu       sync.RWMutex
	closed   bool
	wg       sync.WaitGroup
}

var _ domain.Client = (*Client)(nil)

// NewClient creates a new WebSocket client owned by userID.
func NewClient(userID string, conn *websocket.Conn, logger *logging.Logger, options ClientOptions) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	if options.SendBufferSize <= 0 {
		options.SendBufferSize = DefaultClientOptions().SendBufferSize
	}

	scoped := logger.WithFields(map[string]any{"user_id": userID})

	return &Client{
		userID:   userID,
		conn:     conn,
		ctx:      ctx,
		cancel:   cancel,
		logger:   scoped,
		options:  options,
		errs:     errors.NewDefaultHandler(scoped.Logger),
		sendChan: make(chan []byte, options.SendBufferSize),
	}
}

// UserID implements domain.Client
func (c *Client) UserID() string {
	return c.userID
}

// Send implements domain.Client. The payload is queued for the write pump;
// a full queue fails fast instead of blocking the caller's fan-out loop.
func (c *Client) Send(ctx context.Context, payload []byte) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return domain.ErrConnectionClosed
	}
	c.mu.RUnlock()

	select {
	case c.sendChan <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return domain.ErrConnectionClosed
	default:
		return errors.New(errors.ErrorTypeTransport, "SEND_BUFFER_FULL", "send buffer is full")
	}
}

// Receive implements domain.Client
func (c *Client) Receive(handler domain.MessageHandler) error {
	c.handler = handler
	return nil
}

// Close implements domain.Client
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.logger.Debug("closing client connection")

	c.cancel()
	close(c.sendChan)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug("error closing websocket connection", "error", err)
	}

	c.wg.Wait()

	return nil
}

// Context implements domain.Client
func (c *Client) Context() context.Context {
	return c.ctx
}

// Start starts the client read and write pumps
func (c *Client) Start() {
	c.wg.Add(2)
	go c.readPump()
	go c.writePump()
}

// readPump pumps inbound frames from the websocket connection to the handler.
func (c *Client) readPump() {
	defer c.wg.Done()
	defer func() {
		c.logger.Debug("read pump stopped")
		c.cancel()
	}()

	c.conn.SetReadLimit(c.options.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.options.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.options.ReadTimeout))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			messageType, message, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
					c.logger.Warn("websocket read error", "error", err)
				}
				return
			}

			if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
				continue
			}

			if c.handler != nil {
				if err := c.handler(message); err != nil {
					c.errs.Handle(c.ctx, err)
				}
			}
		}
	}
}

// writePump pumps queued payloads to the websocket connection. Each payload
// goes out as one frame; pings keep the connection alive.
func (c *Client) writePump() {
	defer c.wg.Done()
	defer func() {
		c.logger.Debug("write pump stopped")
	}()

	ticker := time.NewTicker(c.options.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return

		case payload, ok := <-c.sendChan:
			c.conn.SetWriteDeadline(time.Now().Add(c.options.WriteTimeout))

			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Warn("websocket write error", "error", err)
				return
			}

			// Drain any queued payloads
			n := len(c.sendChan)
			for i := 0; i < n; i++ {
				select {
				case queued := <-c.sendChan:
					if err := c.conn.WriteMessage(websocket.TextMessage, queued); err != nil {
						c.logger.Warn("websocket write error", "error", err)
						return
					}
				default:
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.options.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("websocket ping error", "error", err)
				return
			}
		}
	}
}
