package websocket

import (
	"context"
	"net/http"

	"duplex/internal/logging"
	"duplex/pkg/domain"

	"github.com/gorilla/websocket"
)

// SignalDispatcher routes decoded inbound frames from a connected user.
type SignalDispatcher interface {
	Dispatch(ctx context.Context, userID string, frame []byte) error
}

// ServerOptions represents websocket server options
type ServerOptions struct {
	CheckOrigin   func(r *http.Request) bool
	ClientOptions ClientOptions
	Hub           domain.Hub
	Dispatcher    SignalDispatcher
	Logger        *logging.Logger
}

// ServerOption is a function that configures ServerOptions
type ServerOption func(*ServerOptions)

// WithHub sets the hub for the server
func WithHub(hub domain.Hub) ServerOption {
	return func(o *ServerOptions) {
		o.Hub = hub
	}
}

// WithDispatcher sets the inbound signal dispatcher
func WithDispatcher(dispatcher SignalDispatcher) ServerOption {
	return func(o *ServerOptions) {
		o.Dispatcher = dispatcher
	}
}

// WithLogger sets the logger for the server
func WithLogger(logger *logging.Logger) ServerOption {
	return func(o *ServerOptions) {
		o.Logger = logger
	}
}

// WithCheckOrigin sets the check origin function
func WithCheckOrigin(checkOrigin func(r *http.Request) bool) ServerOption {
	return func(o *ServerOptions) {
		o.CheckOrigin = checkOrigin
	}
}

// WithClientOptions sets the per-connection transport options
func WithClientOptions(clientOptions ClientOptions) ServerOption {
	return func(o *ServerOptions) {
		o.ClientOptions = clientOptions
	}
}

// Server upgrades HTTP requests to websocket connections and drives the
// connection lifecycle against the hub: register on handshake, unregister on
// transport close.
type Server struct {
	upgrader   websocket.Upgrader
	hub        domain.Hub
	dispatcher SignalDispatcher
	logger     *logging.Logger
	options    ServerOptions
}

// NewServer creates a new WebSocket server
func NewServer(opts ...ServerOption) *Server {
	options := ServerOptions{
		ClientOptions: DefaultClientOptions(),
		CheckOrigin: func(r *http.Request) bool {
			return true // Allow all origins by default (configure for production)
		},
	}

	for _, opt := range opts {
		opt(&options)
	}

	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  options.ClientOptions.ReadBufferSize,
			WriteBufferSize: options.ClientOptions.WriteBufferSize,
			CheckOrigin:     options.CheckOrigin,
		},
		hub:        options.Hub,
		dispatcher: options.Dispatcher,
		logger:     options.Logger,
		options:    options,
	}
}

// ServeUser upgrades the request to a websocket connection owned by userID
// and blocks until the transport closes. The caller supplies the identity;
// authenticating it is the surrounding layer's concern.
func (s *Server) ServeUser(w http.ResponseWriter, r *http.Request, userID string) {
	if userID == "" {
		http.Error(w, "missing user id", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade error",
			"error", err,
			"remote_addr", r.RemoteAddr,
		)
		return
	}

	client := NewClient(userID, conn, s.logger, s.options.ClientOptions)

	client.Receive(func(frame []byte) error {
		return s.dispatcher.Dispatch(client.Context(), userID, frame)
	})

	// A second connection for the same user supersedes the first; the old
	// entry is overwritten without notifying its channel.
	s.hub.Register(client)
	client.Start()

	s.logger.Info("websocket session started",
		"user_id", userID,
		"remote_addr", r.RemoteAddr,
	)

	<-client.Context().Done()

	s.hub.Unregister(userID)
	client.Close()

	s.logger.Info("websocket session ended", "user_id", userID)
}
