package realtime

import (
	"context"
	"encoding/json"

	"duplex/internal/logging"
	"duplex/pkg/domain"
	"duplex/pkg/errors"
)

// SignalHandlerFunc handles one inbound signal from a connected user.
type SignalHandlerFunc func(ctx context.Context, userID string, sig domain.Signal) error

// Dispatcher routes inbound client signals to their handlers. It is the
// boundary guard for the hub: malformed or unrecognized frames are logged and
// dropped here, the connection stays open, and the hub never sees them.
type Dispatcher struct {
	hub      domain.Hub
	logger   *logging.Logger
	handlers map[domain.SignalType]SignalHandlerFunc
}

// NewDispatcher creates a dispatcher with the standard signal set wired in.
// There is deliberately no leave_chat signal; rooms are only vacated through
// disconnect.
func NewDispatcher(hub domain.Hub, logger *logging.Logger) *Dispatcher {
	d := &Dispatcher{
		hub:      hub,
		logger:   logger,
		handlers: make(map[domain.SignalType]SignalHandlerFunc),
	}

	d.Register(domain.SignalTypeJoinChat, d.handleJoinChat)
	d.Register(domain.SignalTypeTyping, d.handleTyping)
	d.Register(domain.SignalTypeMessageRead, d.handleMessageRead)
	d.Register(domain.SignalTypeFileUploaded, d.handleFileUploaded)

	return d
}

// Register installs a handler for a signal type, replacing any previous one.
func (d *Dispatcher) Register(signalType domain.SignalType, handler SignalHandlerFunc) {
	d.handlers[signalType] = handler
}

// Dispatch decodes a raw inbound frame from userID and routes it. Frames that
// fail decoding, carry an unknown type, or miss a required field are dropped
// with a log line and a nil return, so the transport keeps the connection.
func (d *Dispatcher) Dispatch(ctx context.Context, userID string, frame []byte) error {
	var sig domain.Signal
	if err := json.Unmarshal(frame, &sig); err != nil {
		d.logger.Warn("dropping malformed signal",
			"user_id", userID,
			"error", err,
		)
		return nil
	}

	handler, ok := d.handlers[sig.Type]
	if !ok {
		d.logger.Warn("dropping signal of unknown type",
			"user_id", userID,
			"signal_type", string(sig.Type),
		)
		return nil
	}

	if err := sig.Validate(); err != nil {
		d.logger.Warn("dropping incomplete signal",
			"user_id", userID,
			"signal_type", string(sig.Type),
			"error", err,
		)
		return nil
	}

	return handler(ctx, userID, sig)
}

func (d *Dispatcher) handleJoinChat(ctx context.Context, userID string, sig domain.Signal) error {
	d.hub.JoinChat(userID, sig.ChatID)
	return nil
}

func (d *Dispatcher) handleTyping(ctx context.Context, userID string, sig domain.Signal) error {
	event := domain.NewTypingEvent(userID, sig.ChatID, sig.IsTyping)

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "MARSHAL_ERROR", "failed to marshal typing event")
	}

	d.hub.BroadcastToChat(ctx, sig.ChatID, payload, userID)
	return nil
}

func (d *Dispatcher) handleMessageRead(ctx context.Context, userID string, sig domain.Signal) error {
	event := domain.NewMessageReadEvent(sig.MessageID, userID, sig.ChatID, nil)

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "MARSHAL_ERROR", "failed to marshal read receipt")
	}

	d.hub.BroadcastToChat(ctx, sig.ChatID, payload, userID)
	return nil
}

func (d *Dispatcher) handleFileUploaded(ctx context.Context, userID string, sig domain.Signal) error {
	event := domain.FileUploadedEvent{
		Type:       domain.EventTypeFileUploaded,
		File:       sig.File,
		ChatID:     sig.ChatID,
		UploadedBy: userID,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "MARSHAL_ERROR", "failed to marshal file notification")
	}

	d.hub.BroadcastToChat(ctx, sig.ChatID, payload, userID)
	return nil
}
