package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"duplex/internal/logging"
	"duplex/pkg/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/xid"
)

// MessageHandler produces new_message and message_read events. The durable
// message store lives outside this process; this layer mints identifiers,
// shapes payloads, and fans out.
type MessageHandler struct {
	hub      domain.Hub
	logger   *logging.Logger
	validate *validator.Validate
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(hub domain.Hub, logger *logging.Logger, validate *validator.Validate) *MessageHandler {
	return &MessageHandler{
		hub:      hub,
		logger:   logger,
		validate: validate,
	}
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

type sendMessageResponse struct {
	Message   domain.MessagePayload `json:"message"`
	ChatID    string                `json:"chat_id"`
	Delivered int                   `json:"delivered"`
}

// Send handles POST /chats/{chatID}/messages: broadcast a new_message event
// to the other chat members, excluding the sender.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	senderID := UserFromContext(r.Context())
	chatID := chi.URLParam(r, "chatID")

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "failed to decode request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_MESSAGE", err.Error())
		return
	}

	event := domain.NewMessageEvent{
		Type: domain.EventTypeNewMessage,
		Message: domain.MessagePayload{
			ID:       xid.New().String(),
			Content:  req.Content,
			SenderID: senderID,
			SentAt:   time.Now(),
			IsRead:   false,
		},
		ChatID: chatID,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "MARSHAL_ERROR", "failed to marshal event")
		return
	}

	delivered := h.hub.BroadcastToChat(r.Context(), chatID, payload, senderID)

	h.logger.Debug("message broadcast",
		"chat_id", chatID,
		"sender_id", senderID,
		"delivered", delivered,
	)

	writeJSON(w, http.StatusCreated, sendMessageResponse{
		Message:   event.Message,
		ChatID:    chatID,
		Delivered: delivered,
	})
}

type markReadRequest struct {
	ChatID     string   `json:"chat_id" validate:"required"`
	MessageIDs []string `json:"message_ids" validate:"required,min=1,dive,required"`
}

// MarkRead handles PUT /chats/messages/read: broadcast one message_read
// event per message, excluding the reader.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	readerID := UserFromContext(r.Context())

	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "failed to decode request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_READ_UPDATE", err.Error())
		return
	}

	now := time.Now()
	updated := 0
	for _, messageID := range req.MessageIDs {
		event := domain.NewMessageReadEvent(messageID, readerID, req.ChatID, &now)

		payload, err := json.Marshal(event)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "MARSHAL_ERROR", "failed to marshal event")
			return
		}

		h.hub.BroadcastToChat(r.Context(), req.ChatID, payload, readerID)
		updated++
	}

	writeJSON(w, http.StatusOK, map[string]int{"updated_count": updated})
}
