package domain

import (
	"encoding/json"
	"time"
)

// EventType discriminates outbound realtime events.
type EventType string

const (
	EventTypeTyping       EventType = "typing"
	EventTypeMessageRead  EventType = "message_read"
	EventTypeNewMessage   EventType = "new_message"
	EventTypeFileUploaded EventType = "file_uploaded"
	EventTypeFileDeleted  EventType = "file_deleted"
)

// TypingEvent tells chat members that a user started or stopped typing.
type TypingEvent struct {
	Type     EventType `json:"type"`
	UserID   string    `json:"user_id"`
	ChatID   string    `json:"chat_id"`
	IsTyping bool      `json:"is_typing"`
}

// NewTypingEvent creates a typing event for userID in chatID.
func NewTypingEvent(userID, chatID string, isTyping bool) TypingEvent {
	return TypingEvent{
		Type:     EventTypeTyping,
		UserID:   userID,
		ChatID:   chatID,
		IsTyping: isTyping,
	}
}

// MessageReadEvent tells the sender that their message has been read.
type MessageReadEvent struct {
	Type      EventType  `json:"type"`
	MessageID string     `json:"message_id"`
	ReaderID  string     `json:"reader_id"`
	ChatID    string     `json:"chat_id"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

// NewMessageReadEvent creates a read receipt event.
func NewMessageReadEvent(messageID, readerID, chatID string, readAt *time.Time) MessageReadEvent {
	return MessageReadEvent{
		Type:      EventTypeMessageRead,
		MessageID: messageID,
		ReaderID:  readerID,
		ChatID:    chatID,
		ReadAt:    readAt,
	}
}

// MessagePayload is the message body carried by a NewMessageEvent.
type MessagePayload struct {
	ID       string    `json:"id"`
	Content  string    `json:"content"`
	SenderID string    `json:"sender_id"`
	SentAt   time.Time `json:"sent_at"`
	IsRead   bool      `json:"is_read"`
}

// NewMessageEvent announces a freshly sent chat message.
type NewMessageEvent struct {
	Type    EventType      `json:"type"`
	Message MessagePayload `json:"message"`
	ChatID  string         `json:"chat_id"`
}

// FilePayload is the file metadata carried by a FileUploadedEvent.
type FilePayload struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	FileSize    int64     `json:"file_size"`
	MimeType    string    `json:"mime_type"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
	DownloadURL string    `json:"download_url"`
}

// FileUploadedEvent announces a file shared into a chat.
type FileUploadedEvent struct {
	Type       EventType       `json:"type"`
	File       json.RawMessage `json:"file"`
	ChatID     string          `json:"chat_id"`
	UploadedBy string          `json:"uploaded_by"`
}

// FileDeletedEvent announces that an uploaded file has been removed.
type FileDeletedEvent struct {
	Type      EventType `json:"type"`
	FileID    string    `json:"file_id"`
	ChatID    string    `json:"chat_id"`
	DeletedBy string    `json:"deleted_by"`
}
