package domain

import (
	"encoding/json"
)

// SignalType discriminates inbound client signals.
type SignalType string

const (
	SignalTypeJoinChat     SignalType = "join_chat"
	SignalTypeTyping       SignalType = "typing"
	SignalTypeMessageRead  SignalType = "message_read"
	SignalTypeFileUploaded SignalType = "file_uploaded"
)

// Signal is an inbound frame from a connected client. The shape mirrors the
// outbound events: a type discriminator plus the fields each handler needs.
// Fields not used by a given type are left at their zero value.
type Signal struct {
	Type      SignalType      `json:"type"`
	ChatID    string          `json:"chat_id,omitempty"`
	MessageID string          `json:"message_id,omitempty"`
	IsTyping  bool            `json:"is_typing,omitempty"`
	File      json.RawMessage `json:"file,omitempty"`
}

// Validate checks that the signal carries the fields its type requires.
func (s Signal) Validate() error {
	if s.ChatID == "" {
		return ErrInvalidSignal
	}

	switch s.Type {
	case SignalTypeMessageRead:
		if s.MessageID == "" {
			return ErrInvalidSignal
		}
	case SignalTypeFileUploaded:
		if len(s.File) == 0 {
			return ErrInvalidSignal
		}
	}

	return nil
}
