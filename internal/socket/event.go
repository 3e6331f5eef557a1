package socket

import (
	"encoding/json"

	"github.com/chatsync/internal/model"
)

type EventType string

// Wire event names. These are part of the transport protocol and must not
// change: the push endpoint routes on them.
const (
	EventConnect      EventType = "connect"
	EventDisconnect   EventType = "disconnect"
	EventMessage      EventType = "message"
	EventNotification EventType = "notification"
	EventTyping       EventType = "typing"
	EventRead         EventType = "read"
	EventRegister     EventType = "register"
)

// Envelope is the frame exchanged with the push endpoint. Connect and
// disconnect frames carry no payload.
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RegisterPayload announces which user's events this connection receives.
type RegisterPayload struct {
	UserID string `json:"userId"`
}

// MessagePayload carries one message for a conversation.
type MessagePayload struct {
	ConversationID string        `json:"conversationId"`
	Message        model.Message `json:"message"`
}

// TypingPayload signals that a user started or stopped typing.
type TypingPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	IsTyping       bool   `json:"isTyping"`
}

// ReadPayload is a read receipt for a whole conversation.
type ReadPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}
