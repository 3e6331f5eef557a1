package model

import "time"

type MessageType string

const (
	MessageTypeText         MessageType = "text"
	MessageTypeImage        MessageType = "image"
	MessageTypeVoice        MessageType = "voice"
	MessageTypeProduct      MessageType = "product"
	MessageTypeNotification MessageType = "notification"
)

type MessageStatus string

const (
	MessageStatusSending   MessageStatus = "sending"
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

// statusRank defines the delivery progression sending < sent < delivered < read.
// Unknown statuses rank below sending so they can never overwrite a known one.
var statusRank = map[MessageStatus]int{
	MessageStatusSending:   1,
	MessageStatusSent:      2,
	MessageStatusDelivered: 3,
	MessageStatusRead:      4,
}

// Rank returns the position of s in the delivery progression (0 for unknown).
func (s MessageStatus) Rank() int {
	return statusRank[s]
}

// AtLeast reports whether s is equal to or later than other in the progression.
func (s MessageStatus) AtLeast(other MessageStatus) bool {
	return s.Rank() >= other.Rank()
}

type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversationId"`
	SenderID       string        `json:"senderId"`
	Text           string        `json:"text"`
	Type           MessageType   `json:"type"`
	Status         MessageStatus `json:"status"`
	ReplyToID      *string       `json:"replyToId,omitempty"`
	Reaction       string        `json:"reaction,omitempty"`
	ImageURL       string        `json:"imageUrl,omitempty"`
	ProductID      string        `json:"productId,omitempty"`
	VoiceDuration  int           `json:"voiceDuration,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
}
