package engine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chatsync/internal/logger"
	"github.com/chatsync/internal/model"
	"github.com/chatsync/internal/socket"
	"github.com/chatsync/internal/store"
)

// ErrEmptyMessage is returned by Send when there is nothing to send. The
// stores are left untouched.
var ErrEmptyMessage = errors.New("empty message")

// Transport is the socket client surface the engines depend on. Tests
// substitute a fake; production wires socket.Client.
type Transport interface {
	Connect(ctx context.Context) error
	Register(userID string) error
	On(event socket.EventType, h socket.Handler)
	Emit(event socket.EventType, payload any) error
	Close() error
}

const (
	defaultSentDelay      = 600 * time.Millisecond
	defaultDeliveredDelay = 1500 * time.Millisecond
)

// MessageEngine orchestrates inbound transport events and local user actions
// against the message and conversation stores, applying the optimistic-update
// protocol: local mutations land synchronously with status sending, deferred
// confirmations advance the status through the monotonic state machine.
type MessageEngine struct {
	userID    string
	messages  *store.MessageStore
	convs     *store.ConversationStore
	transport Transport

	sentDelay      time.Duration
	deliveredDelay time.Duration

	mu         sync.RWMutex
	activeConv string
}

// MessageEngineOptions tunes the deferred send confirmations. Zero values
// take the defaults.
type MessageEngineOptions struct {
	SentDelay      time.Duration
	DeliveredDelay time.Duration
}

func NewMessageEngine(userID string, messages *store.MessageStore, convs *store.ConversationStore, transport Transport, opts MessageEngineOptions) *MessageEngine {
	if opts.SentDelay <= 0 {
		opts.SentDelay = defaultSentDelay
	}
	if opts.DeliveredDelay <= 0 {
		opts.DeliveredDelay = defaultDeliveredDelay
	}
	return &MessageEngine{
		userID:         userID,
		messages:       messages,
		convs:          convs,
		transport:      transport,
		sentDelay:      opts.SentDelay,
		deliveredDelay: opts.DeliveredDelay,
	}
}

// Start binds inbound transport events, connects and registers this user.
// The engine layer is the only owner of connect/register: anything else
// re-registering would cause duplicate registration storms on reconnect.
func (e *MessageEngine) Start(ctx context.Context) error {
	if e.transport == nil {
		return nil
	}
	e.transport.On(socket.EventMessage, func(env socket.Envelope) {
		var p socket.MessagePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			logger.Errorf("engine inbound message payload: %v", err)
			return
		}
		e.OnInboundMessage(p.ConversationID, p.Message)
	})
	e.transport.On(socket.EventTyping, func(env socket.Envelope) {
		var p socket.TypingPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			logger.Errorf("engine inbound typing payload: %v", err)
			return
		}
		e.OnInboundTyping(p.ConversationID, p.UserID, p.IsTyping)
	})
	e.transport.On(socket.EventRead, func(env socket.Envelope) {
		var p socket.ReadPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			logger.Errorf("engine inbound read payload: %v", err)
			return
		}
		e.OnInboundRead(p.ConversationID, p.UserID)
	})

	if err := e.transport.Connect(ctx); err != nil {
		return err
	}
	return e.transport.Register(e.userID)
}

// SendInput carries the optional parts of a send. A send with no text, no
// image, no product and no voice duration is rejected.
type SendInput struct {
	Text          string `json:"text"`
	ReplyToID     string `json:"replyToId"`
	ImageURL      string `json:"imageUrl"`
	ProductID     string `json:"productId"`
	VoiceDuration int    `json:"voiceDuration"`
}

func (in SendInput) messageType() model.MessageType {
	switch {
	case in.ImageURL != "":
		return model.MessageTypeImage
	case in.VoiceDuration > 0:
		return model.MessageTypeVoice
	case in.ProductID != "":
		return model.MessageTypeProduct
	default:
		return model.MessageTypeText
	}
}

// Send applies the optimistic-update protocol: the message lands in the
// store synchronously with status sending, then two deferred confirmations
// advance it to sent and delivered. Both go through UpdateStatus, so a
// faster real read receipt racing the timers cannot be regressed.
func (e *MessageEngine) Send(conversationID string, in SendInput) (model.Message, error) {
	if strings.TrimSpace(in.Text) == "" && in.ImageURL == "" && in.ProductID == "" && in.VoiceDuration <= 0 {
		return model.Message{}, ErrEmptyMessage
	}

	m := model.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       e.userID,
		Text:           in.Text,
		Type:           in.messageType(),
		Status:         model.MessageStatusSending,
		ImageURL:       in.ImageURL,
		ProductID:      in.ProductID,
		VoiceDuration:  in.VoiceDuration,
		Timestamp:      time.Now().UTC(),
	}
	if in.ReplyToID != "" {
		replyTo := in.ReplyToID
		m.ReplyToID = &replyTo
	}

	if err := e.messages.Insert(m); err != nil {
		logger.Errorf("engine send insert conv=%s: %v", conversationID, err)
		return model.Message{}, err
	}
	if err := e.convs.TouchLastMessage(conversationID, m.ID); err != nil {
		logger.Errorf("engine send touch conv=%s: %v", conversationID, err)
	}

	e.emit(socket.EventMessage, socket.MessagePayload{ConversationID: conversationID, Message: m})

	// Stand-in for a live send-acknowledgement channel. The timers are not
	// cancelable; UpdateStatus absorbs a timer outliving its message.
	id := m.ID
	time.AfterFunc(e.sentDelay, func() {
		e.messages.UpdateStatus(id, model.MessageStatusSent)
	})
	time.AfterFunc(e.deliveredDelay, func() {
		e.messages.UpdateStatus(id, model.MessageStatusDelivered)
	})
	return m, nil
}

// OnInboundMessage merges a transport-delivered message into local state.
// A duplicate id degrades to a status merge, so redelivery is idempotent.
func (e *MessageEngine) OnInboundMessage(conversationID string, m model.Message) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.ConversationID = conversationID
	if m.Status == "" {
		m.Status = model.MessageStatusDelivered
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}

	if err := e.messages.Insert(m); err != nil {
		if errors.Is(err, store.ErrDuplicateID) {
			e.messages.UpdateStatus(m.ID, m.Status)
			return
		}
		logger.Errorf("engine inbound insert conv=%s: %v", conversationID, err)
		return
	}

	if err := e.convs.TouchLastMessage(conversationID, m.ID); err != nil {
		logger.Errorf("engine inbound touch conv=%s: %v", conversationID, err)
	}
	if m.SenderID != e.userID {
		if err := e.convs.IncrementUnread(conversationID, e.isActive(conversationID)); err != nil {
			logger.Errorf("engine inbound unread conv=%s: %v", conversationID, err)
		}
	}
}

// React sets the message's single reaction, last writer wins. An empty emoji
// clears it.
func (e *MessageEngine) React(conversationID, messageID, emoji string) {
	if err := e.messages.SetReaction(messageID, emoji); err != nil {
		logger.Errorf("engine react conv=%s msg=%s: %v", conversationID, messageID, err)
	}
}

// MarkRead resets the conversation's unread counter and promotes every
// remote-authored message in it to read, then tells the other side.
func (e *MessageEngine) MarkRead(conversationID string) {
	if err := e.convs.MarkRead(conversationID); err != nil {
		logger.Errorf("engine mark read conv=%s: %v", conversationID, err)
	}
	e.messages.MarkRead(conversationID, e.userID)
	e.emit(socket.EventRead, socket.ReadPayload{ConversationID: conversationID, UserID: e.userID})
}

// SetTyping publishes the local typing state.
func (e *MessageEngine) SetTyping(conversationID string, isTyping bool) {
	if err := e.convs.SetTyping(conversationID, isTyping); err != nil {
		logger.Errorf("engine typing conv=%s: %v", conversationID, err)
	}
	e.emit(socket.EventTyping, socket.TypingPayload{ConversationID: conversationID, UserID: e.userID, IsTyping: isTyping})
}

// OnInboundTyping applies a remote user's typing signal.
func (e *MessageEngine) OnInboundTyping(conversationID, userID string, isTyping bool) {
	if userID == e.userID {
		return
	}
	if err := e.convs.SetTyping(conversationID, isTyping); err != nil {
		logger.Errorf("engine inbound typing conv=%s: %v", conversationID, err)
	}
}

// OnInboundRead applies a remote read receipt: everything the reader did not
// author (our own outbound messages) advances to read. Redundant receipts
// are no-ops under the monotonic rule.
func (e *MessageEngine) OnInboundRead(conversationID, readerID string) {
	if readerID == e.userID {
		return
	}
	e.messages.MarkRead(conversationID, readerID)
}

// SetActiveConversation records which conversation the UI currently has
// open; inbound messages for it do not bump the unread counter. An empty id
// means none.
func (e *MessageEngine) SetActiveConversation(conversationID string) {
	e.mu.Lock()
	e.activeConv = conversationID
	e.mu.Unlock()
}

// ActiveConversation returns the currently open conversation id.
func (e *MessageEngine) ActiveConversation() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.activeConv
}

func (e *MessageEngine) isActive(conversationID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return conversationID != "" && conversationID == e.activeConv
}

// emit pushes an event to the transport when one is wired and connected.
// A disconnected transport is expected: optimistic local state stays
// authoritative until reconnect.
func (e *MessageEngine) emit(event socket.EventType, payload any) {
	if e.transport == nil {
		return
	}
	if err := e.transport.Emit(event, payload); err != nil {
		if errors.Is(err, socket.ErrTransportDisconnected) {
			return
		}
		logger.Errorf("engine emit %s: %v", event, err)
	}
}
