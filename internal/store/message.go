package store

import (
	"sort"
	"sync"

	"github.com/chatsync/internal/model"
)

// MessageStore is the authoritative in-memory map of message id to message
// record, keyed secondarily by conversation. It owns the delivery-status
// state machine: a status may only move forward in the order
// sending < sent < delivered < read.
type MessageStore struct {
	mu     sync.RWMutex
	byID   map[string]*model.Message
	byConv map[string][]string // message ids in insertion order
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		byID:   make(map[string]*model.Message),
		byConv: make(map[string][]string),
	}
}

// Insert adds a new record. Returns ErrDuplicateID if the id is taken.
func (s *MessageStore) Insert(m model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[m.ID]; ok {
		return ErrDuplicateID
	}
	stored := m
	s.byID[m.ID] = &stored
	s.byConv[m.ConversationID] = append(s.byConv[m.ConversationID], m.ID)
	return nil
}

// UpdateStatus advances the delivery status of a message. The transition is
// applied only if newStatus ranks strictly above the current status; earlier
// or equal statuses are a no-op, so out-of-order confirmations from the
// transport cannot regress visible state. Returns true if the status changed.
// An unknown id is a no-op: a pending confirmation timer may outlive its
// message.
func (s *MessageStore) UpdateStatus(id string, newStatus model.MessageStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[id]
	if !ok {
		return false
	}
	if m.Status.AtLeast(newStatus) {
		return false
	}
	m.Status = newStatus
	return true
}

// SetReaction replaces the current reaction (last writer wins). An empty
// emoji clears it. Returns ErrUnknownMessage if the id is not present.
func (s *MessageStore) SetReaction(id, emoji string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byID[id]
	if !ok {
		return ErrUnknownMessage
	}
	m.Reaction = emoji
	return nil
}

// MarkRead promotes every message in the conversation not authored by
// readerID to status read. Already-read messages are unaffected (the
// monotonic rule applies). Returns the number of messages promoted.
func (s *MessageStore) MarkRead(conversationID, readerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	promoted := 0
	for _, id := range s.byConv[conversationID] {
		m := s.byID[id]
		if m.SenderID == readerID {
			continue
		}
		if m.Status.AtLeast(model.MessageStatusRead) {
			continue
		}
		m.Status = model.MessageStatusRead
		promoted++
	}
	return promoted
}

// Get returns a copy of the message with the given id.
func (s *MessageStore) Get(id string) (model.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byID[id]
	if !ok {
		return model.Message{}, false
	}
	return *m, true
}

// ByConversation materializes a consistent snapshot of the conversation's
// messages ordered by timestamp ascending (insertion order breaks ties).
func (s *MessageStore) ByConversation(conversationID string) []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byConv[conversationID]
	out := make([]model.Message, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Len returns the total number of stored messages.
func (s *MessageStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
