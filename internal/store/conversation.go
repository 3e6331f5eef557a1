package store

import (
	"sort"
	"sync"

	"github.com/chatsync/internal/model"
)

// ConversationStore is the authoritative in-memory map of conversation id to
// conversation metadata. It holds a non-owning back-reference (LastMessageID)
// into the message store.
type ConversationStore struct {
	mu    sync.RWMutex
	convs map[string]*model.Conversation
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{convs: make(map[string]*model.Conversation)}
}

// Put upserts a conversation. The conversation list is externally sourced
// (listing fetch), so Put keeps locally accumulated counters when the
// conversation already exists.
func (s *ConversationStore) Put(c model.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.convs[c.ID]; ok {
		c.UnreadCount = existing.UnreadCount
		c.IsTyping = existing.IsTyping
		if c.LastMessageID == "" {
			c.LastMessageID = existing.LastMessageID
		}
	}
	stored := c
	s.convs[c.ID] = &stored
}

// TouchLastMessage sets the last-message back-reference. An unknown
// conversation returns ErrUnknownConversation and leaves no trace: the
// listing fetch may race with message arrival.
func (s *ConversationStore) TouchLastMessage(conversationID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[conversationID]
	if !ok {
		return ErrUnknownConversation
	}
	c.LastMessageID = messageID
	return nil
}

// MarkRead resets the unread counter to zero.
func (s *ConversationStore) MarkRead(conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[conversationID]
	if !ok {
		return ErrUnknownConversation
	}
	c.UnreadCount = 0
	return nil
}

// IncrementUnread bumps the unread counter unless the conversation is the
// active one (the caller supplies that context).
func (s *ConversationStore) IncrementUnread(conversationID string, active bool) error {
	if active {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[conversationID]
	if !ok {
		return ErrUnknownConversation
	}
	c.UnreadCount++
	return nil
}

// SetTyping overwrites the ephemeral typing flag.
func (s *ConversationStore) SetTyping(conversationID string, isTyping bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[conversationID]
	if !ok {
		return ErrUnknownConversation
	}
	c.IsTyping = isTyping
	return nil
}

// Get returns a copy of the conversation with the given id.
func (s *ConversationStore) Get(id string) (model.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.convs[id]
	if !ok {
		return model.Conversation{}, false
	}
	return *c, true
}

// List returns a snapshot of all conversations sorted by id.
func (s *ConversationStore) List() []model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Conversation, 0, len(s.convs))
	for _, c := range s.convs {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
