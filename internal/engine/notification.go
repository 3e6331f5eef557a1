package engine

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chatsync/internal/logger"
	"github.com/chatsync/internal/model"
	"github.com/chatsync/internal/socket"
	"github.com/chatsync/internal/storage"
)

// NotificationEngine owns the notification list. Inbound candidates — from
// the transport, the REST population fetch or the synthetic generator — all
// pass through Add, where per-type user settings gate creation: a disabled
// gated type is never materialized, not created-then-hidden.
type NotificationEngine struct {
	settings storage.SettingsStore

	mu    sync.RWMutex
	byID  map[string]*model.Notification
	order []string // insertion order, oldest first
}

func NewNotificationEngine(settings storage.SettingsStore) *NotificationEngine {
	return &NotificationEngine{
		settings: settings,
		byID:     make(map[string]*model.Notification),
	}
}

// Attach subscribes to the transport's notification stream. Connection
// ownership stays with the message engine.
func (e *NotificationEngine) Attach(t Transport) {
	t.On(socket.EventNotification, func(env socket.Envelope) {
		var n model.Notification
		if err := json.Unmarshal(env.Payload, &n); err != nil {
			logger.Errorf("notification payload: %v", err)
			return
		}
		if _, err := e.Add(context.Background(), n); err != nil {
			logger.Errorf("notification add: %v", err)
		}
	})
}

// Add materializes a notification unless its type is gated off in the user
// settings. A candidate reusing an existing id is dropped (idempotent
// redelivery). Returns whether a record was created.
func (e *NotificationEngine) Add(ctx context.Context, n model.Notification) (bool, error) {
	settings, err := e.settings.GetNotificationSettings(ctx)
	if err != nil {
		logger.Errorf("notification settings: %v (using defaults)", err)
		settings = model.DefaultNotificationSettings()
	}
	if !settings.Allows(n.Type) {
		return false, nil
	}

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}
	n.Read = false

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.byID[n.ID]; ok {
		return false, nil
	}
	stored := n
	e.byID[n.ID] = &stored
	e.order = append(e.order, n.ID)
	return true, nil
}

// MarkAsRead sets the read flag. Idempotent; unknown ids are a no-op.
func (e *NotificationEngine) MarkAsRead(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.byID[id]
	if !ok {
		return false
	}
	n.Read = true
	return true
}

// MarkAllAsRead flags every notification read. Returns how many changed.
func (e *NotificationEngine) MarkAllAsRead() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	changed := 0
	for _, n := range e.byID {
		if !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed
}

// Delete removes one record.
func (e *NotificationEngine) Delete(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.byID[id]; !ok {
		return false
	}
	delete(e.byID, id)
	for i, oid := range e.order {
		if oid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return true
}

// ClearAll empties the list.
func (e *NotificationEngine) ClearAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.byID = make(map[string]*model.Notification)
	e.order = nil
}

// UnreadCount is derived, never stored: always recomputed from the records.
func (e *NotificationEngine) UnreadCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	count := 0
	for _, n := range e.byID {
		if !n.Read {
			count++
		}
	}
	return count
}

// List returns a snapshot, newest first.
func (e *NotificationEngine) List() []model.Notification {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]model.Notification, 0, len(e.order))
	for i := len(e.order) - 1; i >= 0; i-- {
		out = append(out, *e.byID[e.order[i]])
	}
	return out
}
