package memory

import (
	"context"
	"sync"

	"github.com/chatsync/internal/model"
)

// Client keeps the settings in process memory. Until the first Set, reads
// return the defaults (every gated type enabled).
type Client struct {
	mu       sync.RWMutex
	settings model.NotificationSettings
	set      bool
}

func New() *Client {
	return &Client{}
}

func (c *Client) Close() error { return nil }

func (c *Client) GetNotificationSettings(ctx context.Context) (model.NotificationSettings, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.set {
		return model.DefaultNotificationSettings(), nil
	}
	return c.settings, nil
}

func (c *Client) SetNotificationSettings(ctx context.Context, s model.NotificationSettings) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = s
	c.set = true
	return nil
}
