package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/chatsync/internal/model"
)

// Client persists the settings in Redis so gating survives restarts. One key
// per user: settings:{userID}, stored as a JSON blob.
type Client struct {
	cli    *redis.Client
	userID string
}

func New(ctx context.Context, url, userID string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{cli: cli, userID: userID}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

func (c *Client) key() string {
	return "settings:" + c.userID
}

// GetNotificationSettings returns the stored flags, or the defaults when the
// key does not exist yet.
func (c *Client) GetNotificationSettings(ctx context.Context) (model.NotificationSettings, error) {
	val, err := c.cli.Get(ctx, c.key()).Result()
	if err == redis.Nil {
		return model.DefaultNotificationSettings(), nil
	}
	if err != nil {
		return model.DefaultNotificationSettings(), fmt.Errorf("redis get settings: %w", err)
	}
	var s model.NotificationSettings
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return model.DefaultNotificationSettings(), fmt.Errorf("redis settings unmarshal: %w", err)
	}
	return s, nil
}

func (c *Client) SetNotificationSettings(ctx context.Context, s model.NotificationSettings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("redis settings marshal: %w", err)
	}
	return c.cli.Set(ctx, c.key(), data, 0).Err()
}
