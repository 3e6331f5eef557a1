package storage

import (
	"context"

	"github.com/chatsync/internal/model"
)

// SettingsStore persists the per-type notification gating flags.
// Implementations: redis.Client, memory.Client (for -dev without Redis).
type SettingsStore interface {
	GetNotificationSettings(ctx context.Context) (model.NotificationSettings, error)
	SetNotificationSettings(ctx context.Context, s model.NotificationSettings) error
	Close() error
}
