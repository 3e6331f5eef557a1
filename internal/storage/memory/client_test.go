package memory

import (
	"context"
	"testing"

	"github.com/chatsync/internal/model"
)

func TestDefaultsUntilFirstSet(t *testing.T) {
	c := New()
	ctx := context.Background()

	got, err := c.GetNotificationSettings(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != model.DefaultNotificationSettings() {
		t.Fatalf("defaults = %+v", got)
	}

	want := model.NotificationSettings{Likes: false, Comments: true, Orders: false}
	if err := c.SetNotificationSettings(ctx, want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err = c.GetNotificationSettings(ctx)
	if err != nil {
		t.Fatalf("Get after Set: %v", err)
	}
	if got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}
