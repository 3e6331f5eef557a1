package model

import "time"

type NotificationType string

const (
	NotificationTypeLike      NotificationType = "like"
	NotificationTypeComment   NotificationType = "comment"
	NotificationTypeFollow    NotificationType = "follow"
	NotificationTypeMention   NotificationType = "mention"
	NotificationTypeOrder     NotificationType = "order"
	NotificationTypePromotion NotificationType = "promotion"
)

type Notification struct {
	ID        string            `json:"id"`
	Type      NotificationType  `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Read      bool              `json:"read"`
	AvatarURL string            `json:"avatar,omitempty"`
	PostImage string            `json:"postImage,omitempty"`
	ActionURL string            `json:"actionUrl,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NotificationSettings holds the per-type gating flags. Only like, comment and
// order notifications are gated; follow, mention and promotion always pass.
type NotificationSettings struct {
	Likes    bool `json:"likes" yaml:"likes"`
	Comments bool `json:"comments" yaml:"comments"`
	Orders   bool `json:"orders" yaml:"orders"`
}

// DefaultNotificationSettings enables every gated type.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{Likes: true, Comments: true, Orders: true}
}

// Allows reports whether a notification of type t may be materialized.
func (s NotificationSettings) Allows(t NotificationType) bool {
	switch t {
	case NotificationTypeLike:
		return s.Likes
	case NotificationTypeComment:
		return s.Comments
	case NotificationTypeOrder:
		return s.Orders
	default:
		return true
	}
}
