package model

type Conversation struct {
	ID           string   `json:"id"`
	Participants []string `json:"participants"`
	IsGroup      bool     `json:"isGroup"`
	Name         string   `json:"name,omitempty"`
	AvatarURL    string   `json:"avatarUrl,omitempty"`

	// LastMessageID is a back-reference into the message store, never a copy.
	LastMessageID string `json:"lastMessageId,omitempty"`
	UnreadCount   int    `json:"unreadCount"`
	// IsTyping is an ephemeral UI signal, not persisted across reconnect.
	IsTyping bool `json:"isTyping"`
}
