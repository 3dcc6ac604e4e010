package domain

import "time"

// Message is one persisted chat message.
type Message struct {
	ID        string     `json:"id"`
	ChannelID string     `json:"channelId"`
	SenderID  string     `json:"senderId"`
	Sender    PublicUser `json:"sender"`
	Content   string     `json:"content"`
	IsEdited  bool       `json:"isEdited"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}
