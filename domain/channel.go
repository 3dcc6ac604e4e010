package domain

import "time"

// Channel is a named conversation space. Members holds persistent membership
// (who belongs to the channel), which is independent of the live room
// subscriptions tracked by the runtime registry.
type Channel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"createdBy"`
	Members     []string  `json:"members"`
	IsPrivate   bool      `json:"isPrivate"`
	CreatedAt   time.Time `json:"createdAt"`
}

// HasMember reports whether a user belongs to the channel.
func (c Channel) HasMember(userID string) bool {
	for _, m := range c.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// VisibleTo reports whether a user may see the channel in listings.
func (c Channel) VisibleTo(userID string) bool {
	return !c.IsPrivate || c.CreatedBy == userID || c.HasMember(userID)
}
