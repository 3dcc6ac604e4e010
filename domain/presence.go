package domain

import "time"

// Session is one live connection. A user may hold several sessions at once;
// presence is derived from the session count, never from a single slot.
type Session struct {
	ID          string
	UserID      string
	Username    string
	ConnectedAt time.Time
}

// PresenceEntry is the online record for one user. SessionID tracks the most
// recently established session; JoinedAt is when the first session appeared.
type PresenceEntry struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	SessionID string    `json:"sessionId"`
	JoinedAt  time.Time `json:"joinedAt"`
}
