package domain

import "context"

// Event is anything the core can push to connected clients. Name is the wire
// identifier of the event on the socket protocol.
type Event interface {
	Name() string
}

// EventSink consumes events on behalf of one live session. Implementations
// must not block: a sink that cannot keep up drops the event rather than
// stalling a broadcast.
type EventSink interface {
	Consume(ctx context.Context, e Event) error
}

type MutationKind string

const (
	MessageCreated MutationKind = "message-created"
	MessageEdited  MutationKind = "message-edited"
	MessageDeleted MutationKind = "message-deleted"
)

// MutationEvent records one message lifecycle change. It is produced only
// after the corresponding store write succeeded. Seq is a per-channel
// monotonically increasing hint; it is not durable across restarts.
type MutationEvent struct {
	Kind      MutationKind `json:"kind"`
	ChannelID string       `json:"channelId"`
	Seq       uint64       `json:"seq"`
	// Message carries the full record for created/edited, nil for deleted.
	Message   *Message `json:"message,omitempty"`
	MessageID string   `json:"messageId"`
}

func (e MutationEvent) Name() string { return string(e.Kind) }

// PresenceEvent announces a user coming online or going offline. Emitted only
// on first-session and last-session transitions.
type PresenceEvent struct {
	Online   bool   `json:"isOnline"`
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
	// OnlineCount is the registry size after the transition.
	OnlineCount int `json:"onlineUsersCount"`
}

func (e PresenceEvent) Name() string {
	if e.Online {
		return "user-online"
	}
	return "user-offline"
}

// PresenceSnapshot answers "who is online right now", sent once to a client
// immediately after admission.
type PresenceSnapshot struct {
	Users []PresenceEntry `json:"users"`
}

func (PresenceSnapshot) Name() string { return "online-users-snapshot" }

// RoomEvent announces a session joining or leaving a channel room.
type RoomEvent struct {
	Joined    bool   `json:"-"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	ChannelID string `json:"channelId"`
}

func (e RoomEvent) Name() string {
	if e.Joined {
		return "user-joined-channel"
	}
	return "user-left-channel"
}

// TypingEvent signals idle/typing transitions for a (user, channel) pair.
type TypingEvent struct {
	Active    bool   `json:"-"`
	UserID    string `json:"userId"`
	Username  string `json:"username,omitempty"`
	ChannelID string `json:"channelId"`
}

func (e TypingEvent) Name() string {
	if e.Active {
		return "user-typing-start"
	}
	return "user-typing-stop"
}

// ErrorEvent reports a handler failure to the requesting client only.
type ErrorEvent struct {
	Message string `json:"message"`
}

func (ErrorEvent) Name() string { return "error" }
