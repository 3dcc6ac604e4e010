package domain

import "time"

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteRejected InviteStatus = "rejected"
)

// Invite asks a user to join a channel. Only the channel creator may send
// one, and at most one pending invite exists per (channel, user) pair.
type Invite struct {
	ID          string       `json:"id"`
	ChannelID   string       `json:"channelId"`
	InvitedBy   string       `json:"invitedBy"`
	InvitedUser string       `json:"invitedUser"`
	Status      InviteStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}
