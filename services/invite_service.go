package services

import (
	"context"
	"fmt"

	"huddle/domain"
	"huddle/errors"
	"huddle/repositories"
)

type IInviteService interface {
	Send(ctx context.Context, channelID, invitedBy, invitedUser string) (domain.Invite, error)
	Pending(ctx context.Context, userID string) ([]domain.Invite, error)
	Accept(ctx context.Context, inviteID, userID string) (domain.Invite, error)
	Reject(ctx context.Context, inviteID, userID string) (domain.Invite, error)
}

type InviteService struct {
	invites  repositories.IInviteRepository
	channels repositories.IChannelRepository
	users    repositories.IUserRepository
}

func NewInviteService(
	invites repositories.IInviteRepository,
	channels repositories.IChannelRepository,
	users repositories.IUserRepository,
) *InviteService {
	return &InviteService{invites: invites, channels: channels, users: users}
}

// Send creates a pending invite. Only the channel creator can invite, the
// target user must exist and must not already be a member, and duplicate
// pending invites are rejected by the repository.
func (s *InviteService) Send(ctx context.Context, channelID, invitedBy, invitedUser string) (domain.Invite, error) {
	channel, err := s.channels.GetChannelByID(ctx, channelID)
	if err != nil {
		return domain.Invite{}, fmt.Errorf("%w: channel", errors.ErrNotFound)
	}
	if channel.CreatedBy != invitedBy {
		return domain.Invite{}, fmt.Errorf("%w: only the channel creator can send invites", errors.ErrAuthorization)
	}
	if channel.HasMember(invitedUser) {
		return domain.Invite{}, errors.ErrAlreadyMember
	}
	if _, err := s.users.GetUserByID(ctx, invitedUser); err != nil {
		return domain.Invite{}, fmt.Errorf("%w: user", errors.ErrNotFound)
	}
	return s.invites.CreateInvite(ctx, channelID, invitedBy, invitedUser)
}

func (s *InviteService) Pending(ctx context.Context, userID string) ([]domain.Invite, error) {
	return s.invites.ListPendingForUser(ctx, userID)
}

// Accept resolves the invite and adds the user to the channel's members.
func (s *InviteService) Accept(ctx context.Context, inviteID, userID string) (domain.Invite, error) {
	invite, err := s.resolve(ctx, inviteID, userID, domain.InviteAccepted)
	if err != nil {
		return domain.Invite{}, err
	}
	if _, err := s.channels.AddMember(ctx, invite.ChannelID, userID); err != nil {
		return domain.Invite{}, err
	}
	return invite, nil
}

func (s *InviteService) Reject(ctx context.Context, inviteID, userID string) (domain.Invite, error) {
	return s.resolve(ctx, inviteID, userID, domain.InviteRejected)
}

func (s *InviteService) resolve(ctx context.Context, inviteID, userID string, status domain.InviteStatus) (domain.Invite, error) {
	invite, err := s.invites.GetInviteByID(ctx, inviteID)
	if err != nil {
		return domain.Invite{}, fmt.Errorf("%w: invite", errors.ErrNotFound)
	}
	if invite.InvitedUser != userID {
		return domain.Invite{}, fmt.Errorf("%w: this invite was not sent to you", errors.ErrAuthorization)
	}
	return s.invites.ResolveInvite(ctx, inviteID, status)
}
