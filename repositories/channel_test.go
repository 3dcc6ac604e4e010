package repositories

import (
	"context"
	"testing"

	"huddle/domain"
	"huddle/errors"

	"github.com/stretchr/testify/require"
)

func TestChannelRepository_CreateAndMembership(t *testing.T) {
	req := require.New(t)
	repo := NewChannelRepository(openTestDB(t))
	ctx := context.Background()

	channel, err := repo.CreateChannel(ctx, "general", "main room", "alice", nil, false)
	req.NoError(err)
	req.True(channel.HasMember("alice")) // creator is always a member

	_, err = repo.CreateChannel(ctx, "General", "dup", "bob", nil, false)
	req.ErrorIs(err, errors.ErrChannelAlreadyExists)

	exists, err := repo.ChannelExists(ctx, channel.ID)
	req.NoError(err)
	req.True(exists)

	exists, err = repo.ChannelExists(ctx, "missing")
	req.NoError(err)
	req.False(exists)

	// join twice, membership recorded once
	channel, err = repo.AddMember(ctx, channel.ID, "bob")
	req.NoError(err)
	channel, err = repo.AddMember(ctx, channel.ID, "bob")
	req.NoError(err)
	req.Equal([]string{"alice", "bob"}, channel.Members)

	channel, err = repo.RemoveMember(ctx, channel.ID, "bob")
	req.NoError(err)
	req.Equal([]string{"alice"}, channel.Members)
}

func TestChannelRepository_DeleteFreesName(t *testing.T) {
	req := require.New(t)
	repo := NewChannelRepository(openTestDB(t))
	ctx := context.Background()

	channel, err := repo.CreateChannel(ctx, "ephemeral", "", "alice", nil, true)
	req.NoError(err)

	req.NoError(repo.DeleteChannel(ctx, channel.ID))

	_, err = repo.GetChannelByID(ctx, channel.ID)
	req.ErrorIs(err, errors.ErrNotFound)

	// The name is reusable once the channel is gone
	_, err = repo.CreateChannel(ctx, "ephemeral", "", "bob", nil, false)
	req.NoError(err)
}

func TestInviteRepository_Lifecycle(t *testing.T) {
	req := require.New(t)
	repo := NewInviteRepository(openTestDB(t))
	ctx := context.Background()

	invite, err := repo.CreateInvite(ctx, "chan-1", "alice", "bob")
	req.NoError(err)
	req.Equal(domain.InvitePending, invite.Status)

	// one pending invite per (channel, user)
	_, err = repo.CreateInvite(ctx, "chan-1", "alice", "bob")
	req.ErrorIs(err, errors.ErrDuplicateInvite)

	pending, err := repo.ListPendingForUser(ctx, "bob")
	req.NoError(err)
	req.Len(pending, 1)

	resolved, err := repo.ResolveInvite(ctx, invite.ID, domain.InviteAccepted)
	req.NoError(err)
	req.Equal(domain.InviteAccepted, resolved.Status)

	// resolving twice is rejected
	_, err = repo.ResolveInvite(ctx, invite.ID, domain.InviteRejected)
	req.ErrorIs(err, errors.ErrValidation)

	pending, err = repo.ListPendingForUser(ctx, "bob")
	req.NoError(err)
	req.Empty(pending)

	// once resolved, a fresh invite is allowed again
	_, err = repo.CreateInvite(ctx, "chan-1", "alice", "bob")
	req.NoError(err)
}
