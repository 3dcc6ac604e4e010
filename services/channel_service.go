package services

import (
	"context"
	"fmt"
	"strings"

	"huddle/domain"
	"huddle/errors"
	"huddle/repositories"

	"github.com/samber/lo"
)

type IChannelService interface {
	Create(ctx context.Context, createdBy, name, description string, members []string, isPrivate bool) (domain.Channel, error)
	Get(ctx context.Context, id string) (domain.Channel, error)
	ListVisible(ctx context.Context, userID string) ([]domain.Channel, error)
	Join(ctx context.Context, channelID, userID string) (domain.Channel, error)
	Leave(ctx context.Context, channelID, userID string) (domain.Channel, error)
	Delete(ctx context.Context, channelID, requesterID string) error
}

type ChannelService struct {
	channels repositories.IChannelRepository
}

func NewChannelService(channels repositories.IChannelRepository) *ChannelService {
	return &ChannelService{channels: channels}
}

func (s *ChannelService) Create(ctx context.Context, createdBy, name, description string, members []string, isPrivate bool) (domain.Channel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Channel{}, fmt.Errorf("%w: channel name is required", errors.ErrValidation)
	}
	return s.channels.CreateChannel(ctx, name, description, createdBy, members, isPrivate)
}

func (s *ChannelService) Get(ctx context.Context, id string) (domain.Channel, error) {
	return s.channels.GetChannelByID(ctx, id)
}

// ListVisible returns public channels plus private ones the user created or
// belongs to.
func (s *ChannelService) ListVisible(ctx context.Context, userID string) ([]domain.Channel, error) {
	all, err := s.channels.ListChannels(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(all, func(c domain.Channel, _ int) bool {
		return c.VisibleTo(userID)
	}), nil
}

func (s *ChannelService) Join(ctx context.Context, channelID, userID string) (domain.Channel, error) {
	return s.channels.AddMember(ctx, channelID, userID)
}

func (s *ChannelService) Leave(ctx context.Context, channelID, userID string) (domain.Channel, error) {
	return s.channels.RemoveMember(ctx, channelID, userID)
}

// Delete removes a channel; only its creator may do so.
func (s *ChannelService) Delete(ctx context.Context, channelID, requesterID string) error {
	channel, err := s.channels.GetChannelByID(ctx, channelID)
	if err != nil {
		return err
	}
	if channel.CreatedBy != requesterID {
		return fmt.Errorf("%w: only the channel creator can delete it", errors.ErrAuthorization)
	}
	return s.channels.DeleteChannel(ctx, channelID)
}
