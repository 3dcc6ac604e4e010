// Package services holds the application use cases. Services validate,
// call the repositories, and hand events to the runtime for distribution.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"huddle/domain"
	"huddle/errors"
	"huddle/repositories"
)

// Broadcaster is the slice of the runtime registry the services need.
type Broadcaster interface {
	Broadcast(ctx context.Context, channelID string, e domain.Event, excludeSessionID string)
}

type IMessageService interface {
	Create(ctx context.Context, senderID, channelID, content string) (domain.Message, error)
	Edit(ctx context.Context, requesterID, messageID, content string) (domain.Message, error)
	Delete(ctx context.Context, requesterID, messageID string) error
	History(ctx context.Context, channelID string, cursor *string) ([]domain.Message, *string, error)
}

// MessageService coordinates every message mutation: validate, persist, then
// broadcast. Both the REST path and the socket path funnel through it, so a
// connected client never observes an event for a record the store would not
// yet show. One persistence attempt per request; on failure the broadcast is
// suppressed and the error surfaces to the requester alone.
type MessageService struct {
	log         *slog.Logger
	messages    repositories.IMessageRepository
	channels    repositories.IChannelRepository
	users       repositories.IUserRepository
	broadcaster Broadcaster

	// per-channel sequence hints stamped on every mutation event
	seqMu sync.Mutex
	seq   map[string]uint64
}

func NewMessageService(
	log *slog.Logger,
	messages repositories.IMessageRepository,
	channels repositories.IChannelRepository,
	users repositories.IUserRepository,
	broadcaster Broadcaster,
) *MessageService {
	return &MessageService{
		log:         log,
		messages:    messages,
		channels:    channels,
		users:       users,
		broadcaster: broadcaster,
		seq:         make(map[string]uint64),
	}
}

func (s *MessageService) nextSeq(channelID string) uint64 {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	s.seq[channelID]++
	return s.seq[channelID]
}

// Create appends a message to a channel.
func (s *MessageService) Create(ctx context.Context, senderID, channelID, content string) (domain.Message, error) {
	// 1. Validate
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Message{}, fmt.Errorf("%w: message content is required", errors.ErrValidation)
	}
	exists, err := s.channels.ChannelExists(ctx, channelID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	if !exists {
		return domain.Message{}, fmt.Errorf("%w: channel", errors.ErrNotFound)
	}

	// 2. Persist
	message, err := s.messages.CreateMessage(ctx, content, senderID, channelID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	message = s.withSender(ctx, message)

	// 3. Broadcast, sender included: the originating client relies on the
	// echo to confirm its own UI state.
	s.broadcaster.Broadcast(ctx, channelID, domain.MutationEvent{
		Kind:      domain.MessageCreated,
		ChannelID: channelID,
		Seq:       s.nextSeq(channelID),
		Message:   &message,
		MessageID: message.ID,
	}, "")
	return message, nil
}

// Edit rewrites a message's content. Only the original author may edit, and
// ownership is checked against the persisted record.
func (s *MessageService) Edit(ctx context.Context, requesterID, messageID, content string) (domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Message{}, fmt.Errorf("%w: message content is required", errors.ErrValidation)
	}

	existing, err := s.messages.FindMessageByID(ctx, messageID)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: message", errors.ErrNotFound)
	}
	if existing.SenderID != requesterID {
		return domain.Message{}, fmt.Errorf("%w: not the author of this message", errors.ErrAuthorization)
	}

	message, err := s.messages.UpdateMessage(ctx, messageID, content)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	message = s.withSender(ctx, message)

	s.broadcaster.Broadcast(ctx, message.ChannelID, domain.MutationEvent{
		Kind:      domain.MessageEdited,
		ChannelID: message.ChannelID,
		Seq:       s.nextSeq(message.ChannelID),
		Message:   &message,
		MessageID: message.ID,
	}, "")
	return message, nil
}

// Delete removes a message. Only the original author may delete; the
// broadcast carries identities only, not the removed content.
func (s *MessageService) Delete(ctx context.Context, requesterID, messageID string) error {
	existing, err := s.messages.FindMessageByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("%w: message", errors.ErrNotFound)
	}
	if existing.SenderID != requesterID {
		return fmt.Errorf("%w: not the author of this message", errors.ErrAuthorization)
	}

	if err := s.messages.DeleteMessage(ctx, messageID); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	s.broadcaster.Broadcast(ctx, existing.ChannelID, domain.MutationEvent{
		Kind:      domain.MessageDeleted,
		ChannelID: existing.ChannelID,
		Seq:       s.nextSeq(existing.ChannelID),
		MessageID: messageID,
	}, "")
	return nil
}

// History pages through a channel's persisted messages, newest first.
func (s *MessageService) History(ctx context.Context, channelID string, cursor *string) ([]domain.Message, *string, error) {
	exists, err := s.channels.ChannelExists(ctx, channelID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	if !exists {
		return nil, nil, fmt.Errorf("%w: channel", errors.ErrNotFound)
	}

	messages, next, err := s.messages.ListByChannel(ctx, channelID, cursor)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	for i := range messages {
		messages[i] = s.withSender(ctx, messages[i])
	}
	return messages, next, nil
}

// withSender fills the embedded sender projection so clients can render a
// message without a second lookup. A missing user record degrades to ids only.
func (s *MessageService) withSender(ctx context.Context, message domain.Message) domain.Message {
	user, err := s.users.GetUserByID(ctx, message.SenderID)
	if err != nil {
		s.log.Debug("sender lookup failed", "message_id", message.ID, "sender_id", message.SenderID)
		return message
	}
	message.Sender = user.Public()
	return message
}
