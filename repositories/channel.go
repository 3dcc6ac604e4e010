package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"huddle/domain"
	"huddle/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IChannelRepository interface {
	CreateChannel(ctx context.Context, name, description, createdBy string, members []string, isPrivate bool) (domain.Channel, error)
	GetChannelByID(ctx context.Context, id string) (domain.Channel, error)
	ChannelExists(ctx context.Context, id string) (bool, error)
	ListChannels(ctx context.Context) ([]domain.Channel, error)
	AddMember(ctx context.Context, channelID, userID string) (domain.Channel, error)
	RemoveMember(ctx context.Context, channelID, userID string) (domain.Channel, error)
	DeleteChannel(ctx context.Context, id string) error
}

type ChannelRepository struct {
	db *badger.DB
}

func NewChannelRepository(db *badger.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

func channelKey(id string) []byte { return []byte("channel:id:" + id) }
func channelNameKey(name string) []byte {
	return []byte("channel:name:" + strings.ToLower(name))
}

// CreateChannel persists a channel, enforcing name uniqueness through an
// index key in the same transaction.
func (r *ChannelRepository) CreateChannel(_ context.Context, name, description, createdBy string, members []string, isPrivate bool) (domain.Channel, error) {
	channel := domain.Channel{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedBy:   createdBy,
		Members:     lo.Uniq(append([]string{createdBy}, members...)),
		IsPrivate:   isPrivate,
		CreatedAt:   time.Now().UTC(),
	}

	data, err := json.Marshal(channel)
	if err != nil {
		return domain.Channel{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(channelNameKey(name)); err == nil {
			return errors.ErrChannelAlreadyExists
		}
		if err := txn.Set(channelKey(channel.ID), data); err != nil {
			return err
		}
		return txn.Set(channelNameKey(name), []byte(channel.ID))
	})
	if err != nil {
		return domain.Channel{}, err
	}
	return channel, nil
}

func (r *ChannelRepository) GetChannelByID(_ context.Context, id string) (domain.Channel, error) {
	var channel domain.Channel
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, channelKey(id), &channel)
	})
	if err != nil {
		return domain.Channel{}, err
	}
	return channel, nil
}

// ChannelExists is the existence check consulted before message creation.
func (r *ChannelRepository) ChannelExists(_ context.Context, id string) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(channelKey(id))
		return mapBadgerErr(err)
	})
	if err == nil {
		return true, nil
	}
	if stdIs(err, errors.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (r *ChannelRepository) ListChannels(_ context.Context) ([]domain.Channel, error) {
	var channels []domain.Channel
	err := r.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, []byte("channel:id:"), func(c domain.Channel) bool {
			channels = append(channels, c)
			return true
		})
	})
	return channels, err
}

// AddMember appends a user to the channel's member list, idempotently.
func (r *ChannelRepository) AddMember(_ context.Context, channelID, userID string) (domain.Channel, error) {
	return r.mutate(channelID, func(c *domain.Channel) {
		if !c.HasMember(userID) {
			c.Members = append(c.Members, userID)
		}
	})
}

// RemoveMember drops a user from the channel's member list.
func (r *ChannelRepository) RemoveMember(_ context.Context, channelID, userID string) (domain.Channel, error) {
	return r.mutate(channelID, func(c *domain.Channel) {
		c.Members = lo.Filter(c.Members, func(m string, _ int) bool {
			return m != userID
		})
	})
}

func (r *ChannelRepository) DeleteChannel(_ context.Context, id string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		var channel domain.Channel
		if err := getJSON(txn, channelKey(id), &channel); err != nil {
			return err
		}
		if err := txn.Delete(channelNameKey(channel.Name)); err != nil {
			return err
		}
		return txn.Delete(channelKey(id))
	})
}

func (r *ChannelRepository) mutate(channelID string, apply func(*domain.Channel)) (domain.Channel, error) {
	var channel domain.Channel
	err := r.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, channelKey(channelID), &channel); err != nil {
			return err
		}
		apply(&channel)
		data, err := json.Marshal(channel)
		if err != nil {
			return err
		}
		return txn.Set(channelKey(channelID), data)
	})
	if err != nil {
		return domain.Channel{}, err
	}
	return channel, nil
}
