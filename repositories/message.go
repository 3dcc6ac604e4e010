package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"huddle/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	CreateMessage(ctx context.Context, content, senderID, channelID string) (domain.Message, error)
	FindMessageByID(ctx context.Context, id string) (domain.Message, error)
	UpdateMessage(ctx context.Context, id, content string) (domain.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	ListByChannel(ctx context.Context, channelID string, cursor *string) ([]domain.Message, *string, error)
}

type MessageRepository struct {
	db    *badger.DB
	log   *slog.Logger
	limit int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limit int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limit: limit}
}

// messageKey orders messages chronologically within a channel: the 19-digit
// zero-padded nanosecond timestamp makes lexicographic order match time
// order, and the trailing id disambiguates same-nanosecond writes.
func messageKey(channelID string, at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("msg:chan:%s:%019d:%s", channelID, at.UnixNano(), id))
}

// messageRefKey points from a message id to its primary key, so id lookups
// do not need to know the timestamp.
func messageRefKey(id string) []byte { return []byte("msg:ref:" + id) }

func (r *MessageRepository) CreateMessage(_ context.Context, content, senderID, channelID string) (domain.Message, error) {
	message := domain.Message{
		ID:        uuid.NewString(),
		ChannelID: channelID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(message)
	if err != nil {
		return domain.Message{}, fmt.Errorf("marshal failed: %w", err)
	}

	key := messageKey(channelID, message.CreatedAt, message.ID)
	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(messageRefKey(message.ID), key)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

func (r *MessageRepository) FindMessageByID(_ context.Context, id string) (domain.Message, error) {
	var message domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		key, err := resolveRef(txn, id)
		if err != nil {
			return err
		}
		return getJSON(txn, key, &message)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// UpdateMessage replaces the content and stamps the edit time. The record
// keeps its primary key so its position in channel history is unchanged.
func (r *MessageRepository) UpdateMessage(_ context.Context, id, content string) (domain.Message, error) {
	var message domain.Message
	err := r.db.Update(func(txn *badger.Txn) error {
		key, err := resolveRef(txn, id)
		if err != nil {
			return err
		}
		if err := getJSON(txn, key, &message); err != nil {
			return err
		}
		now := time.Now().UTC()
		message.Content = content
		message.IsEdited = true
		message.EditedAt = &now

		data, err := json.Marshal(message)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

func (r *MessageRepository) DeleteMessage(_ context.Context, id string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		key, err := resolveRef(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(messageRefKey(id))
	})
}

// ListByChannel pages through a channel's history newest-first using a
// reverse prefix scan. The returned cursor is the key suffix of the last
// message; passing it back resumes just past it.
func (r *MessageRepository) ListByChannel(_ context.Context, channelID string, cursor *string) ([]domain.Message, *string, error) {
	var messages []domain.Message
	var lastKey string

	prefixStr := fmt.Sprintf("msg:chan:%s:", channelID)
	prefix := []byte(prefixStr)

	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		if cursor == nil {
			// Seek past every possible timestamp, then walk backwards.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		} else {
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if r.limit > 0 && len(messages) == r.limit {
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefixStr):])
			var message domain.Message
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &message)
			})
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var next *string
	if r.limit > 0 && len(messages) == r.limit {
		next = &lastKey
	}
	return messages, next, nil
}

func resolveRef(txn *badger.Txn, id string) ([]byte, error) {
	item, err := txn.Get(messageRefKey(id))
	if err != nil {
		return nil, mapBadgerErr(err)
	}
	return item.ValueCopy(nil)
}
