package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"huddle/domain"
	"huddle/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IInviteRepository interface {
	CreateInvite(ctx context.Context, channelID, invitedBy, invitedUser string) (domain.Invite, error)
	GetInviteByID(ctx context.Context, id string) (domain.Invite, error)
	ResolveInvite(ctx context.Context, id string, status domain.InviteStatus) (domain.Invite, error)
	ListPendingForUser(ctx context.Context, userID string) ([]domain.Invite, error)
}

type InviteRepository struct {
	db *badger.DB
}

func NewInviteRepository(db *badger.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

func inviteKey(id string) []byte { return []byte("invite:id:" + id) }

// invitePendingKey guards the one-pending-invite-per-(channel, user) rule and
// is removed when the invite resolves either way.
func invitePendingKey(channelID, userID string) []byte {
	return []byte(fmt.Sprintf("invite:pending:%s:%s", channelID, userID))
}

// inviteUserKey indexes invites by recipient for the pending-invites listing.
func inviteUserKey(userID, id string) []byte {
	return []byte(fmt.Sprintf("invite:user:%s:%s", userID, id))
}

func (r *InviteRepository) CreateInvite(_ context.Context, channelID, invitedBy, invitedUser string) (domain.Invite, error) {
	now := time.Now().UTC()
	invite := domain.Invite{
		ID:          uuid.NewString(),
		ChannelID:   channelID,
		InvitedBy:   invitedBy,
		InvitedUser: invitedUser,
		Status:      domain.InvitePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	data, err := json.Marshal(invite)
	if err != nil {
		return domain.Invite{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(invitePendingKey(channelID, invitedUser)); err == nil {
			return errors.ErrDuplicateInvite
		}
		if err := txn.Set(inviteKey(invite.ID), data); err != nil {
			return err
		}
		if err := txn.Set(invitePendingKey(channelID, invitedUser), []byte(invite.ID)); err != nil {
			return err
		}
		return txn.Set(inviteUserKey(invitedUser, invite.ID), []byte(invite.ID))
	})
	if err != nil {
		return domain.Invite{}, err
	}
	return invite, nil
}

func (r *InviteRepository) GetInviteByID(_ context.Context, id string) (domain.Invite, error) {
	var invite domain.Invite
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, inviteKey(id), &invite)
	})
	if err != nil {
		return domain.Invite{}, err
	}
	return invite, nil
}

// ResolveInvite transitions a pending invite to accepted or rejected and
// clears the pending guard so the user can be invited again later.
func (r *InviteRepository) ResolveInvite(_ context.Context, id string, status domain.InviteStatus) (domain.Invite, error) {
	var invite domain.Invite
	err := r.db.Update(func(txn *badger.Txn) error {
		if err := getJSON(txn, inviteKey(id), &invite); err != nil {
			return err
		}
		if invite.Status != domain.InvitePending {
			return fmt.Errorf("%w: invite already %s", errors.ErrValidation, invite.Status)
		}
		invite.Status = status
		invite.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(invite)
		if err != nil {
			return err
		}
		if err := txn.Set(inviteKey(id), data); err != nil {
			return err
		}
		return txn.Delete(invitePendingKey(invite.ChannelID, invite.InvitedUser))
	})
	if err != nil {
		return domain.Invite{}, err
	}
	return invite, nil
}

func (r *InviteRepository) ListPendingForUser(_ context.Context, userID string) ([]domain.Invite, error) {
	prefix := []byte("invite:user:" + userID + ":")
	var ids []string
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var pending []domain.Invite
	for _, id := range ids {
		invite, err := r.GetInviteByID(context.Background(), id)
		if err != nil {
			return nil, err
		}
		if invite.Status == domain.InvitePending {
			pending = append(pending, invite)
		}
	}
	return pending, nil
}
