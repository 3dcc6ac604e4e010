// Package repositories persists the application's entities in BadgerDB.
// Values are JSON documents; keys are namespaced strings with secondary
// index keys where lookups need them.
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
)

const userSearchLimit = 10

type IUserRepository interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (domain.User, error)
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	SearchUsers(ctx context.Context, query string) ([]domain.User, error)
	SetPresence(ctx context.Context, id string, online bool, at time.Time) error
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

func userKey(id string) []byte      { return []byte("user:id:" + id) }
func emailKey(email string) []byte  { return []byte("user:email:" + strings.ToLower(email)) }
func nameKey(username string) []byte {
	return []byte("user:name:" + strings.ToLower(username))
}

// CreateUser persists a new account. Username and email uniqueness are
// enforced inside a single transaction via index keys pointing back to the
// primary record.
func (r *UserRepository) CreateUser(_ context.Context, username, email, passwordHash string) (domain.User, error) {
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		LastSeen:     time.Now().UTC(),
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(user)
	if err != nil {
		return domain.User{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey(email)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if _, err := txn.Get(nameKey(username)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(userKey(user.ID), data); err != nil {
			return err
		}
		if err := txn.Set(emailKey(email), []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set(nameKey(username), []byte(user.ID))
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByID(_ context.Context, id string) (domain.User, error) {
	var user domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(id), &user)
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var id string
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if err != nil {
			return mapBadgerErr(err)
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return domain.User{}, err
	}
	return r.GetUserByID(ctx, id)
}

// ListUsers returns every registered account via a primary-key prefix scan.
func (r *UserRepository) ListUsers(_ context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, []byte("user:id:"), func(u domain.User) bool {
			users = append(users, u)
			return true
		})
	})
	return users, err
}

// SearchUsers matches the query case-insensitively against username and
// email, capped at a small result count.
func (r *UserRepository) SearchUsers(_ context.Context, query string) ([]domain.User, error) {
	q := strings.ToLower(query)
	var users []domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		return scanJSON(txn, []byte("user:id:"), func(u domain.User) bool {
			if strings.Contains(strings.ToLower(u.Username), q) ||
				strings.Contains(strings.ToLower(u.Email), q) {
				users = append(users, u)
			}
			return len(users) < userSearchLimit
		})
	})
	return users, err
}

// SetPresence updates the durable online flag and last-seen timestamp.
// Callers treat failures as log-only: in-memory presence is authoritative.
func (r *UserRepository) SetPresence(_ context.Context, id string, online bool, at time.Time) error {
	return r.db.Update(func(txn *badger.Txn) error {
		var user domain.User
		if err := getJSON(txn, userKey(id), &user); err != nil {
			return err
		}
		user.IsOnline = online
		user.LastSeen = at
		data, err := json.Marshal(user)
		if err != nil {
			return err
		}
		return txn.Set(userKey(id), data)
	})
}
