package repositories

import (
	"context"
	"testing"
	"time"

	"huddle/errors"

	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndLookup(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, "alice", "alice@example.com", "hash")
	req.NoError(err)
	req.NotEmpty(created.ID)

	byID, err := repo.GetUserByID(ctx, created.ID)
	req.NoError(err)
	req.Equal("alice", byID.Username)

	byEmail, err := repo.GetUserByEmail(ctx, "alice@example.com")
	req.NoError(err)
	req.Equal(created.ID, byEmail.ID)

	_, err = repo.GetUserByEmail(ctx, "nobody@example.com")
	req.ErrorIs(err, errors.ErrNotFound)
}

func TestUserRepository_UniquenessRules(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, "alice", "alice@example.com", "hash")
	req.NoError(err)

	_, err = repo.CreateUser(ctx, "alice2", "alice@example.com", "hash")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)

	_, err = repo.CreateUser(ctx, "alice", "other@example.com", "hash")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func TestUserRepository_Search(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	for _, u := range []struct{ name, email string }{
		{"alice", "alice@example.com"},
		{"alicia", "alicia@example.com"},
		{"bob", "bob@widgets.io"},
	} {
		_, err := repo.CreateUser(ctx, u.name, u.email, "hash")
		req.NoError(err)
	}

	found, err := repo.SearchUsers(ctx, "ALIC")
	req.NoError(err)
	req.Len(found, 2)

	found, err = repo.SearchUsers(ctx, "widgets")
	req.NoError(err)
	req.Len(found, 1)
	req.Equal("bob", found[0].Username)
}

func TestUserRepository_SetPresence(t *testing.T) {
	req := require.New(t)
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, "alice", "alice@example.com", "hash")
	req.NoError(err)

	at := time.Now().UTC().Truncate(time.Second)
	req.NoError(repo.SetPresence(ctx, created.ID, true, at))

	user, err := repo.GetUserByID(ctx, created.ID)
	req.NoError(err)
	req.True(user.IsOnline)
	req.True(user.LastSeen.Equal(at))

	req.ErrorIs(repo.SetPresence(ctx, "ghost", true, at), errors.ErrNotFound)
}
