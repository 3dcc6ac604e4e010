package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"huddle/domain"
	"huddle/errors"

	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "Sup3rSecretPassw0rd!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("WrongPassword1!", hash)
	req.NoError(err)
	req.False(match)
}

func TestRegistrationValidation(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"Valid request", RegisterRequest{"alice", "test@example.com", "ComplexPass123!"}, false},
		{"Invalid email", RegisterRequest{"alice", "notanemail", "ComplexPass123!"}, true},
		{"Username too short", RegisterRequest{"al", "test@example.com", "ComplexPass123!"}, true},
		{"Password too short", RegisterRequest{"alice", "test@example.com", "Short1!"}, true},
		{"Missing digit", RegisterRequest{"alice", "test@example.com", "NoDigitPassword!"}, true},
		{"Missing special char", RegisterRequest{"alice", "test@example.com", "NoSpecialChar123"}, true},
		{"Missing uppercase", RegisterRequest{"alice", "test@example.com", "nouppercase123!!"}, true},
		{"Password too long", RegisterRequest{"alice", "test@example.com", strings.Repeat("a", 73)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.req)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	req := require.New(t)
	tm := NewTokenManager([]byte("test-signing-key"), time.Hour)

	token, err := tm.Generate("user-1", "alice")
	req.NoError(err)

	claims, err := tm.Validate(token)
	req.NoError(err)
	req.Equal("user-1", claims.UserID)
	req.Equal("alice", claims.Username)

	// Token signed with another key must be rejected
	other := NewTokenManager([]byte("another-key"), time.Hour)
	_, err = other.Validate(token)
	req.Error(err)
}

type stubUserLookup struct {
	users map[string]domain.User
}

func (s stubUserLookup) GetUserByID(_ context.Context, id string) (domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, errors.ErrNotFound
	}
	return u, nil
}

func TestAuthenticator(t *testing.T) {
	tm := NewTokenManager([]byte("test-signing-key"), time.Hour)
	lookup := stubUserLookup{users: map[string]domain.User{
		"user-1": {ID: "user-1", Username: "alice"},
	}}
	authn := NewAuthenticator(tm, lookup)
	ctx := context.Background()

	t.Run("admits a valid token for an existing user", func(t *testing.T) {
		req := require.New(t)
		token, err := tm.Generate("user-1", "alice")
		req.NoError(err)

		user, err := authn.Authenticate(ctx, token)
		req.NoError(err)
		req.Equal("alice", user.Username)
	})

	t.Run("rejects a missing token", func(t *testing.T) {
		req := require.New(t)
		_, err := authn.Authenticate(ctx, "")
		req.ErrorIs(err, errors.ErrAuthentication)
	})

	t.Run("rejects a malformed token", func(t *testing.T) {
		req := require.New(t)
		_, err := authn.Authenticate(ctx, "not.a.jwt")
		req.ErrorIs(err, errors.ErrAuthentication)
	})

	t.Run("rejects a token for a deleted user", func(t *testing.T) {
		req := require.New(t)
		token, err := tm.Generate("ghost", "ghost")
		req.NoError(err)

		_, err = authn.Authenticate(ctx, token)
		req.ErrorIs(err, errors.ErrAuthentication)
	})
}
