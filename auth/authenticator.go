package auth

import (
	"context"
	"fmt"

	"huddle/domain"
	"huddle/errors"
)

// UserLookup resolves a user identity against the account store.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
}

// Authenticator admits or rejects a connection before any other component
// observes it. It verifies the bearer token and resolves the user record so
// presence entries carry a display name.
type Authenticator struct {
	tokens *TokenManager
	users  UserLookup
}

func NewAuthenticator(tokens *TokenManager, users UserLookup) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Authenticate validates connection-time credentials and returns the verified
// user. Every failure mode collapses into ErrAuthentication: callers reject
// the connection without distinguishing why.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, fmt.Errorf("%w: missing token", errors.ErrAuthentication)
	}

	claims, err := a.tokens.Validate(token)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", errors.ErrAuthentication, err)
	}

	user, err := a.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: unknown user", errors.ErrAuthentication)
	}
	return user, nil
}
