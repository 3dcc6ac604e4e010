package services

import (
	"context"
	"fmt"

	"huddle/auth"
	"huddle/domain"
	"huddle/errors"
	"huddle/repositories"
)

type IAuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (domain.User, string, error)
	Login(ctx context.Context, req auth.LoginRequest) (domain.User, string, error)
}

type AuthService struct {
	users  repositories.IUserRepository
	tokens *auth.TokenManager
}

func NewAuthService(users repositories.IUserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, req auth.RegisterRequest) (domain.User, string, error) {
	// 1. Validate business rules before any expensive cryptographic work.
	if err := auth.ValidateRegister(req); err != nil {
		return domain.User{}, "", fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}

	// 2. Hash here so the repository never sees a plain password.
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist; propagates ErrUserAlreadyExists on duplicates.
	user, err := s.users.CreateUser(ctx, req.Username, req.Email, hash)
	if err != nil {
		return domain.User{}, "", err
	}

	// 4. Issue the initial session token.
	token, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return domain.User{}, "", errors.ErrTokenGeneration
	}
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, req auth.LoginRequest) (domain.User, string, error) {
	if err := auth.ValidateLogin(req); err != nil {
		return domain.User{}, "", fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}

	// A generic error on any failure prevents user enumeration.
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		return domain.User{}, "", errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return domain.User{}, "", errors.ErrTokenGeneration
	}
	return user, token, nil
}
