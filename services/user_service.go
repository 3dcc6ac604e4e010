package services

import (
	"context"
	"fmt"

	"huddle/domain"
	"huddle/errors"
	"huddle/repositories"

	"github.com/samber/lo"
)

type IUserService interface {
	Get(ctx context.Context, id string) (domain.PublicUser, error)
	List(ctx context.Context) ([]domain.PublicUser, error)
	Search(ctx context.Context, query string) ([]domain.PublicUser, error)
}

type UserService struct {
	users repositories.IUserRepository
}

func NewUserService(users repositories.IUserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Get(ctx context.Context, id string) (domain.PublicUser, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return domain.PublicUser{}, err
	}
	return user.Public(), nil
}

func (s *UserService) List(ctx context.Context) ([]domain.PublicUser, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	return toPublic(users), nil
}

func (s *UserService) Search(ctx context.Context, query string) ([]domain.PublicUser, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", errors.ErrValidation)
	}
	users, err := s.users.SearchUsers(ctx, query)
	if err != nil {
		return nil, err
	}
	return toPublic(users), nil
}

func toPublic(users []domain.User) []domain.PublicUser {
	return lo.Map(users, func(u domain.User, _ int) domain.PublicUser {
		return u.Public()
	})
}
