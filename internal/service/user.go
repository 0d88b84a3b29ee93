package service

import (
	"context"
	"fmt"

	"briefcase/internal/model"
	"briefcase/internal/repository"
)

type UserService interface {
	Me(ctx context.Context, id int64) (*model.User, error)
	// ListOthers returns every user but id, for picking a recipient.
	ListOthers(ctx context.Context, id int64) ([]model.User, error)
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) Me(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pkg+"Me", err)
	}
	return u, nil
}

func (s *userService) ListOthers(ctx context.Context, id int64) ([]model.User, error) {
	users, err := s.users.ListExcept(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pkg+"ListOthers", err)
	}
	return users, nil
}
