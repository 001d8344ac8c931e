package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"swiftride/internal/domain"
	"swiftride/internal/repository"
)

// UserService handles rider registration and lookup.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// RegisterUser creates a new rider account.
func (s *UserService) RegisterUser(ctx context.Context, name, phone string) (*domain.User, error) {
	if name == "" || phone == "" {
		return nil, E(KindValidation, "user name and phone are required")
	}

	user := &domain.User{
		ID:        uuid.New().String(),
		Name:      name,
		Phone:     phone,
		CreatedAt: time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, E(KindConflict, "phone number already registered")
		}
		return nil, err
	}
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, E(KindValidation, "invalid user id")
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
