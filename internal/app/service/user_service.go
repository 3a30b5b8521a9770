package service

import (
	"context"
	"fmt"

	"ballotbox/internal/common"
	"ballotbox/internal/common/security"
	"ballotbox/internal/domain/model"
	"ballotbox/internal/domain/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *UserService) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	user.HashedPassword = ""
	return user, nil
}

// ChangePassword verifies the current password before rehashing the new one
// with a fresh salt.
func (s *UserService) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	if req.NewPassword == "" {
		return fmt.Errorf("new password is required: %w", common.ErrValidation)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.CurrentPassword, user.HashedPassword) {
		return fmt.Errorf("current password does not match: %w", common.ErrUnauthorized)
	}

	hashedPassword, err := security.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
