package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"ballotbox/internal/common"
	"ballotbox/internal/common/security"
	"ballotbox/internal/domain/model"
	"ballotbox/internal/domain/repository"

	"github.com/google/uuid"
)

// National ID numbers are exactly 12 digits.
var nationalIDPattern = regexp.MustCompile(`^\d{12}$`)

type AuthService struct {
	userRepo repository.UserRepository
}

func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

type SignupRequest struct {
	Name       string  `json:"name"`
	Age        int     `json:"age"`
	Email      *string `json:"email,omitempty"`
	Mobile     *string `json:"mobile,omitempty"`
	Address    string  `json:"address"`
	NationalID string  `json:"national_id"`
	Password   string  `json:"password"`
	Role       string  `json:"role,omitempty"` // defaults to voter
}

func (req SignupRequest) Validate() error {
	if req.Name == "" {
		return fmt.Errorf("name is required: %w", common.ErrValidation)
	}
	if req.Age <= 0 {
		return fmt.Errorf("age must be positive: %w", common.ErrValidation)
	}
	if req.Address == "" {
		return fmt.Errorf("address is required: %w", common.ErrValidation)
	}
	if req.Password == "" {
		return fmt.Errorf("password is required: %w", common.ErrValidation)
	}
	if !nationalIDPattern.MatchString(req.NationalID) {
		return fmt.Errorf("national ID number must be exactly 12 digits: %w", common.ErrValidation)
	}
	if req.Role != "" && req.Role != model.RoleVoter && req.Role != model.RoleAdmin {
		return fmt.Errorf("role must be voter or admin: %w", common.ErrValidation)
	}
	return nil
}

type LoginRequest struct {
	NationalID string `json:"national_id"`
	Password   string `json:"password"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleVoter
	}

	// Only the first admin signup may ever succeed. Checked at creation time
	// only; an existing admin is never demoted here.
	if role == model.RoleAdmin {
		exists, err := s.userRepo.AdminExists(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to check for existing admin: %w", err)
		}
		if exists {
			return nil, fmt.Errorf("admin user already exists: %w", common.ErrConflict)
		}
	}

	if _, err := s.userRepo.FindByNationalID(ctx, req.NationalID); err == nil {
		return nil, fmt.Errorf("user with the same national ID already exists: %w", common.ErrConflict)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check national ID: %w", err)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Age:            req.Age,
		Email:          req.Email,
		Mobile:         req.Mobile,
		Address:        req.Address,
		NationalID:     req.NationalID,
		HashedPassword: hashedPassword,
		Role:           role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Repo might return common.ErrConflict
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := security.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if req.NationalID == "" || req.Password == "" {
		return nil, fmt.Errorf("national ID and password are required: %w", common.ErrBadRequest)
	}

	user, err := s.userRepo.FindByNationalID(ctx, req.NationalID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Same message for unknown ID and wrong password.
			return nil, fmt.Errorf("invalid national ID or password: %w", common.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, fmt.Errorf("invalid national ID or password: %w", common.ErrUnauthorized)
	}

	token, err := security.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &LoginResponse{Token: token}, nil
}
