package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atcdrive/drive/internal/model"
	"github.com/atcdrive/drive/internal/repository"
	"github.com/atcdrive/drive/internal/validation"
	"github.com/google/uuid"
)

var (
	ErrSelfDelete = errors.New("cannot delete your own account")
)

// UserUpdate carries the fields an admin may change. Nil fields are
// left untouched.
type UserUpdate struct {
	Username *string
	Email    *string
	Password *string
	Role     *string
	IsActive *bool
}

// UserService covers admin user management. Self-service flows
// (register, login, password reset) live in AuthService.
type UserService struct {
	userRepo repository.UserRepository
	auth     *AuthService
}

func NewUserService(userRepo repository.UserRepository, auth *AuthService) *UserService {
	return &UserService{userRepo: userRepo, auth: auth}
}

func (s *UserService) ByID(id string) (*model.User, error) {
	return s.userRepo.ByID(id)
}

// Create makes an account with any role. Admin only.
func (s *UserService) Create(admin *model.User, username, email, password, role string) (*model.User, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))

	err := validation.ValidateUsername(username)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	err = validation.ValidateEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}
	err = validation.ValidatePassword(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	parsed, err := model.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         parsed,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.userRepo.Create(user)
	if err != nil {
		return nil, err
	}

	slog.Info("user created by admin", "user_id", user.ID, "role", parsed, "admin_id", admin.ID)
	return user, nil
}

// List pages through all accounts. Admin only.
func (s *UserService) List(admin *model.User, offset, limit int) ([]*model.User, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}

	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	return s.userRepo.List(offset, limit)
}

// Update applies an admin edit to an account.
func (s *UserService) Update(admin *model.User, id string, update UserUpdate) (*model.User, error) {
	if !admin.IsAdmin() {
		return nil, ErrForbidden
	}

	user, err := s.userRepo.ByID(id)
	if err != nil {
		return nil, err
	}

	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		err = validation.ValidateUsername(username)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
		}
		user.Username = username
	}

	if update.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*update.Email))
		err = validation.ValidateEmail(email)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
		}
		user.Email = email
	}

	if update.Password != nil {
		err = validation.ValidatePassword(*update.Password)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
		}
		hash, err := s.auth.HashPassword(*update.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if update.Role != nil {
		parsed, err := model.ParseRole(*update.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
		}
		user.Role = parsed
	}

	if update.IsActive != nil {
		user.IsActive = *update.IsActive
	}

	user.UpdatedAt = time.Now()
	err = s.userRepo.Update(user)
	if err != nil {
		return nil, err
	}

	slog.Info("user updated by admin", "user_id", user.ID, "admin_id", admin.ID)
	return user, nil
}

// Delete removes an account. Admin only, and admins can never delete
// themselves.
func (s *UserService) Delete(admin *model.User, id string) error {
	if !admin.IsAdmin() {
		return ErrForbidden
	}

	if admin.ID == id {
		return ErrSelfDelete
	}

	err := s.userRepo.Delete(id)
	if err != nil {
		return err
	}

	slog.Info("user deleted by admin", "user_id", id, "admin_id", admin.ID)
	return nil
}
