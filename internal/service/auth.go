package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atcdrive/drive/internal/model"
	"github.com/atcdrive/drive/internal/repository"
	"github.com/atcdrive/drive/internal/validation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("incorrect username/email or password")
	ErrInactiveUser       = errors.New("account is inactive")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

type AuthService struct {
	userRepo         repository.UserRepository
	emailService     *EmailService
	jwtSecret        string
	jwtExpiry        time.Duration
	resetTokenExpiry time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	emailService *EmailService,
	jwtSecret string,
	jwtExpiry time.Duration,
	resetTokenExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		emailService:     emailService,
		jwtSecret:        jwtSecret,
		jwtExpiry:        jwtExpiry,
		resetTokenExpiry: resetTokenExpiry,
	}
}

// Register creates a self-service account. The role is always viewer;
// privileged roles are only handed out by admins.
func (s *AuthService) Register(username, email, password string) (*model.User, error) {
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

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleViewer,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.userRepo.Create(user)
	if err != nil {
		return nil, err
	}

	err = s.emailService.SendWelcomeEmail(user.Email, user.Username)
	if err != nil {
		// Registration succeeded; the welcome mail is best-effort
		slog.Warn("failed to send welcome email", "error", err, "email", user.Email)
	}

	slog.Info("user registered", "user_id", user.ID, "username", username)
	return user, nil
}

// Login verifies a credential against a username or email handle.
func (s *AuthService) Login(handle, password string) (*model.User, error) {
	handle = strings.TrimSpace(handle)

	user, err := s.userRepo.ByUsernameOrEmail(handle)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrInactiveUser
	}

	return user, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// GenerateJWT mints a bearer token carrying the user id and expiry.
func (s *AuthService) GenerateJWT(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"username": user.Username,
		"exp":      now.Add(s.jwtExpiry).Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(s.jwtSecret))
}

// VerifyJWT validates a bearer token and returns the subject user id.
func (s *AuthService) VerifyJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrTokenInvalid
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrTokenInvalid
	}

	return sub, nil
}

// generateResetToken returns a random token for password resets.
func generateResetToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// ForgotPassword issues a reset token and mails it. It never reveals
// whether the email has an account: unknown addresses succeed quietly
// with no token issued and no mail sent. If the mail fails to send,
// the issued token is rolled back so no dangling valid token remains.
func (s *AuthService) ForgotPassword(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepo.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			slog.Info("password reset requested for unknown email", "email", email)
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	expires := time.Now().Add(s.resetTokenExpiry)
	user.ResetToken = &token
	user.ResetTokenExpires = &expires
	user.UpdatedAt = time.Now()

	err = s.userRepo.Update(user)
	if err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}

	err = s.emailService.SendPasswordResetEmail(user.Email, token, user.Username)
	if err != nil {
		slog.Error("failed to send reset email, rolling back token", "error", err, "user_id", user.ID)

		user.ResetToken = nil
		user.ResetTokenExpires = nil
		rollbackErr := s.userRepo.Update(user)
		if rollbackErr != nil {
			slog.Error("failed to roll back reset token", "error", rollbackErr, "user_id", user.ID)
		}
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	slog.Info("password reset token issued", "user_id", user.ID)
	return nil
}

// ResetPassword rotates the credential when the presented token
// matches and has not expired, then clears the token.
func (s *AuthService) ResetPassword(email, token, newPassword string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepo.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasValidResetToken(token, time.Now()) {
		return ErrInvalidResetToken
	}

	err = validation.ValidatePassword(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = hash
	user.ResetToken = nil
	user.ResetTokenExpires = nil
	user.UpdatedAt = time.Now()

	err = s.userRepo.Update(user)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	slog.Info("password reset completed", "user_id", user.ID)
	return nil
}
