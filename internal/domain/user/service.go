// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/apperr"
	"github.com/your-org/storefront-api/internal/pkg/auth"
	"github.com/your-org/storefront-api/internal/pkg/database"
	"gorm.io/gorm"
)

// Service handles user business logic
type Service struct {
	db              *gorm.DB
	config          *config.Config
	logger          *logrus.Logger
	passwordManager *auth.PasswordManager
	jwtManager      *auth.JWTManager
}

// NewService creates a new user service
func NewService(db *gorm.DB, cfg *config.Config, logger *logrus.Logger) *Service {
	return &Service{
		db:              db,
		config:          cfg,
		logger:          logger,
		passwordManager: auth.NewPasswordManager(cfg),
		jwtManager:      auth.NewJWTManager(cfg),
	}
}

// RegisterRequest represents user registration data
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	FullName        string `json:"full_name" binding:"max=255"`
	Phone           string `json:"phone" binding:"max=32"`
}

// LoginRequest represents user login data
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Register creates a new user account
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if req.Password != req.ConfirmPassword {
		return nil, apperr.New(apperr.KindInvalidInput, "user", "passwords do not match")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, apperr.New(apperr.KindConflict, "user", "user with this email already exists")
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Email:    email,
		Password: hashedPassword,
		FullName: strings.TrimSpace(req.FullName),
		Phone:    strings.TrimSpace(req.Phone),
		IsActive: true,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, database.Classify(fmt.Errorf("failed to create user: %w", err))
	}

	s.logger.WithField("user_id", user.ID).Info("User registered")

	return s.issueTokens(ctx, &user)
}

// Login authenticates a user
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	var user User
	err := s.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(req.Email)), true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindUnauthorized, "user", "invalid email or password")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.passwordManager.VerifyPassword(req.Password, user.Password); err != nil {
		return nil, apperr.New(apperr.KindUnauthorized, "user", "invalid email or password")
	}

	return s.issueTokens(ctx, &user)
}

// RefreshToken generates new tokens using refresh token
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindUnauthorized, "user", "invalid refresh token")
	}

	user, err := s.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.New(apperr.KindUnauthorized, "user", "user not found or inactive")
		}
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// GetByID loads an active user
func (s *Service) GetByID(ctx context.Context, userID uint) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", userID, true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user", userID)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	user.Password = ""
	return &user, nil
}

func (s *Service) issueTokens(ctx context.Context, user *User) (*AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.IsStaff)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	// Update last login
	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(user).UpdateColumn("last_login_at", now).Error; err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}
	user.LastLoginAt = &now

	// Clear password from response
	user.Password = ""

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.JWT.AccessTokenExpiry.Seconds()),
	}, nil
}
