package auth

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avolkov/libris/internal/config"
	"github.com/avolkov/libris/internal/entities"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrInvalidRole      = errors.New("invalid role")
	ErrUsernameRequired = errors.New("username is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
)

// Service handles staff authentication and account management.
type Service struct {
	db     *gorm.DB
	issuer *TokenIssuer
	config config.Auth
}

func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{
		db:     db,
		issuer: NewTokenIssuer(cfg.SigningKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		config: cfg,
	}
}

// CreateUser creates a new staff account.
func (s *Service) CreateUser(username, password string, role entities.UserRole) (*entities.User, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}
	switch role {
	case entities.RoleAdmin, entities.RoleLibrarian:
	default:
		return nil, ErrInvalidRole
	}

	var existing entities.User
	err := s.db.Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login validates credentials and issues a token pair.
func (s *Service) Login(username, password string) (*TokenPair, error) {
	var user entities.User
	err := s.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		return nil, err
	}
	return s.issuer.IssuePair(&user)
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *Service) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.issuer.Validate(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	// Re-read the user so a deleted account or changed role takes
	// effect at the next refresh.
	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	return s.issuer.IssuePair(user)
}

// ValidateAccessToken checks a bearer token from the Authorization header.
func (s *Service) ValidateAccessToken(token string) (*Claims, error) {
	return s.issuer.Validate(token, TokenTypeAccess)
}

func (s *Service) GetUserByID(id uuid.UUID) (*entities.User, error) {
	var user entities.User
	err := s.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// HasUsers returns true if any staff accounts exist.
func (s *Service) HasUsers() (bool, error) {
	var count int64
	err := s.db.Model(&entities.User{}).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// EnsureAdmin creates the bootstrap admin account on first start. It is a
// no-op when users already exist or no bootstrap password is configured.
func (s *Service) EnsureAdmin() error {
	if s.config.Mode != config.AuthModeLocal || s.config.AdminPassword == "" {
		return nil
	}
	exists, err := s.HasUsers()
	if err != nil || exists {
		return err
	}
	_, err = s.CreateUser(s.config.AdminUsername, s.config.AdminPassword, entities.RoleAdmin)
	return err
}

// IsAuthEnabled returns true if authentication is required.
func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode == config.AuthModeLocal
}
