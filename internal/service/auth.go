package service

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/artup/artup-api/internal/crypto"
	"github.com/artup/artup-api/internal/model"
	"github.com/artup/artup-api/internal/repository"
)

var (
	ErrUsernameTooShort = errors.New("username must be at least 6 characters")
	ErrUsernameTooLong  = errors.New("username must be at most 255 characters")
	ErrNameTooShort     = errors.New("name must be at least 6 characters")
	ErrNameTooLong      = errors.New("name must be at most 255 characters")
	ErrInvalidEmail     = errors.New("email is not valid")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrBioTooLong       = errors.New("bio must be at most 412 characters")
	ErrNoSettings       = errors.New("no settings provided")

	ErrUserTaken     = errors.New("username or e-mail is taken")
	ErrUsernameTaken = errors.New("username is taken")
	ErrEmailTaken    = errors.New("e-mail is taken")

	ErrNotRegistered   = errors.New("user not registered")
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("could not find user")
)

// UserRepository is the persistence contract the auth service depends on.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByLogin(ctx context.Context, login string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Exists(ctx context.Context, username, email string) (bool, error)
	UpdateSettings(ctx context.Context, id string, patch model.UserPatch) error
	RecordLogin(ctx context.Context, id string, stamp model.LoginStamp) error
}

// AuthService handles registration, login and profile business logic.
type AuthService struct {
	repo      UserRepository
	jwtSecret string
	jwtExpiry time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo UserRepository, secret string, expiry time.Duration) *AuthService {
	return &AuthService{
		repo:      repo,
		jwtSecret: secret,
		jwtExpiry: expiry,
	}
}

// Register creates a new user account. The client IP and agent string
// are recorded on the row; the stored password is only ever a hash.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest, ip, agent string) (*model.User, error) {
	if err := validateUsername(req.Username); err != nil {
		return nil, err
	}
	if len(req.Name) < 6 {
		return nil, ErrNameTooShort
	}
	if len(req.Name) > 255 {
		return nil, ErrNameTooLong
	}
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}
	if len(req.Password) < 6 {
		return nil, ErrPasswordTooShort
	}
	if len(req.Bio) > 412 {
		return nil, ErrBioTooLong
	}
	if err := validateTags(req.Tags); err != nil {
		return nil, err
	}

	// Fast-path rejection only; the unique indexes are what actually
	// close the race between two concurrent registrations.
	exists, err := s.repo.Exists(ctx, req.Username, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserTaken
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Bio:          req.Bio,
		Tags:         req.Tags,
		AvatarURL:    req.AvatarURL,
		LastIP:       ip,
		UserAgent:    agent,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, ErrUserTaken
		}
		return nil, err
	}

	return user, nil
}

// Login authenticates a user by username or email and returns a signed
// token. On success the last-login timestamp, IP and agent are updated.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest, ip, agent string) (string, error) {
	if req.Username == "" || req.Password == "" {
		return "", ErrInvalidPassword
	}

	user, err := s.repo.GetByLogin(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrNotRegistered
		}
		return "", err
	}

	match, err := crypto.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return "", err
	}
	if !match {
		return "", ErrInvalidPassword
	}

	token, err := crypto.GenerateToken(user.ID, user.Username, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return "", err
	}

	stamp := model.LoginStamp{IP: ip, UserAgent: agent, At: time.Now().UTC()}
	if err := s.repo.RecordLogin(ctx, user.ID, stamp); err != nil {
		return "", err
	}

	return token, nil
}

// GetPublicProfile returns the public projection of a user.
func (s *AuthService) GetPublicProfile(ctx context.Context, id string) (model.PublicProfile, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.PublicProfile{}, ErrUserNotFound
		}
		return model.PublicProfile{}, err
	}

	return user.PublicProfile(), nil
}

// GetFullProfile returns the complete record for the account owner.
// The password hash is excluded from serialization by the model.
func (s *AuthService) GetFullProfile(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// UpdateSettings applies a settings patch for the account owner.
// Username and email changes are rejected when another account already
// holds the value; a new password is re-hashed before storage.
func (s *AuthService) UpdateSettings(ctx context.Context, id string, req model.UpdateSettingsRequest) error {
	var patch model.UserPatch

	if req.Username != "" {
		if err := validateUsername(req.Username); err != nil {
			return err
		}

		holder, err := s.repo.GetByUsername(ctx, req.Username)
		switch {
		case err == nil && holder.ID != id:
			return ErrUsernameTaken
		case err != nil && !errors.Is(err, repository.ErrUserNotFound):
			return err
		}
		patch.Username = &req.Username
	}

	if req.Email != "" {
		if err := validateEmail(req.Email); err != nil {
			return err
		}

		holder, err := s.repo.GetByEmail(ctx, req.Email)
		switch {
		case err == nil && holder.ID != id:
			return ErrEmailTaken
		case err != nil && !errors.Is(err, repository.ErrUserNotFound):
			return err
		}
		patch.Email = &req.Email
	}

	if req.Password != "" {
		if len(req.Password) < 6 {
			return ErrPasswordTooShort
		}
		hash, err := crypto.HashPassword(req.Password)
		if err != nil {
			return err
		}
		patch.PasswordHash = &hash
	}

	if patch.Empty() {
		return ErrNoSettings
	}

	if err := s.repo.UpdateSettings(ctx, id, patch); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUser):
			return ErrUserTaken
		case errors.Is(err, repository.ErrUserNotFound):
			return ErrUserNotFound
		}
		return err
	}

	return nil
}

func validateUsername(username string) error {
	if len(username) < 6 {
		return ErrUsernameTooShort
	}
	if len(username) > 255 {
		return ErrUsernameTooLong
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" || len(email) > 255 {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}
