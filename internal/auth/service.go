package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/scrumtogether/scrumtogether-api/internal/apperrors"
	"github.com/scrumtogether/scrumtogether-api/internal/auth/password"
	"github.com/scrumtogether/scrumtogether-api/internal/logger"
	"github.com/scrumtogether/scrumtogether-api/internal/model"
	"github.com/scrumtogether/scrumtogether-api/internal/repository"
	"github.com/scrumtogether/scrumtogether-api/internal/validation"
)

// ErrUserNotFound is returned by UserStore implementations when no matching
// account exists.
var ErrUserNotFound = repository.ErrNotFound

// UserStore is the account lookup/persistence collaborator the service needs.
type UserStore interface {
	// FindByUsername returns the account with the given username, including
	// soft-deleted accounts. Returns ErrUserNotFound when absent.
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// ExistsByUsername reports whether an active (non-deleted) account holds
	// the username, matched case-insensitively.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail reports whether an active account holds the email,
	// matched case-insensitively.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create persists a new account.
	Create(ctx context.Context, user *model.User) error
}

// Config groups the authentication configuration sections.
type Config struct {
	JWT      TokenConfig     `yaml:"jwt" mapstructure:"jwt"`
	Password password.Config `yaml:"password" mapstructure:"password"`
}

// Service handles user registration and credential authentication.
type Service struct {
	users  UserStore
	hasher password.Hasher
	log    *logger.Logger
}

// NewService creates an authentication service.
func NewService(users UserStore, hasher password.Hasher) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		log:    logger.WithComponent("auth"),
	}
}

// Register creates a new account after validating the payload (including the
// password confirmation pair) and username/email uniqueness.
func (s *Service) Register(ctx context.Context, req RegistrationRequest) (*model.User, error) {
	req.Normalize()
	s.log.Debug("Processing registration request", logger.Fields(logger.FieldUsername, req.Username))

	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	username := strings.ToLower(req.Username)
	email := strings.ToLower(req.Email)

	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if taken {
		s.log.Warn("Registration failed - username already exists", logger.Fields(logger.FieldUsername, req.Username))
		return nil, apperrors.Authentication("Username already exists")
	}

	taken, err = s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if taken {
		s.log.Warn("Registration failed - email already exists", logger.Fields(logger.FieldUsername, req.Username))
		return nil, apperrors.Authentication("Email already exists")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	user := &model.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     email,
		Username:  username,
		Password:  hash,
		Role:      model.RoleDefault,
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.log.Error("Unexpected error during registration", logger.ErrorFields("register", err))
		return nil, apperrors.Authentication("Registration failed").WithCause(err)
	}

	s.log.Info("User successfully registered", logger.Fields(logger.FieldUsername, user.Username))
	return user, nil
}

// Authenticate verifies the credentials and returns the matching account.
// Unknown usernames and wrong passwords collapse into the same "Invalid
// credentials" failure so the response never discloses whether an account
// exists. Soft-deleted accounts report "Account is disabled".
func (s *Service) Authenticate(ctx context.Context, req SignInRequest) (*model.User, error) {
	s.log.Debug("Authentication attempt", logger.Fields(logger.FieldUsername, req.Username))

	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByUsername(ctx, strings.ToLower(strings.TrimSpace(req.Username)))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.log.Warn("Failed authentication attempt - unknown user", logger.Fields(logger.FieldUsername, req.Username))
			return nil, apperrors.Authentication("Invalid credentials")
		}
		s.log.Error("Unexpected error during authentication", logger.ErrorFields("authenticate", err))
		return nil, apperrors.Authentication("Authentication failed").WithCause(err)
	}

	if err := s.hasher.Verify(req.Password, user.Password); err != nil {
		s.log.Warn("Failed authentication attempt - invalid credentials", logger.Fields(logger.FieldUsername, req.Username))
		return nil, apperrors.Authentication("Invalid credentials")
	}

	if user.IsDeleted() {
		s.log.Warn("Failed authentication attempt - account is disabled", logger.Fields(logger.FieldUsername, req.Username))
		return nil, apperrors.Authentication("Account is disabled")
	}

	s.log.Info("User successfully authenticated", logger.Fields(logger.FieldUsername, user.Username))
	return user, nil
}
