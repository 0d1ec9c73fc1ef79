package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/authcraft/account-service/internal/domain"
	"github.com/authcraft/account-service/internal/repo/postgres"
	"github.com/authcraft/account-service/pkg/auth"
	"github.com/authcraft/account-service/pkg/config"
	"github.com/authcraft/account-service/pkg/events"
	"github.com/authcraft/account-service/pkg/logger"
)

type AccountService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, req *domain.LoginRequest) (string, error)
	Profile(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, email string, req *domain.UpdateProfileRequest) error
}

type accountService struct {
	userRepo postgres.UserRepository
	eventBus events.Publisher
	config   *config.Config
}

func NewAccountService(userRepo postgres.UserRepository, eventBus events.Publisher, config *config.Config) AccountService {
	return &accountService{
		userRepo: userRepo,
		eventBus: eventBus,
		config:   config,
	}
}

func (s *accountService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicateEmail
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, req, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		CreatedAt: user.CreatedAt,
	})

	return user, nil
}

// Login reports the same error whether the email is unknown or the
// password is wrong, so callers cannot enumerate accounts.
func (s *accountService) Login(ctx context.Context, req *domain.LoginRequest) (string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return "", err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", domain.ErrInvalidCredentials
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return "", domain.ErrInvalidCredentials
	}

	token, err := auth.NewSessionToken(user.ID, user.Email, s.config.Auth.JWTSecret, s.config.Auth.TokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to create session token: %w", err)
	}

	return token, nil
}

func (s *accountService) Profile(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (s *accountService) UpdateProfile(ctx context.Context, email string, req *domain.UpdateProfileRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}

	if err := s.userRepo.UpdateProfile(ctx, email, req); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	var changes []string
	if req.FirstName != nil {
		changes = append(changes, "firstName")
	}
	if req.LastName != nil {
		changes = append(changes, "lastName")
	}
	if req.Mobile != nil {
		changes = append(changes, "mobile")
	}
	s.publish(ctx, events.UserUpdated, events.UserUpdatedEvent{
		Email:     email,
		Changes:   changes,
		UpdatedAt: time.Now(),
	})

	return nil
}

// publish is fire-and-forget; event bus failures never fail the request.
func (s *accountService) publish(ctx context.Context, subject string, data interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, subject, data); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
