package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/authcraft/account-service/internal/domain"
	"github.com/authcraft/account-service/internal/mailer"
	"github.com/authcraft/account-service/internal/repo/postgres"
	"github.com/authcraft/account-service/pkg/auth"
	"github.com/authcraft/account-service/pkg/config"
	"github.com/authcraft/account-service/pkg/events"
	"github.com/authcraft/account-service/pkg/logger"
)

// OTPService drives the password-reset sequence: request a code, verify
// it for a reset token, then set a new password with that token.
type OTPService interface {
	RequestCode(ctx context.Context, req *domain.SendOTPRequest) error
	VerifyCode(ctx context.Context, req *domain.VerifyOTPRequest) (string, error)
	ResetPassword(ctx context.Context, email string, req *domain.ResetPasswordRequest) error
}

type otpService struct {
	userRepo postgres.UserRepository
	mailer   mailer.Service
	eventBus events.Publisher
	config   *config.Config
}

func NewOTPService(userRepo postgres.UserRepository, mailer mailer.Service, eventBus events.Publisher, config *config.Config) OTPService {
	return &otpService{
		userRepo: userRepo,
		mailer:   mailer,
		eventBus: eventBus,
		config:   config,
	}
}

// RequestCode fails unless exactly one account matches the email. The
// code is persisted before delivery is attempted, so a reported mail
// failure never leaves the user with a stale "sent" confirmation.
func (s *otpService) RequestCode(ctx context.Context, req *domain.SendOTPRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}

	count, err := s.userRepo.CountByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("failed to look up email: %w", err)
	}
	if count != 1 {
		return domain.ErrNotFound
	}

	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	if err := s.userRepo.SetOTP(ctx, req.Email, code); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	if err := s.mailer.SendOTPEmail(req.Email, code); err != nil {
		logger.ErrorContext(ctx, "Failed to send OTP email", "error", err, "email", req.Email)
		return domain.ErrDeliveryFailed
	}

	s.publish(ctx, events.OTPRequested, events.OTPRequestedEvent{
		Email:       req.Email,
		RequestedAt: time.Now(),
	})

	return nil
}

// VerifyCode consumes the stored code on a successful match and issues
// a reset-scoped token. A consumed code can never verify again.
func (s *otpService) VerifyCode(ctx context.Context, req *domain.VerifyOTPRequest) (string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return "", err
	}

	ok, err := s.userRepo.ConsumeOTP(ctx, req.Email, req.OTP)
	if err != nil {
		return "", fmt.Errorf("failed to verify otp: %w", err)
	}
	if !ok {
		return "", domain.ErrInvalidOTP
	}

	token, err := auth.NewResetToken(req.Email, s.config.Auth.JWTSecret, s.config.Auth.TokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to create reset token: %w", err)
	}

	return token, nil
}

// ResetPassword sets a new password for the identity proven by a reset
// token. No session token is issued; the client must log in again.
func (s *otpService) ResetPassword(ctx context.Context, email string, req *domain.ResetPasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	hash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.SetPasswordHash(ctx, email, hash); err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}

	s.publish(ctx, events.PasswordReset, events.PasswordResetEvent{
		Email:   email,
		ResetAt: time.Now(),
	})

	return nil
}

func (s *otpService) publish(ctx context.Context, subject string, data interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, subject, data); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}

// generateOTP returns a 4-digit code uniformly random in [1000, 9999].
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+1000), nil
}
