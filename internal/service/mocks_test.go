package service_test

import (
	"context"
	"time"

	"github.com/authcraft/account-service/internal/domain"
	"github.com/authcraft/account-service/pkg/config"
)

// ---------- Mocks ----------

type mockUserRepo struct {
	nextID int64
	users  map[string]*domain.User
	err    error // forced error for failure-path tests
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, req *domain.RegisterRequest, passwordHash string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if _, exists := m.users[req.Email]; exists {
		return nil, domain.ErrDuplicateEmail
	}
	m.nextID++
	now := time.Now()
	u := &domain.User{
		ID:           m.nextID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Mobile:       req.Mobile,
		PasswordHash: passwordHash,
		OTP:          domain.OTPConsumed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[req.Email] = u
	return u, nil
}

func (m *mockUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, exists := m.users[email]
	if !exists {
		return nil, nil
	}
	return u, nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, email string, req *domain.UpdateProfileRequest) error {
	u, exists := m.users[email]
	if !exists {
		return domain.ErrNotFound
	}
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.Mobile != nil {
		u.Mobile = *req.Mobile
	}
	u.UpdatedAt = time.Now()
	return nil
}

func (m *mockUserRepo) SetOTP(_ context.Context, email, code string) error {
	u, exists := m.users[email]
	if !exists {
		return domain.ErrNotFound
	}
	u.OTP = code
	u.UpdatedAt = time.Now()
	return nil
}

func (m *mockUserRepo) SetPasswordHash(_ context.Context, email, hash string) error {
	u, exists := m.users[email]
	if !exists {
		return domain.ErrNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now()
	return nil
}

func (m *mockUserRepo) CountByEmail(_ context.Context, email string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if _, exists := m.users[email]; exists {
		return 1, nil
	}
	return 0, nil
}

func (m *mockUserRepo) ConsumeOTP(_ context.Context, email, code string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	u, exists := m.users[email]
	if !exists {
		return false, nil
	}
	if u.OTP == domain.OTPConsumed || u.OTP != code {
		return false, nil
	}
	u.OTP = domain.OTPConsumed
	u.UpdatedAt = time.Now()
	return true, nil
}

type mockMailer struct {
	lastTo   string
	lastCode string
	sendErr  error
}

func (m *mockMailer) SendOTPEmail(toEmail, code string) error {
	m.lastTo = toEmail
	m.lastCode = code
	return m.sendErr
}

type mockPublisher struct {
	subjects []string
}

func (m *mockPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret: "test-secret",
			TokenTTL:  30 * 24 * time.Hour,
		},
	}
}
