package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/authcraft/account-service/internal/domain"
	"github.com/authcraft/account-service/internal/http/handlers"
	"github.com/authcraft/account-service/internal/service"
	"github.com/authcraft/account-service/pkg/auth"
	"github.com/authcraft/account-service/pkg/config"
)

// ---------- Mocks ----------

type mockUserRepo struct {
	nextID int64
	users  map[string]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, req *domain.RegisterRequest, passwordHash string) (*domain.User, error) {
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
	return nil
}

func (m *mockUserRepo) SetOTP(_ context.Context, email, code string) error {
	u, exists := m.users[email]
	if !exists {
		return domain.ErrNotFound
	}
	u.OTP = code
	return nil
}

func (m *mockUserRepo) SetPasswordHash(_ context.Context, email, hash string) error {
	u, exists := m.users[email]
	if !exists {
		return domain.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockUserRepo) CountByEmail(_ context.Context, email string) (int, error) {
	if _, exists := m.users[email]; exists {
		return 1, nil
	}
	return 0, nil
}

func (m *mockUserRepo) ConsumeOTP(_ context.Context, email, code string) (bool, error) {
	u, exists := m.users[email]
	if !exists || u.OTP == domain.OTPConsumed || u.OTP != code {
		return false, nil
	}
	u.OTP = domain.OTPConsumed
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

// ---------- Test Setup ----------

const testSecret = "test-secret"

func setupTestServer() (*httptest.Server, *mockUserRepo, *mockMailer) {
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret: testSecret,
			TokenTTL:  30 * 24 * time.Hour,
		},
	}

	repo := newMockUserRepo()
	mail := &mockMailer{}

	accountService := service.NewAccountService(repo, nil, cfg)
	otpService := service.NewOTPService(repo, mail, nil, cfg)
	h := handlers.New(accountService, otpService, cfg)

	r := chi.NewRouter()
	r.Mount("/", h.Routes(nil))

	return httptest.NewServer(r), repo, mail
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func postJSON(t *testing.T, url string, data interface{}, cookie *http.Cookie, expectedStatus int) envelope {
	t.Helper()

	body, _ := json.Marshal(data)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != expectedStatus {
		t.Fatalf("POST %s: expected status %d, got %d", url, expectedStatus, resp.StatusCode)
	}

	var env envelope
	json.NewDecoder(resp.Body).Decode(&env)
	return env
}

func tokenCookie(t *testing.T, url string, data interface{}) *http.Cookie {
	t.Helper()

	body, _ := json.Marshal(data)
	resp, err := http.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatalf("POST %s: no token cookie in response", url)
	return nil
}

func registerAlice(t *testing.T, serverURL string) {
	t.Helper()

	env := postJSON(t, serverURL+"/user-registration", map[string]string{
		"firstName": "Alice",
		"lastName":  "Smith",
		"email":     "alice@x.com",
		"mobile":    "5551234",
		"password":  "secret",
	}, nil, http.StatusOK)
	if env.Status != "success" {
		t.Fatalf("registration failed: %s", env.Message)
	}
}

// ---------- Tests ----------

func TestRegistration(t *testing.T) {
	server, _, _ := setupTestServer()
	defer server.Close()

	registerAlice(t, server.URL)

	t.Run("duplicate email fails", func(t *testing.T) {
		env := postJSON(t, server.URL+"/user-registration", map[string]string{
			"firstName": "Alice",
			"lastName":  "Smith",
			"email":     "alice@x.com",
			"mobile":    "5551234",
			"password":  "secret",
		}, nil, http.StatusOK)
		if env.Status != "fail" {
			t.Fatalf("expected fail, got %s", env.Status)
		}
		if env.Message != "User with this email already exists" {
			t.Fatalf("unexpected message: %q", env.Message)
		}
	})

	t.Run("validation message surfaces field constraint", func(t *testing.T) {
		env := postJSON(t, server.URL+"/user-registration", map[string]string{
			"firstName": "",
			"lastName":  "Smith",
			"email":     "bob@x.com",
			"mobile":    "5551234",
			"password":  "secret",
		}, nil, http.StatusOK)
		if env.Status != "fail" {
			t.Fatalf("expected fail, got %s", env.Status)
		}
		if env.Message != "firstName must be between 1 and 25 characters" {
			t.Fatalf("unexpected message: %q", env.Message)
		}
	})
}

func TestLogin(t *testing.T) {
	server, _, _ := setupTestServer()
	defer server.Close()

	registerAlice(t, server.URL)

	t.Run("success sets session token cookie", func(t *testing.T) {
		cookie := tokenCookie(t, server.URL+"/user-login", map[string]string{
			"email":    "alice@x.com",
			"password": "secret",
		})

		claims, err := auth.Verify(cookie.Value, auth.PurposeSession, testSecret)
		if err != nil {
			t.Fatalf("cookie is not a valid session token: %v", err)
		}
		if claims.Email != "alice@x.com" {
			t.Fatalf("token email mismatch: %q", claims.Email)
		}
		if cookie.MaxAge != int((30 * 24 * time.Hour).Seconds()) {
			t.Fatalf("expected 30-day cookie, got MaxAge %d", cookie.MaxAge)
		}
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		wrongPass := postJSON(t, server.URL+"/user-login", map[string]string{
			"email":    "alice@x.com",
			"password": "wrong1",
		}, nil, http.StatusOK)
		unknown := postJSON(t, server.URL+"/user-login", map[string]string{
			"email":    "nobody@x.com",
			"password": "secret",
		}, nil, http.StatusOK)

		if wrongPass.Status != "fail" || unknown.Status != "fail" {
			t.Fatalf("expected both fail, got %s / %s", wrongPass.Status, unknown.Status)
		}
		if wrongPass.Message != "Invalid email or password" || wrongPass.Message != unknown.Message {
			t.Fatalf("messages differ or unexpected: %q vs %q", wrongPass.Message, unknown.Message)
		}
	})
}

func TestProfile(t *testing.T) {
	server, _, _ := setupTestServer()
	defer server.Close()

	registerAlice(t, server.URL)
	session := tokenCookie(t, server.URL+"/user-login", map[string]string{
		"email":    "alice@x.com",
		"password": "secret",
	})

	t.Run("returns user for the token identity", func(t *testing.T) {
		req, _ := http.NewRequest("GET", server.URL+"/user-profile", nil)
		req.AddCookie(session)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var env envelope
		json.NewDecoder(resp.Body).Decode(&env)
		if env.Status != "success" {
			t.Fatalf("expected success, got %s (%s)", env.Status, env.Message)
		}

		var user struct {
			Email     string `json:"email"`
			FirstName string `json:"firstName"`
		}
		json.Unmarshal(env.Data, &user)
		if user.Email != "alice@x.com" || user.FirstName != "Alice" {
			t.Fatalf("unexpected profile data: %s", env.Data)
		}
	})

	t.Run("requires a token", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/user-profile")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
		}
	})

	t.Run("rejects reset-purpose tokens", func(t *testing.T) {
		reset, err := auth.NewResetToken("alice@x.com", testSecret, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		req, _ := http.NewRequest("GET", server.URL+"/user-profile", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: reset})
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 for reset token on session route, got %d", resp.StatusCode)
		}
	})
}

func TestUpdateProfile(t *testing.T) {
	server, repo, _ := setupTestServer()
	defer server.Close()

	registerAlice(t, server.URL)
	session := tokenCookie(t, server.URL+"/user-login", map[string]string{
		"email":    "alice@x.com",
		"password": "secret",
	})

	t.Run("partial update", func(t *testing.T) {
		env := postJSON(t, server.URL+"/user-update", map[string]string{
			"mobile": "5559999",
		}, session, http.StatusOK)
		if env.Status != "success" || env.Message != "Profile Updated Successfully" {
			t.Fatalf("unexpected response: %s / %q", env.Status, env.Message)
		}

		u := repo.users["alice@x.com"]
		if u.Mobile != "5559999" || u.FirstName != "Alice" {
			t.Fatalf("unexpected user after update: %+v", u)
		}
	})

	t.Run("password field is rejected", func(t *testing.T) {
		env := postJSON(t, server.URL+"/user-update", map[string]string{
			"password": "sneaky",
		}, session, http.StatusOK)
		if env.Status != "fail" {
			t.Fatalf("expected fail, got %s", env.Status)
		}
		if env.Message != "password cannot be changed here; use the password reset flow" {
			t.Fatalf("unexpected message: %q", env.Message)
		}
	})
}

var fourDigits = regexp.MustCompile(`^[0-9]{4}$`)

// Full reset sequence end to end: send-otp, verify-otp,
// reset-password, then log in with the new password.
func TestPasswordResetFlow(t *testing.T) {
	server, repo, mail := setupTestServer()
	defer server.Close()

	registerAlice(t, server.URL)

	t.Run("send-otp unknown email answers 401", func(t *testing.T) {
		env := postJSON(t, server.URL+"/send-otp", map[string]string{
			"email": "nobody@x.com",
		}, nil, http.StatusUnauthorized)
		if env.Status != "fail" || env.Message != "Invalid Email Address" {
			t.Fatalf("unexpected response: %s / %q", env.Status, env.Message)
		}
	})

	env := postJSON(t, server.URL+"/send-otp", map[string]string{
		"email": "alice@x.com",
	}, nil, http.StatusOK)
	if env.Status != "success" || env.Message != "OTP Sent Successfully" {
		t.Fatalf("unexpected send-otp response: %s / %q", env.Status, env.Message)
	}

	code := mail.lastCode
	if !fourDigits.MatchString(code) {
		t.Fatalf("expected mailed 4-digit code, got %q", code)
	}
	if repo.users["alice@x.com"].OTP != code {
		t.Fatalf("stored code %q differs from mailed code %q", repo.users["alice@x.com"].OTP, code)
	}

	t.Run("wrong code answers 401", func(t *testing.T) {
		wrong := "1234"
		if wrong == code {
			wrong = "4321"
		}
		env := postJSON(t, server.URL+"/verify-otp", map[string]string{
			"email": "alice@x.com",
			"otp":   wrong,
		}, nil, http.StatusUnauthorized)
		if env.Message != "Invalid OTP" {
			t.Fatalf("unexpected message: %q", env.Message)
		}
	})

	reset := tokenCookie(t, server.URL+"/verify-otp", map[string]string{
		"email": "alice@x.com",
		"otp":   code,
	})
	if _, err := auth.Verify(reset.Value, auth.PurposeReset, testSecret); err != nil {
		t.Fatalf("verify-otp cookie is not a valid reset token: %v", err)
	}

	t.Run("code cannot verify twice", func(t *testing.T) {
		env := postJSON(t, server.URL+"/verify-otp", map[string]string{
			"email": "alice@x.com",
			"otp":   code,
		}, nil, http.StatusUnauthorized)
		if env.Status != "fail" || env.Message != "Invalid OTP" {
			t.Fatalf("unexpected replay response: %s / %q", env.Status, env.Message)
		}
	})

	t.Run("reset-password rejects session tokens", func(t *testing.T) {
		session := tokenCookie(t, server.URL+"/user-login", map[string]string{
			"email":    "alice@x.com",
			"password": "secret",
		})
		postJSON(t, server.URL+"/reset-password", map[string]string{
			"password": "hijack",
		}, session, http.StatusUnauthorized)
	})

	env = postJSON(t, server.URL+"/reset-password", map[string]string{
		"password": "brand-new",
	}, reset, http.StatusOK)
	if env.Status != "success" || env.Message != "Password Reset Successfully" {
		t.Fatalf("unexpected reset response: %s / %q", env.Status, env.Message)
	}

	// No session is issued by the reset; log in again with the new password.
	tokenCookie(t, server.URL+"/user-login", map[string]string{
		"email":    "alice@x.com",
		"password": "brand-new",
	})

	old := postJSON(t, server.URL+"/user-login", map[string]string{
		"email":    "alice@x.com",
		"password": "secret",
	}, nil, http.StatusOK)
	if old.Status != "fail" {
		t.Fatal("old password still logs in after reset")
	}
}

func TestLogout(t *testing.T) {
	server, _, _ := setupTestServer()
	defer server.Close()

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Get(server.URL + "/logout")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 redirect, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/userLogin" {
		t.Fatalf("expected redirect to /userLogin, got %q", loc)
	}

	cleared := false
	for _, c := range resp.Cookies() {
		if c.Name == "token" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected token cookie cleared with negative max-age")
	}
}
