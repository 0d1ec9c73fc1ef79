package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/authcraft/account-service/internal/domain"
	mw "github.com/authcraft/account-service/internal/http/middleware"
	"github.com/authcraft/account-service/internal/http/response"
	"github.com/authcraft/account-service/internal/service"
	"github.com/authcraft/account-service/pkg/auth"
	"github.com/authcraft/account-service/pkg/config"
	"github.com/authcraft/account-service/pkg/logger"
)

type Handlers struct {
	accountService service.AccountService
	otpService     service.OTPService
	config         *config.Config
}

func New(accountService service.AccountService, otpService service.OTPService, config *config.Config) *Handlers {
	return &Handlers{
		accountService: accountService,
		otpService:     otpService,
		config:         config,
	}
}

// Routes builds the endpoint table. The optional rate limiter throttles
// the unauthenticated OTP endpoints.
func (h *Handlers) Routes(limiter *mw.RateLimiter) chi.Router {
	r := chi.NewRouter()

	r.Post("/user-registration", h.Register)
	r.Post("/user-login", h.Login)
	r.Get("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireToken(auth.PurposeSession, h.config.Auth.JWTSecret))
		r.Get("/user-profile", h.Profile)
		r.Post("/user-update", h.UpdateProfile)
	})

	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Middleware())
		}
		r.Post("/send-otp", h.SendOTP)
		r.Post("/verify-otp", h.VerifyOTP)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireToken(auth.PurposeReset, h.config.Auth.JWTSecret))
		r.Post("/reset-password", h.ResetPassword)
	})

	return r
}

// setTokenCookie attaches a token to the client for the configured TTL.
func (h *Handlers) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     mw.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.config.Auth.TokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     mw.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// fail converts a workflow error into the {status:"fail", message}
// envelope. Business-rule and validation failures surface their own
// message with HTTP 200; anything else is an internal failure and gets
// a generic message. The OTP endpoints override the status code for
// their two 401 cases before calling this.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		response.Fail(w, http.StatusOK, ve.Message)
	case errors.Is(err, domain.ErrDuplicateEmail),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrDeliveryFailed):
		response.Fail(w, http.StatusOK, failMessage(err))
	default:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		response.Fail(w, http.StatusOK, "Something went wrong")
	}
}

func failMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrDuplicateEmail):
		return "User with this email already exists"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, domain.ErrNotFound):
		return "Invalid Email Address"
	case errors.Is(err, domain.ErrDeliveryFailed):
		return "Failed to send OTP email"
	default:
		return "Something went wrong"
	}
}
