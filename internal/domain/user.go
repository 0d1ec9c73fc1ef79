package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// OTPConsumed is the sentinel written over a verified code so it cannot
// match twice. It also denotes "no active code" on a fresh user row.
const OTPConsumed = "0"

var (
	ErrDuplicateEmail     = errors.New("user with this email already exists")
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrDeliveryFailed     = errors.New("failed to deliver otp email")
)

// ValidationError reports which field violated which constraint. Its
// message is surfaced to the client verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	Mobile       string    `json:"mobile"`
	PasswordHash string    `json:"-"`
	OTP          string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile"`
	Password  string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest is a partial update: only supplied fields change.
// Password is decoded so its presence can be rejected explicitly; the
// profile endpoint never changes passwords.
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Mobile    *string `json:"mobile,omitempty"`
	Password  *string `json:"password,omitempty"`
}

type SendOTPRequest struct {
	Email string `json:"email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type ResetPasswordRequest struct {
	Password string `json:"password"`
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
var otpRegex = regexp.MustCompile(`^[0-9]{4}$`)

func validateName(field, value string) error {
	if len(value) < 1 || len(value) > 25 {
		return invalid(field, "%s must be between 1 and 25 characters", field)
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) < 7 || len(email) > 50 {
		return invalid("email", "email must be between 7 and 50 characters")
	}
	if !emailRegex.MatchString(email) {
		return invalid("email", "invalid email format")
	}
	return nil
}

func validateMobile(mobile string) error {
	if len(mobile) < 7 || len(mobile) > 20 {
		return invalid("mobile", "mobile must be between 7 and 20 characters")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 3 || len(password) > 1000 {
		return invalid("password", "password must be between 3 and 1000 characters")
	}
	return nil
}

func (r *RegisterRequest) Normalize() {
	// Email stays case-sensitive as stored; only whitespace is trimmed.
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.Mobile = strings.TrimSpace(r.Mobile)
}

func (r *RegisterRequest) Validate() error {
	if err := validateName("firstName", r.FirstName); err != nil {
		return err
	}
	if err := validateName("lastName", r.LastName); err != nil {
		return err
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if err := validateMobile(r.Mobile); err != nil {
		return err
	}
	return validatePassword(r.Password)
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

func (r *LoginRequest) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	return validatePassword(r.Password)
}

func (r *UpdateProfileRequest) Normalize() {
	if r.FirstName != nil {
		v := strings.TrimSpace(*r.FirstName)
		r.FirstName = &v
	}
	if r.LastName != nil {
		v := strings.TrimSpace(*r.LastName)
		r.LastName = &v
	}
	if r.Mobile != nil {
		v := strings.TrimSpace(*r.Mobile)
		r.Mobile = &v
	}
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Password != nil {
		return invalid("password", "password cannot be changed here; use the password reset flow")
	}
	if r.FirstName != nil {
		if err := validateName("firstName", *r.FirstName); err != nil {
			return err
		}
	}
	if r.LastName != nil {
		if err := validateName("lastName", *r.LastName); err != nil {
			return err
		}
	}
	if r.Mobile != nil {
		if err := validateMobile(*r.Mobile); err != nil {
			return err
		}
	}
	return nil
}

func (r *SendOTPRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

func (r *SendOTPRequest) Validate() error {
	return validateEmail(r.Email)
}

func (r *VerifyOTPRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.OTP = strings.TrimSpace(r.OTP)
}

func (r *VerifyOTPRequest) Validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if !otpRegex.MatchString(r.OTP) {
		return invalid("otp", "otp must be exactly 4 digits")
	}
	return nil
}

func (r *ResetPasswordRequest) Validate() error {
	return validatePassword(r.Password)
}
