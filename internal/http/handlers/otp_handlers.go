package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/authcraft/account-service/internal/domain"
	mw "github.com/authcraft/account-service/internal/http/middleware"
	"github.com/authcraft/account-service/internal/http/response"
)

// SendOTP generates a reset code for the account matching the email and
// mails it. An email matching no account answers 401.
func (h *Handlers) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, http.StatusOK, "Invalid JSON format")
		return
	}

	if err := h.otpService.RequestCode(r.Context(), &req); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.Fail(w, http.StatusUnauthorized, "Invalid Email Address")
			return
		}
		fail(w, r, err)
		return
	}

	response.Success(w, "OTP Sent Successfully")
}

// VerifyOTP checks the submitted code, consumes it, and sets a
// reset-scoped token cookie. A mismatch answers 401.
func (h *Handlers) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, http.StatusOK, "Invalid JSON format")
		return
	}

	token, err := h.otpService.VerifyCode(r.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOTP) {
			response.Fail(w, http.StatusUnauthorized, "Invalid OTP")
			return
		}
		fail(w, r, err)
		return
	}

	h.setTokenCookie(w, token)
	response.Success(w, "OTP Verification Successful")
}

// ResetPassword sets a new password for the identity proven by the
// reset token. The client logs in again afterwards; no session token
// is issued here.
func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	claims := mw.Identity(r)

	var req domain.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, http.StatusOK, "Invalid JSON format")
		return
	}

	if err := h.otpService.ResetPassword(r.Context(), claims.Email, &req); err != nil {
		fail(w, r, err)
		return
	}

	response.Success(w, "Password Reset Successfully")
}
