package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/authcraft/account-service/internal/domain"
	mw "github.com/authcraft/account-service/internal/http/middleware"
	"github.com/authcraft/account-service/internal/http/response"
)

// Register creates a new account. Registration does not log the user
// in; a login call follows.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, http.StatusOK, "Invalid JSON format")
		return
	}

	if _, err := h.accountService.Register(r.Context(), &req); err != nil {
		fail(w, r, err)
		return
	}

	response.Success(w, "User Registered successfully")
}

// Login verifies credentials and sets the session token cookie.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, http.StatusOK, "Invalid JSON format")
		return
	}

	token, err := h.accountService.Login(r.Context(), &req)
	if err != nil {
		fail(w, r, err)
		return
	}

	h.setTokenCookie(w, token)
	response.Success(w, "Login Successfully")
}

// Profile returns the record for the identity the session token proves.
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	claims := mw.Identity(r)

	user, err := h.accountService.Profile(r.Context(), claims.Email)
	if err != nil {
		fail(w, r, err)
		return
	}

	response.SuccessWithData(w, "Request Successful", user)
}

// UpdateProfile applies a partial update to the authenticated user.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := mw.Identity(r)

	var req domain.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Fail(w, http.StatusOK, "Invalid JSON format")
		return
	}

	if err := h.accountService.UpdateProfile(r.Context(), claims.Email, &req); err != nil {
		fail(w, r, err)
		return
	}

	response.Success(w, "Profile Updated Successfully")
}

// Logout clears the token cookie and redirects to the login page.
// Tokens are stateless, so there is nothing to invalidate server-side.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	clearTokenCookie(w)
	http.Redirect(w, r, "/userLogin", http.StatusFound)
}
