package middleware

import (
	"context"
	"net/http"

	"github.com/authcraft/account-service/internal/http/response"
	"github.com/authcraft/account-service/pkg/auth"
)

type ctxKey string

// CtxIdentity holds the verified token claims. This middleware is the
// sole producer of identity context; handlers and services never read
// the cookie or raw headers themselves.
const CtxIdentity ctxKey = "identity"

// CookieName is the cookie carrying session and reset tokens.
const CookieName = "token"

// RequireToken verifies the cookie-borne token against the expected
// purpose before the handler runs. A session token is rejected on
// reset-only routes and a reset token on session-only routes.
func RequireToken(purpose, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				response.Fail(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := auth.Verify(cookie.Value, purpose, secret)
			if err != nil {
				response.Fail(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), CtxIdentity, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Identity returns the verified claims injected by RequireToken, or nil
// on unprotected routes.
func Identity(r *http.Request) *auth.Claims {
	v := r.Context().Value(CtxIdentity)
	if v == nil {
		return nil
	}
	return v.(*auth.Claims)
}
