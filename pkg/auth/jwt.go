package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. Session tokens authorize profile reads and updates,
// reset tokens authorize exactly the password-reset endpoint.
const (
	PurposeSession = "session"
	PurposeReset   = "reset"
)

var (
	ErrTokenInvalid      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenWrongPurpose = errors.New("token purpose mismatch")
)

type Claims struct {
	Sub     int64  `json:"sub"`
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// NewSessionToken issues a signed session token bound to the user's
// email and id, valid for ttl from now.
func NewSessionToken(userID int64, email, secret string, ttl time.Duration) (string, error) {
	return newToken(userID, email, PurposeSession, secret, ttl)
}

// NewResetToken issues a password-reset token. It is stateless and not
// tracked server-side, so a client holding one can reset the password
// any number of times until it expires.
func NewResetToken(email, secret string, ttl time.Duration) (string, error) {
	return newToken(0, email, PurposeReset, secret, ttl)
}

func newToken(sub int64, email, purpose, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Sub:     sub,
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{"account-service"},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Verify checks signature and expiry, and that the token carries the
// purpose the calling endpoint requires. Session endpoints reject reset
// tokens and vice versa.
func Verify(tokenString, expectedPurpose, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Purpose != expectedPurpose {
		return nil, ErrTokenWrongPurpose
	}
	return claims, nil
}
