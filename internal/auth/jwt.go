// Package auth issues and checks the session tokens of the reference
// backend. A token travels in the HttpOnly "token" cookie (or a Bearer
// header) and can be revoked before it expires.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/isdelr/mantis-client/internal/models"
)

// CookieName is the name of the session cookie.
const CookieName = "token"

// ErrRevoked is returned for a token that was logged out.
var ErrRevoked = errors.New("token revoked")

// Claims defines the JWT claims structure. RegisteredClaims.ID carries the
// token id used for revocation.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type contextKey string

// UserClaimsKey is the context key for user claims.
const UserClaimsKey = contextKey("userClaims")

// ClaimsFrom returns the claims the middleware stored in ctx.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	return claims, ok
}

// Issuer signs and validates session tokens.
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewIssuer creates an Issuer signing with secret. Tokens live for ttl.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{key: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns how long issued tokens live.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Generate creates a new token for user and returns it with its expiry.
func (i *Issuer) Generate(user models.User) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate parses and validates a token string.
func (i *Issuer) Validate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return i.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("token has no id")
	}
	return claims, nil
}
