package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// TokenFromRequest returns the token from the Authorization header or,
// failing that, the session cookie.
func TokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return token
		}
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Authenticate validates a token and checks it was not revoked.
func Authenticate(ctx context.Context, issuer *Issuer, revocations RevocationStore, tokenStr string) (*Claims, error) {
	claims, err := issuer.Validate(tokenStr)
	if err != nil {
		return nil, err
	}
	revoked, err := revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrRevoked
	}
	return claims, nil
}

// Middleware protects routes. Requests without a valid session get 401
// {"message":"Not authenticated"}.
func Middleware(issuer *Issuer, revocations RevocationStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := TokenFromRequest(r)
			if tokenStr == "" {
				unauthorized(w)
				return
			}

			claims, err := Authenticate(r.Context(), issuer, revocations, tokenStr)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected session token")
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": "Not authenticated"})
}
