package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/isdelr/mantis-client/internal/models"
	"github.com/isdelr/mantis-client/internal/tracker"
	"github.com/redis/go-redis/v9"
)

var testUser = models.User{ID: "u1", Username: "bob"}

func newSQLStore(t *testing.T) *SQLRevocationStore {
	t.Helper()
	db, err := tracker.Open(":memory:")
	if err != nil {
		t.Fatalf("tracker.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLRevocationStore(db)
}

func newRedisStore(t *testing.T) (*RedisRevocationStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisRevocationStore(client), mr
}

func TestIssuerRoundTrip(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)

	token, expiresAt, err := issuer.Generate(testUser)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if d := time.Until(expiresAt); d < 59*time.Minute || d > time.Hour {
		t.Fatalf("unexpected expiry in %s", d)
	}

	claims, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID != "u1" || claims.Username != "bob" || claims.ID == "" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	other, _, _ := issuer.Generate(testUser)
	otherClaims, err := issuer.Validate(other)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if otherClaims.ID == claims.ID {
		t.Fatal("expected every token to get its own id")
	}
}

func TestIssuerRejects(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	token, _, err := issuer.Generate(testUser)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := NewIssuer("other", time.Hour).Validate(token); err == nil {
		t.Error("expected token signed with another key to be rejected")
	}

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := issuer.Validate(token); err == nil {
		t.Error("expected expired token to be rejected")
	}

	if _, err := issuer.Validate("not-a-jwt"); err == nil {
		t.Error("expected garbage to be rejected")
	}
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := TokenFromRequest(r); got != "" {
		t.Fatalf("expected no token, got %q", got)
	}

	r.AddCookie(&http.Cookie{Name: CookieName, Value: "from-cookie"})
	if got := TokenFromRequest(r); got != "from-cookie" {
		t.Fatalf("expected cookie token, got %q", got)
	}

	r.Header.Set("Authorization", "Bearer from-header")
	if got := TokenFromRequest(r); got != "from-header" {
		t.Fatalf("expected header token to win, got %q", got)
	}
}

func TestMiddleware(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	store := newSQLStore(t)

	var seen *Claims
	handler := Middleware(issuer, store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	token, expiresAt, err := issuer.Generate(testUser)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	serve := func(cookie string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/profile", nil)
		if cookie != "" {
			r.AddCookie(&http.Cookie{Name: CookieName, Value: cookie})
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w
	}

	w := serve("")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body["message"] != "Not authenticated" {
		t.Fatalf("unexpected body %v (%v)", body, err)
	}

	if w := serve(token); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 with token, got %d", w.Code)
	}
	if seen == nil || seen.UserID != "u1" {
		t.Fatalf("expected claims in context, got %+v", seen)
	}

	claims, _ := issuer.Validate(token)
	if err := store.Revoke(context.Background(), claims.ID, expiresAt); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if w := serve(token); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after revocation, got %d", w.Code)
	}
	if _, err := Authenticate(context.Background(), issuer, store, token); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected ErrRevoked, got %v", err)
	}
}

func TestSQLRevocationStorePurge(t *testing.T) {
	ctx := context.Background()
	store := newSQLStore(t)
	now := time.Now()

	if err := store.Revoke(ctx, "old", now.Add(-time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if err := store.Revoke(ctx, "fresh", now.Add(time.Hour)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	// Revoking twice is harmless.
	if err := store.Revoke(ctx, "fresh", now.Add(time.Hour)); err != nil {
		t.Fatalf("second Revoke: %v", err)
	}

	n, err := store.Purge(ctx, now)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged entry, got %d", n)
	}

	for jti, want := range map[string]bool{"old": false, "fresh": true, "never": false} {
		got, err := store.IsRevoked(ctx, jti)
		if err != nil {
			t.Fatalf("IsRevoked(%q): %v", jti, err)
		}
		if got != want {
			t.Errorf("IsRevoked(%q) = %v, want %v", jti, got, want)
		}
	}
}

func TestRedisRevocationStore(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	if err := store.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	// Already expired tokens are not stored.
	if err := store.Revoke(ctx, "jti-2", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	if revoked, err := store.IsRevoked(ctx, "jti-1"); err != nil || !revoked {
		t.Fatalf("expected jti-1 revoked, got %v (%v)", revoked, err)
	}
	if revoked, err := store.IsRevoked(ctx, "jti-2"); err != nil || revoked {
		t.Fatalf("expected jti-2 not revoked, got %v (%v)", revoked, err)
	}
	if !mr.Exists("mantis:revoked:jti-1") {
		t.Fatal("expected prefixed key in redis")
	}

	mr.FastForward(2 * time.Minute)
	if revoked, err := store.IsRevoked(ctx, "jti-1"); err != nil || revoked {
		t.Fatalf("expected jti-1 to expire with the token, got %v (%v)", revoked, err)
	}
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	client.Close()

	if _, err := NewRedisClient(context.Background(), "not a url"); err == nil {
		t.Fatal("expected invalid URL to fail")
	}
}
