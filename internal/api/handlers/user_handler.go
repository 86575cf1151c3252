package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/isdelr/mantis-client/internal/auth"
	"github.com/isdelr/mantis-client/internal/models"
	"github.com/isdelr/mantis-client/internal/tracker"
	"github.com/rs/zerolog/log"
)

// UserHandler handles registration, login, logout and the profile.
type UserHandler struct {
	service     tracker.UserServiceProvider
	issuer      *auth.Issuer
	revocations auth.RevocationStore
	secure      bool
}

// NewUserHandler creates a new UserHandler. secure sets the Secure flag on
// the session cookie.
func NewUserHandler(service tracker.UserServiceProvider, issuer *auth.Issuer, revocations auth.RevocationStore, secure bool) *UserHandler {
	return &UserHandler{service: service, issuer: issuer, revocations: revocations, secure: secure}
}

// Register handles new user registration. It does not log the user in.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload models.Credentials
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := h.service.CreateUser(payload.Username, payload.Password)
	if errors.Is(err, tracker.ErrConflict) {
		respondError(w, http.StatusConflict, "Username already exists")
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed to register user")
		respondServiceError(w, err, "Registration failed")
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User registered")
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully",
		"user":    user,
	})
}

// Login handles user authentication and sets the session cookie.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload models.Credentials
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := h.service.AuthenticateUser(payload.Username, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed authentication attempt")
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, expiresAt, err := h.issuer.Generate(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"user":    user,
	})
}

// Logout revokes the current token, if any, and expires the cookie. It
// succeeds without a session.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if tokenStr := auth.TokenFromRequest(r); tokenStr != "" {
		if claims, err := h.issuer.Validate(tokenStr); err == nil {
			if err := h.revocations.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
				log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to revoke token")
				respondError(w, http.StatusInternalServerError, "Failed to log out")
				return
			}
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Profile returns the user of the current session.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFrom(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user claims from context")
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := h.service.GetUserByID(claims.UserID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", claims.UserID).Msg("User from token not found in DB")
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}
