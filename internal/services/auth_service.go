package services

import (
	"context"

	"github.com/isdelr/mantis-client/internal/apierror"
	"github.com/isdelr/mantis-client/internal/apiclient"
	"github.com/isdelr/mantis-client/internal/models"
)

// AuthServiceProvider defines the interface for auth services.
type AuthServiceProvider interface {
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	Register(ctx context.Context, input models.RegisterInput) (*RegisterResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Message string       `json:"message,omitempty"`
	User    *models.User `json:"user"`
}

// RegisterResponse is the body of a successful registration. Registration
// does not establish a session.
type RegisterResponse struct {
	Message string       `json:"message,omitempty"`
	User    *models.User `json:"user,omitempty"`
}

// AuthService maps the auth endpoints.
type AuthService struct {
	api *apiclient.Client
}

// NewAuthService creates a new AuthService.
func NewAuthService(api *apiclient.Client) *AuthService {
	return &AuthService{api: api}
}

// Login posts credentials to /login.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var resp LoginResponse
	creds := models.Credentials{Username: username, Password: password}
	if err := s.api.Post(ctx, "/login", creds, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, apierror.NewMalformed(nil)
	}
	return &resp, nil
}

// Register creates an account. Only the username and password are sent.
func (s *AuthService) Register(ctx context.Context, input models.RegisterInput) (*RegisterResponse, error) {
	var resp RegisterResponse
	creds := models.Credentials{Username: input.Username, Password: input.Password}
	if err := s.api.Post(ctx, "/register", creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout ends the server session.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.api.Post(ctx, "/logout", nil, nil)
}

// CurrentUser asks the server who the session cookie belongs to.
func (s *AuthService) CurrentUser(ctx context.Context) (*models.User, error) {
	var resp struct {
		User *models.User `json:"user"`
	}
	if err := s.api.Get(ctx, "/profile", nil, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, apierror.NewMalformed(nil)
	}
	return resp.User, nil
}
