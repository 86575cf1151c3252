package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/isdelr/mantis-client/internal/auth"
	"github.com/isdelr/mantis-client/internal/models"
	"github.com/isdelr/mantis-client/internal/tracker"
)

type mockUserService struct {
	createUserFn func(username, password string) (models.User, error)
}

func (m *mockUserService) GetUserByID(id string) (models.User, error) {
	return models.User{}, tracker.ErrNotFound
}

func (m *mockUserService) CreateUser(username, password string) (models.User, error) {
	return m.createUserFn(username, password)
}

func (m *mockUserService) AuthenticateUser(username, password string) (models.User, error) {
	return models.User{}, tracker.ErrNotFound
}

func TestRegisterErrorMessages(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"conflict", fmt.Errorf("username: %w", tracker.ErrConflict), http.StatusConflict, "Username already exists"},
		{"validation", &tracker.ValidationError{Message: "Password must be at least 6 characters"}, http.StatusBadRequest, "Password must be at least 6 characters"},
		{"not found", fmt.Errorf("user: %w", tracker.ErrNotFound), http.StatusNotFound, "Registration failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockUserService{createUserFn: func(string, string) (models.User, error) {
				return models.User{}, tt.err
			}}
			h := NewUserHandler(svc, auth.NewIssuer("secret", time.Hour), nil, false)

			r := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(`{"username":"bob","password":"secret1"}`))
			w := httptest.NewRecorder()
			h.Register(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if body["message"] != tt.wantMsg {
				t.Fatalf("message = %q, want %q", body["message"], tt.wantMsg)
			}
		})
	}
}
