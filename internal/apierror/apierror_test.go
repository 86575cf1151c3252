package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFromResponseMessagePreference(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
		kind   Kind
	}{
		{"server message", http.StatusUnauthorized, `{"message":"Invalid credentials"}`, "Invalid credentials", KindUnauthenticated},
		{"error field is not a message", http.StatusConflict, `{"error":"Username already exists"}`, "Request failed with status code 409", KindValidation},
		{"message ignores error field", http.StatusBadRequest, `{"message":"m","error":"e"}`, "m", KindValidation},
		{"blank message", http.StatusNotFound, `{"message":"   "}`, "Request failed with status code 404", KindValidation},
		{"non-json body", http.StatusInternalServerError, `<html>oops</html>`, "Request failed with status code 500", KindUnknown},
		{"empty body", http.StatusBadGateway, ``, "Request failed with status code 502", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromResponse(tt.status, []byte(tt.body))
			if err.Message != tt.want {
				t.Fatalf("message = %q, want %q", err.Message, tt.want)
			}
			if err.Kind != tt.kind {
				t.Fatalf("kind = %s, want %s", err.Kind, tt.kind)
			}
			if err.Status != tt.status {
				t.Fatalf("status = %d, want %d", err.Status, tt.status)
			}
		})
	}
}

func TestNewTransportFallsBack(t *testing.T) {
	if got := NewTransport(nil).Message; got != FallbackMessage {
		t.Fatalf("expected fallback, got %q", got)
	}
	cause := errors.New("dial tcp: connection refused")
	err := NewTransport(cause)
	if err.Message != cause.Error() {
		t.Fatalf("expected transport message, got %q", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be unwrappable")
	}
}

func TestKindHelpers(t *testing.T) {
	wrapped := fmt.Errorf("loading profile: %w", FromResponse(http.StatusUnauthorized, nil))

	if !Is(wrapped, KindUnauthenticated) {
		t.Fatal("expected wrapped error to be unauthenticated")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatal("plain errors should be unknown")
	}
	if Message(wrapped) != "Request failed with status code 401" {
		t.Fatalf("unexpected message %q", Message(wrapped))
	}
	if Message(nil) != FallbackMessage {
		t.Fatal("nil error should map to fallback")
	}
	if Message(errors.New("boom")) != "boom" {
		t.Fatal("plain error text should be kept")
	}
}
