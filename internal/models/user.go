package models

import "time"

// User represents a user account as the server reports it. The client only
// holds a read-only copy.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	CreatedAt    time.Time `json:"createdAt"`
}

// DisplayName returns the best available label for the header.
func (u *User) DisplayName() string {
	if u == nil {
		return "User"
	}
	switch {
	case u.Username != "":
		return u.Username
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return "User"
	}
}

// Credentials is the login payload. It is never persisted.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterInput is what the registration form collects. Only Username and
// Password are sent to the server.
type RegisterInput struct {
	Username        string
	Password        string
	ConfirmPassword string
}
