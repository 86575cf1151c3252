package tracker

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/isdelr/mantis-client/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(id string) (models.User, error)
	CreateUser(username, password string) (models.User, error)
	AuthenticateUser(username, password string) (models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, username, created_at FROM users WHERE id = ?", id)
	if err := row.Scan(&user.ID, &user.Username, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}

// getUserByUsername retrieves a user including the password hash.
func (s *UserService) getUserByUsername(username string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, username, password_hash, created_at FROM users WHERE username = ?", username)
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}

// CreateUser creates a new user, hashing their password.
func (s *UserService) CreateUser(username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if utf8.RuneCountInString(username) < 3 {
		return models.User{}, invalid("Username must be at least 3 characters")
	}
	if utf8.RuneCountInString(password) < 6 {
		return models.User{}, invalid("Password must be at least 6 characters")
	}

	var exists bool
	if err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)", username).Scan(&exists); err != nil {
		return models.User{}, err
	}
	if exists {
		return models.User{}, fmt.Errorf("username %q: %w", username, ErrConflict)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:        uuid.New().String(),
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.Exec("INSERT INTO users(id, username, password_hash, created_at) VALUES(?, ?, ?, ?)",
		user.ID, user.Username, string(hashedPassword), user.CreatedAt)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// AuthenticateUser verifies a user's credentials.
func (s *UserService) AuthenticateUser(username, password string) (models.User, error) {
	user, err := s.getUserByUsername(username)
	if err != nil {
		return models.User{}, fmt.Errorf("authentication failed: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, fmt.Errorf("authentication failed: invalid password")
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}
