// Package tracker is the data layer of the reference backend: users, issues,
// comments, labels and milestones stored in SQLite.
package tracker

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/isdelr/mantis-client/internal/database"
)

// Schema creates the backend tables.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS labels (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	color TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS milestones (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	due_date TEXT,
	status TEXT NOT NULL DEFAULT 'open',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS issues (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'open',
	priority TEXT NOT NULL DEFAULT 'medium',
	assignee TEXT NOT NULL DEFAULT '',
	creator TEXT NOT NULL,
	milestone_id TEXT REFERENCES milestones(id) ON DELETE SET NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS issue_labels (
	issue_id TEXT NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
	label_id TEXT NOT NULL REFERENCES labels(id) ON DELETE CASCADE,
	PRIMARY KEY (issue_id, label_id)
);

CREATE TABLE IF NOT EXISTS comments (
	id TEXT PRIMARY KEY,
	issue_id TEXT NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
	content TEXT NOT NULL,
	author TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
	jti TEXT PRIMARY KEY,
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_issues_created_at ON issues(created_at);
CREATE INDEX IF NOT EXISTS idx_comments_issue_id ON comments(issue_id);
`

// Open opens the backend database at path and applies Schema.
func Open(path string) (*sql.DB, error) {
	db, err := database.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := database.Migrate(db, Schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a unique constraint would be violated.
	ErrConflict = errors.New("conflict")
	// ErrInvalid means the input was rejected.
	ErrInvalid = errors.New("invalid input")
)

// ValidationError carries a user-facing message and matches ErrInvalid.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
