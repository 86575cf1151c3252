// Package storage holds the client's own persisted state: a durable
// key/value area, a process-scoped key/value area, and the cookie jar
// snapshot that keeps the server session alive between runs.
//
// Everything in the two key/value areas is treated as untrusted cache. It is
// wiped whenever the server says the session is gone.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/isdelr/mantis-client/internal/database"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS local_storage (
	key TEXT NOT NULL PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS cookies (
	base_url TEXT NOT NULL,
	name TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (base_url, name)
);
`

// Open opens (creating if needed) the client database at path and applies
// the schema. Pass ":memory:" for an ephemeral database.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
	}
	db, err := database.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	if err := database.Migrate(db, schema); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Store is a string key/value area.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	Clear() error
}

// LocalStore is a Store persisted in the client database.
type LocalStore struct {
	db *sql.DB
}

// NewLocalStore creates a LocalStore on an opened client database.
func NewLocalStore(db *sql.DB) *LocalStore {
	return &LocalStore{db: db}
}

// Get returns the value stored under key.
func (s *LocalStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM local_storage WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *LocalStore) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, key, value)
	return err
}

// Delete removes key. Missing keys are not an error.
func (s *LocalStore) Delete(key string) error {
	_, err := s.db.Exec("DELETE FROM local_storage WHERE key = ?", key)
	return err
}

// Clear removes every key.
func (s *LocalStore) Clear() error {
	_, err := s.db.Exec("DELETE FROM local_storage")
	return err
}

// MemoryStore is a Store that lives as long as the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]string)
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Artifacts groups every client-side storage area so they can be wiped
// together.
type Artifacts struct {
	Local   Store
	Session Store
}

// ClearAll wipes both areas. Both are attempted even if the first fails;
// the first error is returned.
func (a *Artifacts) ClearAll() error {
	var firstErr error
	for name, s := range map[string]Store{"local": a.Local, "session": a.Session} {
		if s == nil {
			continue
		}
		if err := s.Clear(); err != nil {
			log.Error().Err(err).Str("area", name).Msg("Failed to clear client storage")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr == nil {
		log.Debug().Msg("Client storage cleared")
	}
	return firstErr
}
