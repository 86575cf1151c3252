package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore remembers logged-out token ids until the tokens would
// have expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// Purge drops entries that expired before now and reports how many.
	Purge(ctx context.Context, now time.Time) (int64, error)
}

// SQLRevocationStore keeps revocations in the revoked_tokens table.
type SQLRevocationStore struct {
	db *sql.DB
}

// NewSQLRevocationStore creates a SQLRevocationStore.
func NewSQLRevocationStore(db *sql.DB) *SQLRevocationStore {
	return &SQLRevocationStore{db: db}
}

func (s *SQLRevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO revoked_tokens(jti, expires_at) VALUES(?, ?) ON CONFLICT(jti) DO NOTHING", jti, expiresAt.UTC())
	return err
}

func (s *SQLRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE jti = ?)", jti).Scan(&revoked)
	return revoked, err
}

func (s *SQLRevocationStore) Purge(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM revoked_tokens WHERE expires_at < ?", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RedisRevocationStore keeps revocations as redis keys that expire with the
// token.
type RedisRevocationStore struct {
	client *redis.Client
	prefix string
}

// NewRedisRevocationStore creates a RedisRevocationStore.
func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, prefix: "mantis:revoked:"}
}

// NewRedisClient connects to the redis server at url and pings it.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.prefix+jti, 1, ttl).Err()
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := s.client.Get(ctx, s.prefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Purge is a no-op; redis expires the keys itself.
func (s *RedisRevocationStore) Purge(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
