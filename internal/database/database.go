package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver
)

// New opens a SQLite database and verifies the connection. Use ":memory:"
// for a throwaway database.
func New(dataSourceName string) (*sql.DB, error) {
	dsn := dataSourceName
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite serializes writers anyway, and a single connection keeps
	// in-memory databases from splitting across the pool.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate runs the given schema statements in a single transaction.
func Migrate(db *sql.DB, schema string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(schema); err != nil {
		tx.Rollback()
		return fmt.Errorf("applying schema: %w", err)
	}
	return tx.Commit()
}
