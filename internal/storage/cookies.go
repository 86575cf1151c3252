package storage

import (
	"database/sql"
	"net/http"
	"net/url"
)

// CookieStore snapshots the cookies a jar holds for one base URL so the
// server session survives process restarts. It is transport state and is not
// touched by Artifacts.ClearAll.
type CookieStore struct {
	db *sql.DB
}

// NewCookieStore creates a CookieStore on an opened client database.
func NewCookieStore(db *sql.DB) *CookieStore {
	return &CookieStore{db: db}
}

// Load restores the saved cookies for u into jar.
func (s *CookieStore) Load(jar http.CookieJar, u *url.URL) error {
	rows, err := s.db.Query("SELECT name, value FROM cookies WHERE base_url = ?", baseKey(u))
	if err != nil {
		return err
	}
	defer rows.Close()

	var cookies []*http.Cookie
	for rows.Next() {
		c := &http.Cookie{Path: "/"}
		if err := rows.Scan(&c.Name, &c.Value); err != nil {
			return err
		}
		cookies = append(cookies, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(cookies) > 0 {
		jar.SetCookies(u, cookies)
	}
	return nil
}

// Save replaces the snapshot for u with the cookies jar currently holds.
// Cookies the server expired are dropped.
func (s *CookieStore) Save(jar http.CookieJar, u *url.URL) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	key := baseKey(u)
	if _, err := tx.Exec("DELETE FROM cookies WHERE base_url = ?", key); err != nil {
		return err
	}
	for _, c := range jar.Cookies(u) {
		if _, err := tx.Exec("INSERT INTO cookies (base_url, name, value) VALUES (?, ?, ?)", key, c.Name, c.Value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func baseKey(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}
