package storage

import (
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *LocalStore {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewLocalStore(db)
}

func TestLocalStoreRoundTrip(t *testing.T) {
	s := openTestDB(t)

	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := s.Set("issues.filters", `{"status":"open"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("issues.filters", `{"status":"closed"}`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := s.Get("issues.filters")
	if err != nil || !ok || v != `{"status":"closed"}` {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}
	if err := s.Delete("issues.filters"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get("issues.filters"); ok {
		t.Fatal("expected key to be gone")
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "client.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	db.Close()
}

func TestArtifactsClearAll(t *testing.T) {
	local := openTestDB(t)
	session := NewMemoryStore()
	local.Set("a", "1")
	session.Set("b", "2")

	a := &Artifacts{Local: local, Session: session}
	if err := a.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if _, ok, _ := local.Get("a"); ok {
		t.Fatal("local store not cleared")
	}
	if session.Len() != 0 {
		t.Fatal("session store not cleared")
	}
}

type failingStore struct{ MemoryStore }

func (*failingStore) Clear() error { return errors.New("disk on fire") }

func TestArtifactsClearAllContinuesAfterFailure(t *testing.T) {
	session := NewMemoryStore()
	session.Set("k", "v")

	a := &Artifacts{Local: &failingStore{}, Session: session}
	if err := a.ClearAll(); err == nil {
		t.Fatal("expected error from failing store")
	}
	if session.Len() != 0 {
		t.Fatal("session store should be cleared even when local fails")
	}
}

func TestCookieStoreSurvivesClearAll(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	u, _ := url.Parse("http://localhost:3000")
	jar, _ := cookiejar.New(nil)
	jar.SetCookies(u, []*http.Cookie{{Name: "token", Value: "abc", Path: "/"}})

	cookies := NewCookieStore(db)
	if err := cookies.Save(jar, u); err != nil {
		t.Fatalf("Save: %v", err)
	}

	a := &Artifacts{Local: NewLocalStore(db), Session: NewMemoryStore()}
	if err := a.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	fresh, _ := cookiejar.New(nil)
	if err := cookies.Load(fresh, u); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := fresh.Cookies(u)
	if len(got) != 1 || got[0].Name != "token" || got[0].Value != "abc" {
		t.Fatalf("unexpected cookies %v", got)
	}
}

func TestCookieStoreSaveDropsExpired(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	u, _ := url.Parse("http://localhost:3000")
	jar, _ := cookiejar.New(nil)
	jar.SetCookies(u, []*http.Cookie{{Name: "token", Value: "abc", Path: "/"}})
	cookies := NewCookieStore(db)
	cookies.Save(jar, u)

	// Server expires the cookie on logout.
	jar.SetCookies(u, []*http.Cookie{{Name: "token", Value: "", Path: "/", MaxAge: -1}})
	if err := cookies.Save(jar, u); err != nil {
		t.Fatalf("Save: %v", err)
	}

	fresh, _ := cookiejar.New(nil)
	cookies.Load(fresh, u)
	if len(fresh.Cookies(u)) != 0 {
		t.Fatal("expired cookie should not be restored")
	}
}
