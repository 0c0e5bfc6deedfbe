package auth

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/evcraddock/keyswap/internal/db"
)

var testSecret = []byte(strings.Repeat("s", 32))

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return d
}

func testUserStore(t *testing.T, d *sql.DB) *UserStore {
	t.Helper()
	s := NewUserStore(d)
	s.cost = bcrypt.MinCost
	return s
}

func testService(t *testing.T) *Service {
	t.Helper()
	d := testDB(t)
	return NewService(testUserStore(t, d), NewSessionStore(d), NewTokenIssuer(testSecret), time.Hour)
}

func mustCreateUser(t *testing.T, s *UserStore, email string, role Role) *User {
	t.Helper()
	u, err := s.Create(email, "secret123", "Test User", role)
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}
