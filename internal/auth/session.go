package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is a server-side sign-in record. Access tokens reference it by ID,
// so deleting the row revokes every token issued for it.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
}

// SessionStore manages sessions in SQLite.
type SessionStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionStore creates a session store.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

// Create starts a session for userID lasting ttl.
func (s *SessionStore) Create(userID string, ttl time.Duration) (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: s.now().Add(ttl).UTC(),
	}

	if _, err := s.db.Exec(
		"INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)",
		sess.ID, sess.UserID, sess.ExpiresAt,
	); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	return sess, nil
}

// Get returns a live session. Missing or expired sessions return ErrInvalidToken.
func (s *SessionStore) Get(id string) (*Session, error) {
	sess := Session{ID: id}
	err := s.db.QueryRow(
		"SELECT user_id, expires_at FROM sessions WHERE id = ?", id,
	).Scan(&sess.UserID, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	if s.now().After(sess.ExpiresAt) {
		// Clean up expired session
		if _, delErr := s.db.Exec("DELETE FROM sessions WHERE id = ?", id); delErr != nil {
			return nil, fmt.Errorf("deleting expired session: %w", delErr)
		}
		return nil, ErrInvalidToken
	}

	return &sess, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *SessionStore) Delete(id string) error {
	if _, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Cleanup removes expired sessions and returns how many were removed.
func (s *SessionStore) Cleanup() (int64, error) {
	result, err := s.db.Exec(
		"DELETE FROM sessions WHERE expires_at < ?",
		s.now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("cleaning up sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking affected rows: %w", err)
	}
	return n, nil
}
