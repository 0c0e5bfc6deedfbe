package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Identity is the result of a successful sign-in: the user and a bearer
// token for subsequent requests.
type Identity struct {
	User        *User     `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Service implements signup, login, logout and session lookup.
type Service struct {
	users    *UserStore
	sessions *SessionStore
	tokens   *TokenIssuer
	ttl      time.Duration
}

// NewService wires the stores and issuer. ttl is the lifetime of a session.
func NewService(users *UserStore, sessions *SessionStore, tokens *TokenIssuer, ttl time.Duration) *Service {
	return &Service{users: users, sessions: sessions, tokens: tokens, ttl: ttl}
}

// Users returns the underlying user store.
func (s *Service) Users() *UserStore { return s.users }

// Signup creates an account and signs it in.
func (s *Service) Signup(email, password, name string, role Role) (*Identity, error) {
	user, err := s.users.Create(email, password, name, role)
	if err != nil {
		return nil, err
	}
	slog.Info("signup", "user_id", user.ID, "role", user.Role)
	return s.StartSession(user)
}

// Login verifies credentials and starts a session.
func (s *Service) Login(email, password string) (*Identity, error) {
	user, err := s.users.Authenticate(email, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			slog.Warn("login failed", "email", normalizeEmail(email))
		}
		return nil, err
	}
	slog.Info("login success", "user_id", user.ID, "method", "password")
	return s.StartSession(user)
}

// StartSession creates a session for an already authenticated user and
// issues its access token.
func (s *Service) StartSession(user *User) (*Identity, error) {
	sess, err := s.sessions.Create(user.ID, s.ttl)
	if err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(user, sess)
	if err != nil {
		return nil, err
	}
	return &Identity{User: user, AccessToken: token, ExpiresAt: sess.ExpiresAt}, nil
}

// CurrentSession resolves a bearer token to its user. The token must be
// validly signed, unexpired, and its session must still exist.
func (s *Service) CurrentSession(token string) (*User, *Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, nil, err
	}

	sess, err := s.sessions.Get(claims.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if sess.UserID != claims.Subject {
		return nil, nil, fmt.Errorf("session user mismatch: %w", ErrInvalidToken)
	}

	user, err := s.users.GetByID(claims.Subject)
	if errors.Is(err, ErrUserNotFound) {
		return nil, nil, fmt.Errorf("user deleted: %w", ErrInvalidToken)
	}
	if err != nil {
		return nil, nil, err
	}
	return user, claims, nil
}

// Logout revokes the session behind token.
func (s *Service) Logout(token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(claims.SessionID); err != nil {
		return err
	}
	slog.Info("logout", "user_id", claims.Subject)
	return nil
}

// Cleanup removes expired sessions.
func (s *Service) Cleanup() (int64, error) {
	return s.sessions.Cleanup()
}
