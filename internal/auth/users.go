// Package auth provides accounts, bearer-token sessions and passkeys.
package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when an email/password pair does not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned by signup when the email already has an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidToken is returned for missing, malformed, expired or revoked tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrForbidden is returned when a user lacks the role or ownership required.
	ErrForbidden = errors.New("forbidden")
	// ErrUserNotFound is returned when a user ID does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidSignup wraps signup validation failures.
	ErrInvalidSignup = errors.New("invalid signup")
)

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 6

// Role is what a user does on the marketplace.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// ValidRole returns true if s is a known role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleBuyer, RoleSeller:
		return true
	}
	return false
}

// User is a marketplace account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStore manages accounts in SQLite.
type UserStore struct {
	db   *sql.DB
	cost int
}

// NewUserStore creates a user store hashing passwords at bcrypt.DefaultCost.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db, cost: bcrypt.DefaultCost}
}

// normalizeEmail lower-cases and trims an email address.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create registers a new user with a bcrypt-hashed password.
func (s *UserStore) Create(email, password, name string, role Role) (*User, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)

	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidSignup)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidSignup, MinPasswordLength)
	}
	if role == "" {
		role = RoleBuyer
	}
	if !ValidRole(string(role)) {
		return nil, fmt.Errorf("%w: role %q must be buyer or seller", ErrInvalidSignup, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	id := uuid.NewString()
	if _, err := s.db.Exec(
		"INSERT INTO users (id, email, name, role, password_hash) VALUES (?, ?, ?, ?, ?)",
		id, email, name, string(role), string(hash),
	); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("%s: %w", email, ErrEmailTaken)
		}
		return nil, fmt.Errorf("adding user: %w", err)
	}

	return s.GetByID(id)
}

// Authenticate returns the user when password matches the stored hash.
func (s *UserStore) Authenticate(email, password string) (*User, error) {
	var u User
	var role, hash string
	err := s.db.QueryRow(
		"SELECT id, email, name, role, created_at, password_hash FROM users WHERE email = ?",
		normalizeEmail(email),
	).Scan(&u.ID, &u.Email, &u.Name, &role, &u.CreatedAt, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	u.Role = Role(role)
	return &u, nil
}

// GetByID returns a user by ID.
func (s *UserStore) GetByID(id string) (*User, error) {
	var u User
	var role string
	err := s.db.QueryRow(
		"SELECT id, email, name, role, created_at FROM users WHERE id = ?", id,
	).Scan(&u.ID, &u.Email, &u.Name, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	u.Role = Role(role)
	return &u, nil
}
