package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-webauthn/webauthn/webauthn"
)

// ErrCredentialNotFound is returned when deleting a credential the user does not own.
var ErrCredentialNotFound = errors.New("credential not found")

// PasskeyUser implements webauthn.User for a marketplace account.
type PasskeyUser struct {
	user        *User
	credentials []webauthn.Credential
}

// NewPasskeyUser wraps user and its registered credentials.
func NewPasskeyUser(user *User, credentials []webauthn.Credential) *PasskeyUser {
	return &PasskeyUser{user: user, credentials: credentials}
}

// User returns the wrapped account.
func (u *PasskeyUser) User() *User { return u.user }

// WebAuthnID returns the user ID, which is also the discoverable-login user handle.
func (u *PasskeyUser) WebAuthnID() []byte { return []byte(u.user.ID) }

// WebAuthnName returns the email.
func (u *PasskeyUser) WebAuthnName() string { return u.user.Email }

// WebAuthnDisplayName returns the name, falling back to the email.
func (u *PasskeyUser) WebAuthnDisplayName() string {
	if u.user.Name != "" {
		return u.user.Name
	}
	return u.user.Email
}

// WebAuthnCredentials returns the stored credentials.
func (u *PasskeyUser) WebAuthnCredentials() []webauthn.Credential { return u.credentials }

// PasskeyStore manages passkey credentials in SQLite.
type PasskeyStore struct {
	db *sql.DB
}

// NewPasskeyStore creates a passkey store.
func NewPasskeyStore(db *sql.DB) *PasskeyStore {
	return &PasskeyStore{db: db}
}

// StoredCredential is a passkey credential with metadata.
type StoredCredential struct {
	ID         string              `json:"id"`
	UserID     string              `json:"user_id"`
	Name       string              `json:"name"`
	Credential webauthn.Credential `json:"-"`
}

// Save stores a new passkey credential.
func (s *PasskeyStore) Save(userID, name string, cred *webauthn.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshaling credential: %w", err)
	}

	id := fmt.Sprintf("%x", cred.ID)
	if _, err := s.db.Exec(
		"INSERT INTO passkey_credentials (id, user_id, name, credential_json) VALUES (?, ?, ?, ?)",
		id, userID, name, string(data),
	); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}

	return nil
}

// Update replaces the stored credential data, keeping the sign counter current.
func (s *PasskeyStore) Update(cred *webauthn.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshaling credential: %w", err)
	}
	if _, err := s.db.Exec(
		"UPDATE passkey_credentials SET credential_json = ? WHERE id = ?",
		string(data), fmt.Sprintf("%x", cred.ID),
	); err != nil {
		return fmt.Errorf("updating credential: %w", err)
	}
	return nil
}

// ListByUser returns all credentials registered by a user.
func (s *PasskeyStore) ListByUser(userID string) ([]StoredCredential, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, name, credential_json FROM passkey_credentials WHERE user_id = ? ORDER BY created_at",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Warn("closing rows", "error", err)
		}
	}()

	var result []StoredCredential
	for rows.Next() {
		var sc StoredCredential
		var data string
		if err := rows.Scan(&sc.ID, &sc.UserID, &sc.Name, &data); err != nil {
			return nil, fmt.Errorf("scanning credential: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &sc.Credential); err != nil {
			return nil, fmt.Errorf("unmarshaling credential: %w", err)
		}
		result = append(result, sc)
	}

	return result, rows.Err()
}

// WebAuthnCredentials returns just the webauthn.Credential slice for a user.
func (s *PasskeyStore) WebAuthnCredentials(userID string) ([]webauthn.Credential, error) {
	stored, err := s.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	creds := make([]webauthn.Credential, len(stored))
	for i, sc := range stored {
		creds[i] = sc.Credential
	}

	return creds, nil
}

// Delete removes a credential owned by userID.
func (s *PasskeyStore) Delete(id, userID string) error {
	result, err := s.db.Exec(
		"DELETE FROM passkey_credentials WHERE id = ? AND user_id = ?",
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return ErrCredentialNotFound
	}

	return nil
}
