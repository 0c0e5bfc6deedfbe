package auth

import (
	"errors"
	"testing"

	"github.com/go-webauthn/webauthn/webauthn"
)

func testPasskeyStore(t *testing.T) (*PasskeyStore, *User) {
	t.Helper()
	d := testDB(t)
	user := mustCreateUser(t, testUserStore(t, d), "passkey@example.com", RoleBuyer)
	return NewPasskeyStore(d), user
}

func TestPasskeySaveAndList(t *testing.T) {
	store, user := testPasskeyStore(t)

	cred := &webauthn.Credential{
		ID:        []byte("test-credential-id"),
		PublicKey: []byte("test-public-key"),
	}

	if err := store.Save(user.ID, "My Laptop", cred); err != nil {
		t.Fatalf("save: %v", err)
	}

	stored, err := store.ListByUser(user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("got %d credentials, want 1", len(stored))
	}
	if stored[0].Name != "My Laptop" {
		t.Errorf("name = %q, want %q", stored[0].Name, "My Laptop")
	}
	if stored[0].UserID != user.ID {
		t.Errorf("user id = %q, want %q", stored[0].UserID, user.ID)
	}
	if string(stored[0].Credential.ID) != string(cred.ID) {
		t.Errorf("credential ID mismatch")
	}
}

func TestPasskeyUpdate(t *testing.T) {
	store, user := testPasskeyStore(t)

	cred := &webauthn.Credential{ID: []byte("cred-1"), PublicKey: []byte("key-1")}
	if err := store.Save(user.ID, "Key", cred); err != nil {
		t.Fatalf("save: %v", err)
	}

	cred.Authenticator.SignCount = 7
	if err := store.Update(cred); err != nil {
		t.Fatalf("update: %v", err)
	}

	creds, err := store.WebAuthnCredentials(user.ID)
	if err != nil {
		t.Fatalf("credentials: %v", err)
	}
	if len(creds) != 1 || creds[0].Authenticator.SignCount != 7 {
		t.Errorf("sign count not updated: %+v", creds)
	}
}

func TestPasskeyDelete(t *testing.T) {
	store, user := testPasskeyStore(t)

	cred := &webauthn.Credential{ID: []byte("to-delete"), PublicKey: []byte("key")}
	if err := store.Save(user.ID, "Key", cred); err != nil {
		t.Fatalf("save: %v", err)
	}

	stored, err := store.ListByUser(user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if err := store.Delete(stored[0].ID, "someone-else"); !errors.Is(err, ErrCredentialNotFound) {
		t.Errorf("delete by another user err = %v, want ErrCredentialNotFound", err)
	}
	if err := store.Delete(stored[0].ID, user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	stored, err = store.ListByUser(user.ID)
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("got %d credentials after delete, want 0", len(stored))
	}
}

func TestPasskeyUser(t *testing.T) {
	u := NewPasskeyUser(&User{ID: "abc", Email: "a@example.com"}, nil)

	if string(u.WebAuthnID()) != "abc" {
		t.Errorf("id = %q, want abc", u.WebAuthnID())
	}
	if u.WebAuthnDisplayName() != "a@example.com" {
		t.Errorf("display name = %q", u.WebAuthnDisplayName())
	}

	named := NewPasskeyUser(&User{ID: "abc", Email: "a@example.com", Name: "Ana"}, nil)
	if named.WebAuthnDisplayName() != "Ana" {
		t.Errorf("display name = %q, want Ana", named.WebAuthnDisplayName())
	}
}
