package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTokenIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer(testSecret)
	user := &User{ID: "user-1", Email: "a@example.com", Role: RoleSeller}
	sess := &Session{ID: "sess-1", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}

	token, err := issuer.Issue(user, sess)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("token %q is not a JWT", token)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" || claims.SessionID != "sess-1" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Email != "a@example.com" || claims.Role != RoleSeller {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenParseRejects(t *testing.T) {
	issuer := NewTokenIssuer(testSecret)
	user := &User{ID: "user-1", Email: "a@example.com", Role: RoleBuyer}
	valid, err := issuer.Issue(user, &Session{ID: "sess-1", ExpiresAt: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	expired, err := issuer.Issue(user, &Session{ID: "sess-2", ExpiresAt: time.Now().Add(-time.Minute)})
	if err != nil {
		t.Fatalf("issue expired: %v", err)
	}

	other := NewTokenIssuer([]byte(strings.Repeat("x", 32)))

	tests := []struct {
		name   string
		issuer *TokenIssuer
		token  string
	}{
		{"garbage", issuer, "not-a-token"},
		{"empty", issuer, ""},
		{"wrong secret", other, valid},
		{"expired", issuer, expired},
		{"tampered", issuer, valid[:len(valid)-2] + "xx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.issuer.Parse(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}
