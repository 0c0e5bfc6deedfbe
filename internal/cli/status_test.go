package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evcraddock/keyswap/internal/auth"
)

const validToken = "valid-token"

// fakeAPI serves /health, the session endpoint and logout. Only validToken
// is accepted as a bearer token.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()

	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer "+validToken {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid or expired token"})
			return false
		}
		return true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/api/auth/session", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		_ = json.NewEncoder(w).Encode(auth.User{ID: "u1", Email: "pat@example.com", Role: auth.RoleSeller})
	})
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestStatus(t *testing.T) {
	srv := fakeAPI(t)

	tests := []struct {
		name   string
		server string
		token  string
		want   string
	}{
		{"logged in", srv.URL, validToken, "logged in as pat@example.com (seller)"},
		{"invalid token", srv.URL, "stale", "token is invalid or expired"},
		{"no token", srv.URL, "", "Token:   not configured"},
		{"unreachable", "http://127.0.0.1:1", validToken, "cannot reach server"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv("KS_SERVER_URL", tt.server)
			t.Setenv("KS_ACCESS_TOKEN", tt.token)

			out, err := executeCommand("status")
			if err != nil {
				t.Fatalf("status: %v", err)
			}
			if !strings.Contains(out, "Server:  "+tt.server) {
				t.Errorf("output missing server line:\n%s", out)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output = %q, want it to contain %q", out, tt.want)
			}
		})
	}
}
