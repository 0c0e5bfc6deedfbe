package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"

	"github.com/evcraddock/keyswap/internal/auth"
)

// ceremonyTTL is how long a begun WebAuthn ceremony can be finished.
const ceremonyTTL = 5 * time.Minute

// passkeyHandlers holds WebAuthn state and stores.
type passkeyHandlers struct {
	wan      *webauthn.WebAuthn
	auth     *auth.Service
	passkeys *auth.PasskeyStore

	// In-flight ceremonies. Registrations are keyed by user ID, logins by
	// the ceremony ID handed to the client in begin.
	mu          sync.Mutex
	regSessions map[string]*webauthn.SessionData
	logins      map[string]*webauthn.SessionData
}

func newPasskeyHandlers(baseURL string, svc *auth.Service, passkeys *auth.PasskeyStore) (*passkeyHandlers, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	wan, err := webauthn.New(&webauthn.Config{
		RPDisplayName: "Keyswap",
		RPID:          parsed.Hostname(),
		RPOrigins:     []string{strings.TrimRight(baseURL, "/")},
	})
	if err != nil {
		return nil, err
	}

	return &passkeyHandlers{
		wan:         wan,
		auth:        svc,
		passkeys:    passkeys,
		regSessions: make(map[string]*webauthn.SessionData),
		logins:      make(map[string]*webauthn.SessionData),
	}, nil
}

// take removes and returns a ceremony, dropping it if it has expired.
func (h *passkeyHandlers) take(m map[string]*webauthn.SessionData, key string) (*webauthn.SessionData, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	for k, sd := range m {
		if !sd.Expires.IsZero() && now.After(sd.Expires) {
			delete(m, k)
		}
	}

	sd, ok := m[key]
	if ok {
		delete(m, key)
	}
	return sd, ok
}

func (h *passkeyHandlers) put(m map[string]*webauthn.SessionData, key string, sd *webauthn.SessionData) {
	if sd.Expires.IsZero() {
		sd.Expires = time.Now().Add(ceremonyTTL)
	}
	h.mu.Lock()
	m[key] = sd
	h.mu.Unlock()
}

func (s *Server) requirePasskeys(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.passkey == nil {
			apiError(w, "passkeys are not configured", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handlePasskeyBeginRegistration starts registering a passkey for the
// signed-in user.
func (s *Server) handlePasskeyBeginRegistration(w http.ResponseWriter, r *http.Request) {
	h := s.passkey
	user, _ := auth.UserFromContext(r.Context())

	creds, err := h.passkeys.WebAuthnCredentials(user.ID)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	// Exclude existing credentials so the same key is not registered twice.
	exclude := make([]protocol.CredentialDescriptor, len(creds))
	for i, c := range creds {
		exclude[i] = c.Descriptor()
	}

	creation, session, err := h.wan.BeginRegistration(auth.NewPasskeyUser(user, creds),
		webauthn.WithExclusions(exclude),
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementRequired),
	)
	if err != nil {
		slog.Error("beginning registration", "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.put(h.regSessions, user.ID, session)
	apiJSON(w, creation, http.StatusOK)
}

// handlePasskeyFinishRegistration verifies the attestation and stores the
// credential. ?name= labels it.
func (s *Server) handlePasskeyFinishRegistration(w http.ResponseWriter, r *http.Request) {
	h := s.passkey
	user, _ := auth.UserFromContext(r.Context())

	session, ok := h.take(h.regSessions, user.ID)
	if !ok {
		apiError(w, "no registration in progress", http.StatusBadRequest)
		return
	}

	creds, err := h.passkeys.WebAuthnCredentials(user.ID)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	credential, err := h.wan.FinishRegistration(auth.NewPasskeyUser(user, creds), *session, r)
	if err != nil {
		slog.Warn("finishing registration", "user_id", user.ID, "error", err)
		apiError(w, "registration failed", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "Passkey"
	}

	if err := h.passkeys.Save(user.ID, name, credential); err != nil {
		apiFail(w, r, err)
		return
	}

	slog.Info("passkey registered", "user_id", user.ID)
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusCreated)
}

func (s *Server) handlePasskeyList(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	stored, err := s.passkey.passkeys.ListByUser(user.ID)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	if stored == nil {
		stored = []auth.StoredCredential{}
	}
	apiJSON(w, stored, http.StatusOK)
}

func (s *Server) handlePasskeyDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	err := s.passkey.passkeys.Delete(chi.URLParam(r, "credID"), user.ID)
	if errors.Is(err, auth.ErrCredentialNotFound) {
		apiError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		apiFail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type passkeyLoginBegin struct {
	CeremonyID string                        `json:"ceremony_id"`
	Options    *protocol.CredentialAssertion `json:"options"`
}

// handlePasskeyBeginLogin starts a discoverable passkey login.
func (s *Server) handlePasskeyBeginLogin(w http.ResponseWriter, r *http.Request) {
	h := s.passkey

	assertion, session, err := h.wan.BeginDiscoverableLogin()
	if err != nil {
		slog.Error("beginning passkey login", "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	id := uuid.NewString()
	h.put(h.logins, id, session)
	apiJSON(w, passkeyLoginBegin{CeremonyID: id, Options: assertion}, http.StatusOK)
}

// handlePasskeyFinishLogin verifies the assertion for ?ceremony= and
// starts a session.
func (s *Server) handlePasskeyFinishLogin(w http.ResponseWriter, r *http.Request) {
	h := s.passkey

	session, ok := h.take(h.logins, r.URL.Query().Get("ceremony"))
	if !ok {
		apiError(w, "no login in progress", http.StatusBadRequest)
		return
	}

	var loggedIn *auth.User
	handler := func(rawID, userHandle []byte) (webauthn.User, error) {
		// The user handle is the user ID, set at registration.
		user, err := h.auth.Users().GetByID(string(userHandle))
		if err != nil {
			return nil, protocol.ErrBadRequest.WithDetails("unknown user")
		}
		creds, err := h.passkeys.WebAuthnCredentials(user.ID)
		if err != nil {
			return nil, err
		}
		loggedIn = user
		return auth.NewPasskeyUser(user, creds), nil
	}

	_, credential, err := h.wan.FinishPasskeyLogin(handler, *session, r)
	if err != nil {
		slog.Warn("finishing passkey login", "error", err)
		apiError(w, "login failed", http.StatusUnauthorized)
		return
	}

	if err := h.passkeys.Update(credential); err != nil {
		slog.Warn("updating passkey sign count", "user_id", loggedIn.ID, "error", err)
	}

	id, err := h.auth.StartSession(loggedIn)
	if err != nil {
		apiFail(w, r, err)
		return
	}

	slog.Info("login success", "user_id", loggedIn.ID, "method", "passkey")
	apiJSON(w, id, http.StatusOK)
}
