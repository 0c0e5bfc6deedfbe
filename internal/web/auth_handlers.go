package web

import (
	"net/http"

	"github.com/evcraddock/keyswap/internal/auth"
)

type signupRequest struct {
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Name     string    `json:"name"`
	Role     auth.Role `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := s.deps.Auth.Signup(req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, id, http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := s.deps.Auth.Login(req.Email, req.Password)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, id, http.StatusOK)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Auth.Logout(auth.TokenFromContext(r.Context())); err != nil {
		apiFail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSession returns the signed-in user.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	apiJSON(w, user, http.StatusOK)
}
