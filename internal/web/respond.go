package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/evcraddock/keyswap/internal/auth"
	"github.com/evcraddock/keyswap/internal/finance"
	"github.com/evcraddock/keyswap/internal/geocode"
	"github.com/evcraddock/keyswap/internal/inquiry"
	"github.com/evcraddock/keyswap/internal/listing"
	"github.com/evcraddock/keyswap/internal/manager"
	"github.com/evcraddock/keyswap/internal/market"
)

const maxBodyBytes = 1 << 20

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code. A value that
// cannot be encoded becomes a 500 instead of a truncated body.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("encoding response", "error", err)
		code = http.StatusInternalServerError
		body = []byte(`{"error":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Warn("writing response", "error", err)
	}
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is required")
		}
		return fmt.Errorf("invalid JSON body: %v", err)
	}
	return nil
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// apiFail maps a service error to a status code and writes it. Unknown
// errors are logged and reported as 500 without detail.
func apiFail(w http.ResponseWriter, r *http.Request, err error) {
	code := errorStatus(err)
	if code == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		apiError(w, "internal error", code)
		return
	}
	apiError(w, err.Error(), code)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, finance.ErrInvalidInput),
		errors.Is(err, listing.ErrInvalid),
		errors.Is(err, inquiry.ErrInvalid),
		errors.Is(err, auth.ErrInvalidSignup):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden),
		errors.Is(err, listing.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, listing.ErrNotFound),
		errors.Is(err, manager.ErrNotFound),
		errors.Is(err, market.ErrNotFound),
		errors.Is(err, geocode.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, geocode.ErrUnauthorized):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
