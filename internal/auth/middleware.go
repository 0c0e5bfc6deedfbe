package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type ctxKey int

const (
	userKey ctxKey = iota
	tokenKey
)

// UserFromContext returns the user put in the context by RequireUser.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userKey).(*User)
	return u, ok
}

// TokenFromContext returns the raw bearer token RequireUser accepted.
func TokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey).(string)
	return t
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// RequireUser is middleware that rejects requests without a valid bearer
// token and puts the user into the request context.
func RequireUser(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "authorization required")
				return
			}

			user, _, err := svc.CurrentSession(token)
			if err != nil {
				if errors.Is(err, ErrInvalidToken) {
					writeError(w, http.StatusUnauthorized, ErrInvalidToken.Error())
					return
				}
				slog.Error("resolving session", "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			ctx := WithUser(r.Context(), user)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole is middleware that allows only users with one of roles.
// It must run after RequireUser.
func RequireRole(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "authorization required")
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, ErrForbidden.Error())
		})
	}
}

// Throttle limits requests per client IP with a token bucket.
type Throttle struct {
	limit rate.Limit
	burst int

	mu        sync.Mutex
	clients   map[string]*throttleEntry
	lastSweep time.Time
}

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	// idleAfter is how long an IP's bucket is kept after its last request.
	idleAfter = 10 * time.Minute
	// sweepEvery spaces out the scans for idle buckets.
	sweepEvery = time.Minute
)

// NewThrottle allows perSecond sustained requests per IP with bursts of burst.
func NewThrottle(perSecond float64, burst int) *Throttle {
	return &Throttle{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		clients: make(map[string]*throttleEntry),
	}
}

// Allow reports whether a request from ip may proceed now.
func (t *Throttle) Allow(ip string) bool {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Sub(t.lastSweep) >= sweepEvery {
		for k, e := range t.clients {
			if now.Sub(e.lastSeen) > idleAfter {
				delete(t.clients, k)
			}
		}
		t.lastSweep = now
	}

	e, ok := t.clients[ip]
	if !ok {
		e = &throttleEntry{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.clients[ip] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Middleware returns 429 once an IP exceeds its budget. The IP is the
// request's RemoteAddr; forwarding headers are only honored when a proxy
// middleware has already rewritten RemoteAddr from them.
func (t *Throttle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		slog.Error("encoding error response", "error", err)
	}
}
