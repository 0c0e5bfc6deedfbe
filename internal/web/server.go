// Package web provides the Keyswap HTTP JSON API.
package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/evcraddock/keyswap/internal/auth"
	"github.com/evcraddock/keyswap/internal/finance"
	"github.com/evcraddock/keyswap/internal/geocode"
	"github.com/evcraddock/keyswap/internal/inquiry"
	"github.com/evcraddock/keyswap/internal/listing"
	"github.com/evcraddock/keyswap/internal/logging"
	"github.com/evcraddock/keyswap/internal/manager"
	"github.com/evcraddock/keyswap/internal/market"
	"github.com/evcraddock/keyswap/internal/metrics"
)

// requestTimeout bounds every request, including outbound geocoding.
const requestTimeout = 30 * time.Second

// Deps are the services the API is built on.
type Deps struct {
	Auth      *auth.Service
	Passkeys  *auth.PasskeyStore
	Listings  *listing.Service
	Managers  *manager.Directory
	Inquiries *inquiry.Service

	// Geocoder is optional. Without it the geocoding endpoints return 503.
	Geocoder geocode.Geocoder
	// Markets is optional. Without it the market endpoints return 503.
	Markets *market.Repository
	// Registry is optional. With it the server exposes /metrics.
	Registry *prometheus.Registry
	// Throttle guards signup and login. Nil disables throttling.
	Throttle *auth.Throttle

	Assumptions finance.Assumptions
	ParsePolicy finance.ParsePolicy

	// BaseURL is the public origin, used as the WebAuthn relying party.
	BaseURL string
	// TrustProxy takes the client address from X-Forwarded-For and
	// X-Real-IP. Only set it behind a proxy that overwrites those headers.
	TrustProxy bool
}

// Server is the API HTTP handler.
type Server struct {
	deps    Deps
	router  chi.Router
	passkey *passkeyHandlers
}

// NewServer builds the router.
func NewServer(deps Deps) (*Server, error) {
	if deps.Auth == nil || deps.Listings == nil || deps.Managers == nil || deps.Inquiries == nil {
		return nil, fmt.Errorf("auth, listing, manager and inquiry services are required")
	}

	s := &Server{deps: deps}

	if deps.Passkeys != nil && deps.BaseURL != "" {
		ph, err := newPasskeyHandlers(deps.BaseURL, deps.Auth, deps.Passkeys)
		if err != nil {
			return nil, fmt.Errorf("configuring passkeys: %w", err)
		}
		s.passkey = ph
	}

	s.router = s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if s.deps.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(logging.RequestLogger)
	r.Use(metrics.Middleware)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	r.Get("/health", s.handleHealth)
	if s.deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(s.deps.Registry))
	}

	requireUser := auth.RequireUser(s.deps.Auth)
	requireSeller := auth.RequireRole(auth.RoleSeller)

	r.Route("/api", func(r chi.Router) {
		r.Post("/estimates/profit", s.handleProfit)
		r.Post("/valuations", s.handleValuation)
		r.Post("/estimates/roi", s.handleROI)
		r.Get("/amenities", s.handleAmenities)

		r.Route("/markets", func(r chi.Router) {
			r.Get("/", s.handleListMarkets)
			r.Get("/compare", s.handleCompareMarkets)
			r.Get("/{id}", s.handleGetMarket)
		})

		r.Route("/managers", func(r chi.Router) {
			r.Get("/", s.handleListManagers)
			r.Get("/featured", s.handleFeaturedManager)
			r.Get("/{id}", s.handleGetManager)
			r.Post("/{id}/inquiries", s.handleManagerInquiry)
		})

		r.Get("/geocode", s.handleGeocode)
		r.Get("/geocode/reverse", s.handleReverseGeocode)
		r.Get("/places", s.handleSearchPlaces)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if s.deps.Throttle != nil {
					r.Use(s.deps.Throttle.Middleware)
				}
				r.Post("/signup", s.handleSignup)
				r.Post("/login", s.handleLogin)
			})
			r.With(requireUser).Post("/logout", s.handleLogout)
			r.With(requireUser).Get("/session", s.handleSession)

			r.Route("/passkey", func(r chi.Router) {
				r.Use(s.requirePasskeys)
				r.With(requireUser).Post("/register/begin", s.handlePasskeyBeginRegistration)
				r.With(requireUser).Post("/register/finish", s.handlePasskeyFinishRegistration)
				r.With(requireUser).Get("/credentials", s.handlePasskeyList)
				r.With(requireUser).Delete("/credentials/{credID}", s.handlePasskeyDelete)
				r.Post("/login/begin", s.handlePasskeyBeginLogin)
				r.Post("/login/finish", s.handlePasskeyFinishLogin)
			})
		})

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", s.handleListListings)
			r.With(requireUser, requireSeller).Post("/", s.handleCreateListing)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetListing)
				r.Get("/analysis", s.handleAnalyzeListing)
				r.Post("/inquiries", s.handleListingInquiry)

				r.Group(func(r chi.Router) {
					r.Use(requireUser, requireSeller)
					r.Put("/", s.handleUpdateListing)
					r.Patch("/status", s.handleListingStatus)
					r.Delete("/", s.handleDeleteListing)
					r.Get("/inquiries", s.handleListListingInquiries)
				})
			})
		})

		r.With(requireUser, requireSeller).Get("/me/listings", s.handleMyListings)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
