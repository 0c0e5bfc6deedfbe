package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/evcraddock/keyswap/internal/auth"
	"github.com/evcraddock/keyswap/internal/config"
	"github.com/evcraddock/keyswap/internal/db"
	"github.com/evcraddock/keyswap/internal/finance"
	"github.com/evcraddock/keyswap/internal/geocode"
	"github.com/evcraddock/keyswap/internal/inquiry"
	"github.com/evcraddock/keyswap/internal/listing"
	"github.com/evcraddock/keyswap/internal/manager"
	"github.com/evcraddock/keyswap/internal/market"
	"github.com/evcraddock/keyswap/internal/metrics"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// testServer builds a server over a fresh database with the manager catalog
// and market statistics seeded. mutate may adjust the dependencies before
// the server is built. A geocoder set by mutate is also handed to the
// listing service.
func testServer(t *testing.T, mutate func(*Deps)) (*Server, *sql.DB) {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})

	managers := manager.NewRepository(d)
	if _, err := managers.SeedIfEmpty(); err != nil {
		t.Fatalf("seed managers: %v", err)
	}
	dir, err := manager.LoadDirectory(managers)
	if err != nil {
		t.Fatalf("load directory: %v", err)
	}
	markets := market.NewRepository(d)
	if _, err := markets.SeedIfEmpty(); err != nil {
		t.Fatalf("seed markets: %v", err)
	}

	authSvc := auth.NewService(auth.NewUserStore(d), auth.NewSessionStore(d), auth.NewTokenIssuer(testSecret), time.Hour)
	deps := Deps{
		Auth:        authSvc,
		Passkeys:    auth.NewPasskeyStore(d),
		Listings:    listing.NewService(listing.NewRepository(d), nil, finance.DefaultAssumptions(), finance.ParsePermissive),
		Managers:    dir,
		Markets:     markets,
		Inquiries:   inquiry.NewService(inquiry.NewRepository(d), inquiry.NewNotifier(config.SMTP{}, true)),
		Registry:    metrics.InitRegistry(),
		Assumptions: finance.DefaultAssumptions(),
		ParsePolicy: finance.ParsePermissive,
		BaseURL:     "http://localhost:8080",
	}
	if mutate != nil {
		mutate(&deps)
	}
	if deps.Geocoder != nil {
		deps.Listings = listing.NewService(listing.NewRepository(d), deps.Geocoder, deps.Assumptions, deps.ParsePolicy)
	}

	srv, err := NewServer(deps)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv, d
}

func apiRequest(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	reqBody := &bytes.Buffer{}
	if body != nil {
		if s, ok := body.(string); ok {
			reqBody.WriteString(s)
		} else if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}

	r := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(dst); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, want, w.Body.String())
	}
}

// signup creates an account over the API and returns its access token.
func signup(t *testing.T, srv *Server, email string, role auth.Role) string {
	t.Helper()
	w := apiRequest(t, srv, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": email, "password": "secret123", "name": "Test " + string(role), "role": string(role),
	})
	expectStatus(t, w, http.StatusCreated)

	var id auth.Identity
	decodeBody(t, w, &id)
	if id.AccessToken == "" {
		t.Fatal("signup returned no access token")
	}
	return id.AccessToken
}

type stubGeocoder struct{}

func (stubGeocoder) Geocode(ctx context.Context, address string) (*geocode.Result, error) {
	if address == "nowhere" {
		return nil, geocode.ErrNotFound
	}
	return &geocode.Result{Longitude: -97.74, Latitude: 30.27, PlaceName: address + ", Austin, Texas", City: "Austin", State: "Texas"}, nil
}

func (stubGeocoder) ReverseGeocode(ctx context.Context, lng, lat float64) (string, error) {
	return "Austin, Texas, United States", nil
}

func (stubGeocoder) SearchPlaces(ctx context.Context, query string, proximity *geocode.Point) ([]geocode.Result, error) {
	return []geocode.Result{{PlaceName: "Austin, Texas, United States", City: "Austin"}}, nil
}
