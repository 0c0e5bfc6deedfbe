package geocode

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

const austinFeature = `{
	"features": [{
		"id": "address.123",
		"text": "Congress Ave",
		"place_name": "100 Congress Ave, Austin, Texas 78701, United States",
		"center": [-97.7431, 30.2672],
		"context": [
			{"id": "postcode.1", "text": "78701"},
			{"id": "place.2", "text": "Austin"},
			{"id": "region.3", "text": "Texas"},
			{"id": "country.4", "text": "United States"}
		]
	}]
}`

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient("test-token", srv.URL, 100)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"valid token", "pk.test", false},
		{"empty token", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.token, "", 0)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.baseURL != DefaultBaseURL {
				t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
			}
		})
	}
}

func TestGeocode(t *testing.T) {
	var gotPath, gotQuery string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotQuery = r.URL.RawQuery
		_, _ = fmt.Fprint(w, austinFeature)
	})

	got, err := c.Geocode(context.Background(), "100 Congress Ave, Austin")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}

	if gotPath != "/geocoding/v5/mapbox.places/100%20Congress%20Ave%2C%20Austin.json" {
		t.Errorf("path = %q", gotPath)
	}
	for _, want := range []string{"access_token=test-token", "country=US", "limit=1"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}

	want := Result{
		Longitude: -97.7431,
		Latitude:  30.2672,
		PlaceName: "100 Congress Ave, Austin, Texas 78701, United States",
		City:      "Austin",
		State:     "Texas",
		Country:   "United States",
	}
	if *got != want {
		t.Errorf("Geocode = %+v, want %+v", *got, want)
	}
}

func TestGeocodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"no features", http.StatusOK, `{"features": []}`, ErrNotFound},
		{"not found", http.StatusNotFound, `{}`, ErrNotFound},
		{"bad token", http.StatusUnauthorized, `{"message": "Not Authorized"}`, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, `{}`, ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, tt.body)
			})

			_, err := c.Geocode(context.Background(), "somewhere")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGeocodeBadRequest(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = fmt.Fprint(w, `{"message": "Query too long"}`)
	})

	_, err := c.Geocode(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "Query too long") {
		t.Errorf("err = %v, want body in message", err)
	}
}

func TestGeocodeRequiresAddress(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	})
	if _, err := c.Geocode(context.Background(), "   "); err == nil {
		t.Error("expected error for blank address")
	}
}

func TestGeocodeRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, austinFeature)
	})

	got, err := c.Geocode(context.Background(), "Austin")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if got.City != "Austin" {
		t.Errorf("City = %q", got.City)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestGeocodeStopsOnCanceledContext(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Geocode(ctx, "Austin"); err == nil {
		t.Error("expected error from canceled context")
	}
}

func TestReverseGeocode(t *testing.T) {
	var gotPath string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = fmt.Fprint(w, austinFeature)
	})

	name, err := c.ReverseGeocode(context.Background(), -97.7431, 30.2672)
	if err != nil {
		t.Fatalf("ReverseGeocode: %v", err)
	}
	if gotPath != "/geocoding/v5/mapbox.places/-97.7431,30.2672.json" {
		t.Errorf("path = %q", gotPath)
	}
	if !strings.HasPrefix(name, "100 Congress Ave") {
		t.Errorf("name = %q", name)
	}

	if _, err := c.ReverseGeocode(context.Background(), 200, 0); err == nil {
		t.Error("expected error for out-of-range longitude")
	}
}

func TestSearchPlaces(t *testing.T) {
	var gotQuery string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = fmt.Fprint(w, `{"features": [
			{"id": "place.1", "text": "Austin", "place_name": "Austin, Texas, United States",
			 "center": [-97.74, 30.27],
			 "context": [{"id": "region.1", "text": "Texas"}, {"id": "country.1", "text": "United States"}]},
			{"id": "place.2", "text": "Austin", "place_name": "Austin, Minnesota, United States",
			 "center": [-92.97, 43.67],
			 "context": [{"id": "region.2", "text": "Minnesota"}]}
		]}`)
	})

	got, err := c.SearchPlaces(context.Background(), "austin", &Point{Longitude: -97.7, Latitude: 30.3})
	if err != nil {
		t.Fatalf("SearchPlaces: %v", err)
	}
	for _, want := range []string{"types=place%2Clocality", "limit=5", "proximity=-97.7%2C30.3"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].City != "Austin" || got[0].State != "Texas" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].State != "Minnesota" {
		t.Errorf("second state = %q", got[1].State)
	}
}

func TestSearchPlacesBlankQuery(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	})
	got, err := c.SearchPlaces(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("SearchPlaces: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty slice", got)
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"2", true},
		{"soon", false},
	}
	for _, tt := range tests {
		resp := &http.Response{Header: http.Header{}}
		if tt.header != "" {
			resp.Header.Set("Retry-After", tt.header)
		}
		if got := retryAfter(resp) > 0; got != tt.want {
			t.Errorf("retryAfter(%q) > 0 = %v, want %v", tt.header, got, tt.want)
		}
	}
}
