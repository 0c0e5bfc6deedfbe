package web

import (
	"net/http"
	"testing"

	"github.com/evcraddock/keyswap/internal/geocode"
)

func TestGeocodeNotConfigured(t *testing.T) {
	srv, _ := testServer(t, nil)

	for _, path := range []string{
		"/api/geocode?address=1%20Main%20St",
		"/api/geocode/reverse?lng=-97.7&lat=30.2",
		"/api/places?q=austin",
	} {
		expectStatus(t, apiRequest(t, srv, http.MethodGet, path, "", nil), http.StatusServiceUnavailable)
	}
}

func TestGeocode(t *testing.T) {
	srv, _ := testServer(t, func(d *Deps) { d.Geocoder = stubGeocoder{} })

	w := apiRequest(t, srv, http.MethodGet, "/api/geocode?address=1%20Main%20St", "", nil)
	expectStatus(t, w, http.StatusOK)
	var res geocode.Result
	decodeBody(t, w, &res)
	if res.City != "Austin" || res.Longitude != -97.74 {
		t.Errorf("result = %+v", res)
	}

	expectStatus(t, apiRequest(t, srv, http.MethodGet, "/api/geocode", "", nil), http.StatusBadRequest)
	expectStatus(t, apiRequest(t, srv, http.MethodGet, "/api/geocode?address=nowhere", "", nil), http.StatusNotFound)
}

func TestReverseGeocode(t *testing.T) {
	srv, _ := testServer(t, func(d *Deps) { d.Geocoder = stubGeocoder{} })

	w := apiRequest(t, srv, http.MethodGet, "/api/geocode/reverse?lng=-97.7431&lat=30.2672", "", nil)
	expectStatus(t, w, http.StatusOK)
	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["place_name"] != "Austin, Texas, United States" {
		t.Errorf("place_name = %q", resp["place_name"])
	}

	expectStatus(t, apiRequest(t, srv, http.MethodGet, "/api/geocode/reverse?lng=x&lat=1", "", nil), http.StatusBadRequest)
}

func TestSearchPlaces(t *testing.T) {
	srv, _ := testServer(t, func(d *Deps) { d.Geocoder = stubGeocoder{} })

	w := apiRequest(t, srv, http.MethodGet, "/api/places?q=aus&near=-97.7,30.2", "", nil)
	expectStatus(t, w, http.StatusOK)
	var results []geocode.Result
	decodeBody(t, w, &results)
	if len(results) != 1 || results[0].City != "Austin" {
		t.Errorf("results = %+v", results)
	}

	expectStatus(t, apiRequest(t, srv, http.MethodGet, "/api/places?q=aus&near=bad", "", nil), http.StatusBadRequest)
}

func TestParsePoint(t *testing.T) {
	tests := []struct {
		in      string
		want    *geocode.Point
		wantErr bool
	}{
		{in: "-97.5,30.25", want: &geocode.Point{Longitude: -97.5, Latitude: 30.25}},
		{in: " -97.5 , 30.25 ", want: &geocode.Point{Longitude: -97.5, Latitude: 30.25}},
		{in: "-97.5", wantErr: true},
		{in: "a,b", wantErr: true},
		{in: "1,b", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parsePoint(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parsePoint(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parsePoint(%q): %v", tt.in, err)
			continue
		}
		if *got != *tt.want {
			t.Errorf("parsePoint(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
