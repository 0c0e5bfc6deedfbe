package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/evcraddock/keyswap/internal/geocode"
)

func (s *Server) geocoder(w http.ResponseWriter) (geocode.Geocoder, bool) {
	if s.deps.Geocoder == nil {
		apiError(w, "geocoding is not configured", http.StatusServiceUnavailable)
		return nil, false
	}
	return s.deps.Geocoder, true
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	g, ok := s.geocoder(w)
	if !ok {
		return
	}

	address := r.URL.Query().Get("address")
	if address == "" {
		apiError(w, "address is required", http.StatusBadRequest)
		return
	}

	res, err := g.Geocode(r.Context(), address)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, res, http.StatusOK)
}

func (s *Server) handleReverseGeocode(w http.ResponseWriter, r *http.Request) {
	g, ok := s.geocoder(w)
	if !ok {
		return
	}

	lng, errLng := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if errLng != nil || errLat != nil {
		apiError(w, "lng and lat must be numbers", http.StatusBadRequest)
		return
	}

	name, err := g.ReverseGeocode(r.Context(), lng, lat)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, map[string]string{"place_name": name}, http.StatusOK)
}

// handleSearchPlaces serves ?q= with an optional ?near=lng,lat bias.
func (s *Server) handleSearchPlaces(w http.ResponseWriter, r *http.Request) {
	g, ok := s.geocoder(w)
	if !ok {
		return
	}

	var proximity *geocode.Point
	if near := r.URL.Query().Get("near"); near != "" {
		p, err := parsePoint(near)
		if err != nil {
			apiError(w, "near must be lng,lat", http.StatusBadRequest)
			return
		}
		proximity = p
	}

	results, err := g.SearchPlaces(r.Context(), r.URL.Query().Get("q"), proximity)
	if err != nil {
		apiFail(w, r, err)
		return
	}
	apiJSON(w, results, http.StatusOK)
}

func parsePoint(s string) (*geocode.Point, error) {
	lngStr, latStr, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("missing comma in %q", s)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return nil, err
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return nil, err
	}
	return &geocode.Point{Longitude: lng, Latitude: lat}, nil
}
