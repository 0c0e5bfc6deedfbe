// Package geocode resolves addresses to coordinates through the Mapbox
// Geocoding v5 API, with an optional Redis-backed cache.
package geocode

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/evcraddock/keyswap/internal/metrics"
)

const (
	// DefaultBaseURL is the public Mapbox API host.
	DefaultBaseURL = "https://api.mapbox.com"
	placesPath     = "/geocoding/v5/mapbox.places/"
	maxAttempts    = 4
	placesLimit    = 5
)

var (
	// ErrNotFound is returned when the provider has no match for a query.
	ErrNotFound = errors.New("geocode: no match")
	// ErrUnauthorized is returned when the provider rejects the access token.
	ErrUnauthorized = errors.New("geocode: unauthorized")
)

// Result is one geocoded place.
type Result struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	PlaceName string  `json:"place_name"`
	City      string  `json:"city,omitempty"`
	State     string  `json:"state,omitempty"`
	Country   string  `json:"country,omitempty"`
}

// Point is a longitude/latitude pair used to bias place searches.
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Geocoder is implemented by Client and Cached.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Result, error)
	ReverseGeocode(ctx context.Context, lng, lat float64) (string, error)
	SearchPlaces(ctx context.Context, query string, proximity *Point) ([]Result, error)
}

// Client calls the Mapbox places endpoint.
type Client struct {
	hc      *http.Client
	token   string
	baseURL string
	rl      *rate.Limiter
}

// NewClient creates a client. rps limits outbound requests; values <= 0 use 10.
func NewClient(token, baseURL string, rps float64) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("mapbox token is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if rps <= 0 {
		rps = 10
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		hc:      &http.Client{Timeout: 15 * time.Second},
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		rl:      rate.NewLimiter(rate.Limit(rps), burst),
	}, nil
}

// Geocode returns the best US match for address.
func (c *Client) Geocode(ctx context.Context, address string) (*Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("address is required")
	}

	params := url.Values{"country": {"US"}, "limit": {"1"}}
	var resp placesResponse
	if err := c.get(ctx, "forward", address, params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Features) == 0 {
		return nil, ErrNotFound
	}
	r := resp.Features[0].result()
	return &r, nil
}

// ReverseGeocode returns the place name at the given coordinates.
func (c *Client) ReverseGeocode(ctx context.Context, lng, lat float64) (string, error) {
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return "", fmt.Errorf("coordinates out of range: %v,%v", lng, lat)
	}

	query := formatCoord(lng) + "," + formatCoord(lat)
	var resp placesResponse
	if err := c.get(ctx, "reverse", query, url.Values{"limit": {"1"}}, &resp); err != nil {
		return "", err
	}
	if len(resp.Features) == 0 {
		return "", ErrNotFound
	}
	return resp.Features[0].PlaceName, nil
}

// SearchPlaces returns up to five US cities or localities matching query,
// biased toward proximity when it is set. No match is an empty slice.
func (c *Client) SearchPlaces(ctx context.Context, query string, proximity *Point) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Result{}, nil
	}

	params := url.Values{
		"country": {"US"},
		"limit":   {strconv.Itoa(placesLimit)},
		"types":   {"place,locality"},
	}
	if proximity != nil {
		params.Set("proximity", formatCoord(proximity.Longitude)+","+formatCoord(proximity.Latitude))
	}

	var resp placesResponse
	if err := c.get(ctx, "places", query, params, &resp); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(resp.Features))
	for _, f := range resp.Features {
		results = append(results, f.result())
	}
	return results, nil
}

type placesResponse struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	PlaceName string    `json:"place_name"`
	Center    []float64 `json:"center"`
	Context   []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"context"`
}

func (f feature) result() Result {
	r := Result{PlaceName: f.PlaceName}
	if len(f.Center) == 2 {
		r.Longitude, r.Latitude = f.Center[0], f.Center[1]
	}
	// A place-type feature is its own city.
	if strings.HasPrefix(f.ID, "place") {
		r.City = f.Text
	}
	for _, item := range f.Context {
		switch {
		case strings.HasPrefix(item.ID, "place"):
			r.City = item.Text
		case strings.HasPrefix(item.ID, "region"):
			r.State = item.Text
		case strings.HasPrefix(item.ID, "country"):
			r.Country = item.Text
		}
	}
	return r
}

// get performs a rate-limited GET with retries on 429 and transient 5xx,
// honoring Retry-After, and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint, query string, params url.Values, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	params.Set("access_token", c.token)
	u := c.baseURL + placesPath + url.PathEscape(query) + ".json?" + params.Encode()

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			metrics.ObserveExternal("mapbox", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("sending request: %w", err)
			if i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return lastErr
		}
		metrics.ObserveExternal("mapbox", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			closeBody(resp)
			if err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
			return nil

		case http.StatusNotFound:
			closeBody(resp)
			return ErrNotFound

		case http.StatusUnauthorized, http.StatusForbidden:
			closeBody(resp)
			return ErrUnauthorized

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			closeBody(resp)
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("mapbox returned %d", resp.StatusCode)
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			closeBody(resp)
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After in seconds or HTTP-date form. 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	return base + time.Duration(0.5*float64(b[0])/255.0*float64(base))
}
