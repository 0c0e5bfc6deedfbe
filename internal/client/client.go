// Package client provides an HTTP client for the Keyswap REST API.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/evcraddock/keyswap/internal/auth"
	"github.com/evcraddock/keyswap/internal/finance"
	"github.com/evcraddock/keyswap/internal/geocode"
	"github.com/evcraddock/keyswap/internal/inquiry"
	"github.com/evcraddock/keyswap/internal/listing"
	"github.com/evcraddock/keyswap/internal/manager"
	"github.com/evcraddock/keyswap/internal/market"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// Client is an HTTP client for the Keyswap API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new API client. token may be empty for public endpoints.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Health checks that the server is up.
func (c *Client) Health() error {
	return c.get("/health", nil)
}

// Signup creates an account and returns its first session.
func (c *Client) Signup(email, password, name string, role auth.Role) (*auth.Identity, error) {
	body := map[string]string{"email": email, "password": password, "name": name, "role": string(role)}
	var id auth.Identity
	if err := c.send(http.MethodPost, "/api/auth/signup", body, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// Login signs in with email and password.
func (c *Client) Login(email, password string) (*auth.Identity, error) {
	body := map[string]string{"email": email, "password": password}
	var id auth.Identity
	if err := c.send(http.MethodPost, "/api/auth/login", body, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// Logout revokes the client's session.
func (c *Client) Logout() error {
	return c.send(http.MethodPost, "/api/auth/logout", nil, nil)
}

// Session returns the signed-in user.
func (c *Client) Session() (*auth.User, error) {
	var u auth.User
	if err := c.get("/api/auth/session", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ProfitRequest is the body of POST /api/estimates/profit. DownPayment is
// free-form text such as "$80,000".
type ProfitRequest struct {
	PurchasePrice       float64  `json:"purchase_price"`
	DownPayment         string   `json:"down_payment,omitempty"`
	AnnualRevenue       float64  `json:"annual_revenue"`
	InterestRatePercent *float64 `json:"interest_rate_percent,omitempty"`
	LoanTermYears       *int     `json:"loan_term_years,omitempty"`
}

// EstimateProfit runs the profit calculator on the server.
func (c *Client) EstimateProfit(req ProfitRequest) (*finance.ProfitEstimate, error) {
	var est finance.ProfitEstimate
	if err := c.send(http.MethodPost, "/api/estimates/profit", req, &est); err != nil {
		return nil, err
	}
	return &est, nil
}

// EstimateValue runs the valuation estimator on the server.
func (c *Client) EstimateValue(in finance.ValuationInputs) (*finance.Valuation, error) {
	var v finance.Valuation
	if err := c.send(http.MethodPost, "/api/valuations", in, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Amenities returns the amenity catalog.
func (c *Client) Amenities() ([]finance.AmenityCategory, error) {
	var cats []finance.AmenityCategory
	if err := c.get("/api/amenities", &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// ROIRequest is the body of POST /api/estimates/roi. Nil fields take the
// server defaults, or the market's figures when Market is set.
type ROIRequest struct {
	Market           string   `json:"market,omitempty"`
	PurchasePrice    *float64 `json:"purchase_price,omitempty"`
	DownPayment      *float64 `json:"down_payment,omitempty"`
	NightlyRate      *float64 `json:"nightly_rate,omitempty"`
	OccupancyPercent *float64 `json:"occupancy_percent,omitempty"`
	ExpensePercent   *float64 `json:"expense_percent,omitempty"`
}

// ROIResult is the estimate along with the inputs the server used.
type ROIResult struct {
	Market string            `json:"market,omitempty"`
	Inputs finance.ROIInputs `json:"inputs"`
	finance.ROIEstimate
}

// EstimateROI runs the market return calculator on the server.
func (c *Client) EstimateROI(req ROIRequest) (*ROIResult, error) {
	var res ROIResult
	if err := c.send(http.MethodPost, "/api/estimates/roi", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Markets returns the market statistics catalog.
func (c *Client) Markets() ([]*market.Market, error) {
	var markets []*market.Market
	if err := c.get("/api/markets", &markets); err != nil {
		return nil, err
	}
	return markets, nil
}

// Market returns one market by slug, such as "austin-tx".
func (c *Client) Market(id string) (*market.Market, error) {
	var m market.Market
	if err := c.get("/api/markets/"+url.PathEscape(id), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// CompareMarkets returns the cross-market table. An empty sortBy keeps
// catalog order.
func (c *Client) CompareMarkets(sortBy string) ([]market.Comparison, error) {
	q := url.Values{}
	if sortBy != "" {
		q.Set("sort", sortBy)
	}
	var rows []market.Comparison
	if err := c.get(withQuery("/api/markets/compare", q), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Managers returns the managers serving location, or the whole catalog
// when location is empty. limit <= 0 uses the server default.
func (c *Client) Managers(location string, limit int) ([]*manager.Manager, error) {
	q := url.Values{}
	if location != "" {
		q.Set("location", location)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var managers []*manager.Manager
	if err := c.get(withQuery("/api/managers", q), &managers); err != nil {
		return nil, err
	}
	return managers, nil
}

// FeaturedManager returns the best-rated manager serving location.
func (c *Client) FeaturedManager(location string) (*manager.Manager, error) {
	var m manager.Manager
	if err := c.get(withQuery("/api/managers/featured", url.Values{"location": {location}}), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Manager returns one manager.
func (c *Client) Manager(id int64) (*manager.Manager, error) {
	var m manager.Manager
	if err := c.get(fmt.Sprintf("/api/managers/%d", id), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Contact is the sender side of an inquiry.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message"`
}

// ContactManager sends an inquiry to a property manager.
func (c *Client) ContactManager(id int64, contact Contact) (*inquiry.Inquiry, error) {
	var in inquiry.Inquiry
	if err := c.send(http.MethodPost, fmt.Sprintf("/api/managers/%d/inquiries", id), contact, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// Geocode resolves an address.
func (c *Client) Geocode(address string) (*geocode.Result, error) {
	var res geocode.Result
	if err := c.get(withQuery("/api/geocode", url.Values{"address": {address}}), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ReverseGeocode returns the place name at a coordinate.
func (c *Client) ReverseGeocode(lng, lat float64) (string, error) {
	q := url.Values{
		"lng": {strconv.FormatFloat(lng, 'f', -1, 64)},
		"lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
	}
	var resp struct {
		PlaceName string `json:"place_name"`
	}
	if err := c.get(withQuery("/api/geocode/reverse", q), &resp); err != nil {
		return "", err
	}
	return resp.PlaceName, nil
}

// SearchPlaces autocompletes city names.
func (c *Client) SearchPlaces(query string) ([]geocode.Result, error) {
	var results []geocode.Result
	if err := c.get(withQuery("/api/places", url.Values{"q": {query}}), &results); err != nil {
		return nil, err
	}
	return results, nil
}

// ListOptions filters ListListings. Zero values are not sent.
type ListOptions struct {
	Location     string
	PropertyType string
	Status       listing.Status
	MinPrice     float64
	MaxPrice     float64
	Amenities    []string
	MinReturn    float64
	Mine         bool
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Location != "" {
		q.Set("location", o.Location)
	}
	if o.PropertyType != "" {
		q.Set("type", o.PropertyType)
	}
	if o.Status != "" {
		q.Set("status", string(o.Status))
	}
	if o.MinPrice > 0 {
		q.Set("min_price", strconv.FormatFloat(o.MinPrice, 'f', -1, 64))
	}
	if o.MaxPrice > 0 {
		q.Set("max_price", strconv.FormatFloat(o.MaxPrice, 'f', -1, 64))
	}
	for _, a := range o.Amenities {
		q.Add("amenity", a)
	}
	if o.MinReturn != 0 {
		q.Set("min_return", strconv.FormatFloat(o.MinReturn, 'f', -1, 64))
	}
	return q
}

// ListListings searches listings. With Mine set it lists the signed-in
// seller's own listings.
func (c *Client) ListListings(opts ListOptions) ([]*listing.Listing, error) {
	path := "/api/listings"
	if opts.Mine {
		path = "/api/me/listings"
	}
	var listings []*listing.Listing
	if err := c.get(withQuery(path, opts.query()), &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// GetListing returns one listing.
func (c *Client) GetListing(id int64) (*listing.Listing, error) {
	var l listing.Listing
	if err := c.get(fmt.Sprintf("/api/listings/%d", id), &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateListing publishes a new listing.
func (c *Client) CreateListing(d listing.Draft) (*listing.Listing, error) {
	var l listing.Listing
	if err := c.send(http.MethodPost, "/api/listings", d, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateListing replaces a listing's editable fields.
func (c *Client) UpdateListing(id int64, d listing.Draft) (*listing.Listing, error) {
	var l listing.Listing
	if err := c.send(http.MethodPut, fmt.Sprintf("/api/listings/%d", id), d, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// SetListingStatus moves a listing through the sale workflow.
func (c *Client) SetListingStatus(id int64, status listing.Status) (*listing.Listing, error) {
	body := map[string]string{"status": string(status)}
	var l listing.Listing
	if err := c.send(http.MethodPatch, fmt.Sprintf("/api/listings/%d/status", id), body, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// DeleteListing removes a listing.
func (c *Client) DeleteListing(id int64) error {
	return c.send(http.MethodDelete, fmt.Sprintf("/api/listings/%d", id), nil, nil)
}

// AnalyzeListing runs the calculators on a listing. An empty downPayment
// uses the server default.
func (c *Client) AnalyzeListing(id int64, downPayment string) (*listing.Analysis, error) {
	q := url.Values{}
	if downPayment != "" {
		q.Set("down_payment", downPayment)
	}
	var a listing.Analysis
	if err := c.get(withQuery(fmt.Sprintf("/api/listings/%d/analysis", id), q), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ContactSeller sends an inquiry about a listing.
func (c *Client) ContactSeller(id int64, contact Contact) (*inquiry.Inquiry, error) {
	var in inquiry.Inquiry
	if err := c.send(http.MethodPost, fmt.Sprintf("/api/listings/%d/inquiries", id), contact, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// ListingInquiries returns the inquiries on one of the seller's listings.
func (c *Client) ListingInquiries(id int64) ([]*inquiry.Inquiry, error) {
	var inquiries []*inquiry.Inquiry
	if err := c.get(fmt.Sprintf("/api/listings/%d/inquiries", id), &inquiries); err != nil {
		return nil, err
	}
	return inquiries, nil
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// get performs a GET request and decodes the response.
func (c *Client) get(path string, result interface{}) error {
	return c.send(http.MethodGet, path, nil, result)
}

// send performs a request with an optional JSON body and decodes the response.
func (c *Client) send(method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, result)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "error", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: "server error: " + http.StatusText(resp.StatusCode)}
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
