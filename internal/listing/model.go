// Package listing provides the marketplace listing model, its data access and
// the listing service.
package listing

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evcraddock/keyswap/internal/finance"
)

var (
	ErrNotFound  = errors.New("listing not found")
	ErrForbidden = errors.New("listing belongs to another seller")
	ErrInvalid   = errors.New("invalid listing")
)

// Status is where a listing is in the sale workflow.
type Status string

const (
	StatusActive  Status = "active"
	StatusPending Status = "pending"
	StatusSold    Status = "sold"
)

// ValidStatus returns true if s is a known listing status.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusActive, StatusPending, StatusSold:
		return true
	}
	return false
}

// Draft holds the fields a seller edits.
type Draft struct {
	Title         string   `json:"title"`
	Address       string   `json:"address"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	PropertyType  string   `json:"property_type"`
	Price         float64  `json:"price"`
	Bedrooms      *float64 `json:"bedrooms,omitempty"`
	Bathrooms     *float64 `json:"bathrooms,omitempty"`
	Sqft          *int64   `json:"sqft,omitempty"`
	AnnualRevenue float64  `json:"annual_revenue"`
	AvgOccupancy  *float64 `json:"avg_occupancy,omitempty"`
	NightlyRate   *float64 `json:"nightly_rate,omitempty"`
	StarRating    *float64 `json:"star_rating,omitempty"`
	ReviewCount   int      `json:"review_count"`
	Amenities     []string `json:"amenities"`
}

// Validate checks the draft and trims its text fields.
func (d *Draft) Validate() error {
	d.Title = strings.TrimSpace(d.Title)
	d.Address = strings.TrimSpace(d.Address)
	d.City = strings.TrimSpace(d.City)
	d.State = strings.TrimSpace(d.State)
	d.PropertyType = strings.TrimSpace(d.PropertyType)

	switch {
	case d.Address == "":
		return fmt.Errorf("%w: address is required", ErrInvalid)
	case !(d.Price > 0) || d.Price > finance.MaxAmount:
		return fmt.Errorf("%w: price must be greater than 0 and at most %.0f", ErrInvalid, finance.MaxAmount)
	case !(d.AnnualRevenue >= 0) || d.AnnualRevenue > finance.MaxAmount:
		return fmt.Errorf("%w: annual revenue must be between 0 and %.0f", ErrInvalid, finance.MaxAmount)
	case d.ReviewCount < 0:
		return fmt.Errorf("%w: review count must be 0 or more", ErrInvalid)
	case negative(d.Bedrooms), negative(d.Bathrooms), negative(d.NightlyRate):
		return fmt.Errorf("%w: bedrooms, bathrooms and nightly rate must be 0 or more", ErrInvalid)
	case d.Sqft != nil && *d.Sqft < 0:
		return fmt.Errorf("%w: sqft must be 0 or more", ErrInvalid)
	case outside(d.AvgOccupancy, 0, 100):
		return fmt.Errorf("%w: occupancy must be between 0 and 100", ErrInvalid)
	case outside(d.StarRating, 0, 5):
		return fmt.Errorf("%w: star rating must be between 0 and 5", ErrInvalid)
	}

	amenities := make([]string, 0, len(d.Amenities))
	for _, a := range d.Amenities {
		if a = strings.TrimSpace(a); a != "" {
			amenities = append(amenities, a)
		}
	}
	d.Amenities = amenities
	return nil
}

func negative(f *float64) bool {
	return f != nil && !(*f >= 0)
}

func outside(f *float64, lo, hi float64) bool {
	return f != nil && !(*f >= lo && *f <= hi)
}

// Listing is a property offered for sale.
type Listing struct {
	ID       int64  `json:"id"`
	SellerID string `json:"seller_id"`
	Draft
	Status    Status    `json:"status"`
	Longitude *float64  `json:"longitude,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	PlaceName *string   `json:"place_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasLocation reports whether the listing was geocoded.
func (l *Listing) HasLocation() bool {
	return l.Longitude != nil && l.Latitude != nil
}

// RevPAR is revenue per available rental-night: occupancy times nightly
// rate. Nil when either is unknown.
func (l *Listing) RevPAR() *float64 {
	if l.AvgOccupancy == nil || l.NightlyRate == nil {
		return nil
	}
	v := *l.AvgOccupancy * *l.NightlyRate / 100
	return &v
}

// ValuationInputs maps the listing onto the valuation estimator. Unknown
// numbers count as zero.
func (l *Listing) ValuationInputs() finance.ValuationInputs {
	in := finance.ValuationInputs{
		AnnualRevenue: l.AnnualRevenue,
		NumReviews:    l.ReviewCount,
		Amenities:     l.Amenities,
	}
	if l.Bedrooms != nil {
		in.Bedrooms = *l.Bedrooms
	}
	if l.Bathrooms != nil {
		in.Bathrooms = *l.Bathrooms
	}
	if l.Sqft != nil {
		in.SquareFeet = int(*l.Sqft)
	}
	if l.AvgOccupancy != nil {
		in.AvgOccupancyPercent = *l.AvgOccupancy
	}
	if l.StarRating != nil {
		in.StarRating = *l.StarRating
	}
	return in
}

// scanListing scans a listing from a database row.
func scanListing(row interface{ Scan(...interface{}) error }) (*Listing, error) {
	var l Listing
	var bedrooms, bathrooms, occupancy, nightly, stars, lng, lat sql.NullFloat64
	var sqft sql.NullInt64
	var placeName sql.NullString
	var status, amenities string

	err := row.Scan(
		&l.ID, &l.SellerID, &l.Title, &l.Address, &l.City, &l.State,
		&l.PropertyType, &status, &l.Price, &bedrooms, &bathrooms, &sqft,
		&l.AnnualRevenue, &occupancy, &nightly, &stars, &l.ReviewCount,
		&amenities, &lng, &lat, &placeName, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Status = Status(status)
	l.Bedrooms = nullFloat(bedrooms)
	l.Bathrooms = nullFloat(bathrooms)
	l.AvgOccupancy = nullFloat(occupancy)
	l.NightlyRate = nullFloat(nightly)
	l.StarRating = nullFloat(stars)
	l.Longitude = nullFloat(lng)
	l.Latitude = nullFloat(lat)
	if sqft.Valid {
		l.Sqft = &sqft.Int64
	}
	if placeName.Valid {
		l.PlaceName = &placeName.String
	}
	if err := json.Unmarshal([]byte(amenities), &l.Amenities); err != nil {
		return nil, fmt.Errorf("decoding amenities: %w", err)
	}
	if l.Amenities == nil {
		l.Amenities = []string{}
	}

	return &l, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func encodeAmenities(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}
