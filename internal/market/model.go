// Package market provides the STR market statistics catalog and the
// cross-market comparison.
package market

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/evcraddock/keyswap/internal/finance"
)

// ErrNotFound is returned when a market does not exist.
var ErrNotFound = errors.New("market not found")

// Market holds the headline short-term-rental statistics for one metro.
// ID is a slug such as "austin-tx". Percentages are 0-100.
type Market struct {
	ID                string         `json:"id" yaml:"id"`
	Name              string         `json:"name" yaml:"name"`
	MedianPrice       float64        `json:"median_price" yaml:"median_price"`
	PriceChange       float64        `json:"price_change" yaml:"price_change"`
	MedianNightlyRate float64        `json:"median_nightly_rate" yaml:"median_nightly_rate"`
	AvgOccupancy      float64        `json:"avg_occupancy" yaml:"avg_occupancy"`
	RevPAR            float64        `json:"revpar" yaml:"revpar"`
	DaysOnMarket      int            `json:"days_on_market" yaml:"days_on_market"`
	TotalListings     int            `json:"total_listings" yaml:"total_listings"`
	NewListings       int            `json:"new_listings" yaml:"new_listings"`
	InventoryMonths   float64        `json:"inventory_months" yaml:"inventory_months"`
	CashOnCashReturn  float64        `json:"cash_on_cash_return" yaml:"cash_on_cash_return"`
	CapRate           float64        `json:"cap_rate" yaml:"cap_rate"`
	Forecast          string         `json:"forecast" yaml:"forecast"`
	PeakSeason        string         `json:"peak_season" yaml:"peak_season"`
	LowSeason         string         `json:"low_season" yaml:"low_season"`
	Neighborhoods     []Neighborhood `json:"neighborhoods" yaml:"neighborhoods"`
	PropertyTypes     []TypeShare    `json:"property_types" yaml:"property_types"`
	CreatedAt         time.Time      `json:"created_at" yaml:"-"`
}

// Neighborhood is a top-performing area within a market.
type Neighborhood struct {
	Name       string  `json:"name" yaml:"name"`
	AvgPrice   float64 `json:"avg_price" yaml:"avg_price"`
	AvgNightly float64 `json:"avg_nightly" yaml:"avg_nightly"`
	Growth     float64 `json:"growth" yaml:"growth"`
	RevPAR     float64 `json:"revpar" yaml:"revpar"`
	Occupancy  float64 `json:"occupancy" yaml:"occupancy"`
}

// TypeShare is the performance of one property type and its share of a
// market's listings.
type TypeShare struct {
	Type        string  `json:"type" yaml:"type"`
	AvgPrice    float64 `json:"avg_price" yaml:"avg_price"`
	NightlyRate float64 `json:"nightly_rate" yaml:"nightly_rate"`
	Occupancy   float64 `json:"occupancy" yaml:"occupancy"`
	Share       float64 `json:"share" yaml:"share"`
}

// ROIInputs fills the market's median nightly rate and average occupancy
// into a return calculation for the given purchase.
func (m *Market) ROIInputs(price, down, expensePercent float64) finance.ROIInputs {
	return finance.ROIInputs{
		PurchasePrice:    price,
		DownPayment:      down,
		NightlyRate:      m.MedianNightlyRate,
		OccupancyPercent: m.AvgOccupancy,
		ExpensePercent:   expensePercent,
	}
}

func (m *Market) validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("market id is required")
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("market %s: name is required", m.ID)
	}
	if m.AvgOccupancy < 0 || m.AvgOccupancy > 100 {
		return fmt.Errorf("market %s: occupancy must be between 0 and 100", m.ID)
	}
	return nil
}

// Comparison is one row of the cross-market table.
type Comparison struct {
	ID         string  `json:"id"`
	Market     string  `json:"market"`
	RevPAR     float64 `json:"revpar"`
	Occupancy  float64 `json:"occupancy"`
	Growth     float64 `json:"growth"`
	CashReturn float64 `json:"cash_return"`
}

// Comparison sort keys.
const (
	SortRevPAR     = "revpar"
	SortOccupancy  = "occupancy"
	SortGrowth     = "growth"
	SortCashReturn = "cash_return"
)

// ValidSort reports whether key is a comparison sort key or empty.
func ValidSort(key string) bool {
	switch key {
	case "", SortRevPAR, SortOccupancy, SortGrowth, SortCashReturn:
		return true
	}
	return false
}

// Compare builds the comparison table. An empty sortBy keeps catalog
// order; any other key sorts highest first, ties in catalog order.
func Compare(markets []*Market, sortBy string) ([]Comparison, error) {
	if !ValidSort(sortBy) {
		return nil, fmt.Errorf("unknown sort %q", sortBy)
	}

	rows := make([]Comparison, 0, len(markets))
	for _, m := range markets {
		rows = append(rows, Comparison{
			ID:         m.ID,
			Market:     m.Name,
			RevPAR:     m.RevPAR,
			Occupancy:  m.AvgOccupancy,
			Growth:     m.PriceChange,
			CashReturn: m.CashOnCashReturn,
		})
	}
	if sortBy == "" {
		return rows, nil
	}

	key := func(c Comparison) float64 {
		switch sortBy {
		case SortOccupancy:
			return c.Occupancy
		case SortGrowth:
			return c.Growth
		case SortCashReturn:
			return c.CashReturn
		default:
			return c.RevPAR
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return key(rows[i]) > key(rows[j]) })
	return rows, nil
}

// scanMarket scans a market from a database row. Neighborhoods and
// property types are stored as JSON arrays.
func scanMarket(row interface{ Scan(...interface{}) error }) (*Market, error) {
	var m Market
	var neighborhoods, types string
	var created sql.NullTime

	err := row.Scan(
		&m.ID, &m.Name, &m.MedianPrice, &m.PriceChange, &m.MedianNightlyRate,
		&m.AvgOccupancy, &m.RevPAR, &m.DaysOnMarket, &m.TotalListings, &m.NewListings,
		&m.InventoryMonths, &m.CashOnCashReturn, &m.CapRate, &m.Forecast,
		&m.PeakSeason, &m.LowSeason, &neighborhoods, &types, &created,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(neighborhoods), &m.Neighborhoods); err != nil {
		return nil, fmt.Errorf("decoding neighborhoods: %w", err)
	}
	if err := json.Unmarshal([]byte(types), &m.PropertyTypes); err != nil {
		return nil, fmt.Errorf("decoding property types: %w", err)
	}
	if m.Neighborhoods == nil {
		m.Neighborhoods = []Neighborhood{}
	}
	if m.PropertyTypes == nil {
		m.PropertyTypes = []TypeShare{}
	}
	if created.Valid {
		m.CreatedAt = created.Time
	}

	return &m, nil
}

func encodeJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return "[]"
	}
	return string(b)
}
