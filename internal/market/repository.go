package market

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// Repository provides data access for market statistics.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a market repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const insertSQL = `INSERT INTO markets
	(id, name, median_price, price_change, median_nightly_rate, avg_occupancy, revpar,
	 days_on_market, total_listings, new_listings, inventory_months, cash_on_cash_return,
	 cap_rate, forecast, peak_season, low_season, neighborhoods, property_types)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectColumns = `id, name, median_price, price_change, median_nightly_rate, avg_occupancy, revpar,
	days_on_market, total_listings, new_listings, inventory_months, cash_on_cash_return,
	cap_rate, forecast, peak_season, low_season, neighborhoods, property_types, created_at`

func insertArgs(m *Market) []interface{} {
	return []interface{}{
		strings.ToLower(strings.TrimSpace(m.ID)), m.Name, m.MedianPrice, m.PriceChange,
		m.MedianNightlyRate, m.AvgOccupancy, m.RevPAR, m.DaysOnMarket, m.TotalListings,
		m.NewListings, m.InventoryMonths, m.CashOnCashReturn, m.CapRate, m.Forecast,
		m.PeakSeason, m.LowSeason, encodeJSON(m.Neighborhoods), encodeJSON(m.PropertyTypes),
	}
}

// Insert adds a market and returns it as stored.
func (r *Repository) Insert(m *Market) (*Market, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}
	if _, err := r.db.Exec(insertSQL, insertArgs(m)...); err != nil {
		return nil, fmt.Errorf("inserting market %s: %w", m.ID, err)
	}
	return r.GetByID(m.ID)
}

// GetByID returns a market by its slug, ignoring case.
func (r *Repository) GetByID(id string) (*Market, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	query := fmt.Sprintf("SELECT %s FROM markets WHERE id = ?", selectColumns)
	m, err := scanMarket(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("market %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying market %q: %w", id, err)
	}
	return m, nil
}

// List returns every market in catalog order.
func (r *Repository) List() (markets []*Market, err error) {
	query := fmt.Sprintf("SELECT %s FROM markets ORDER BY rowid", selectColumns)
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("listing markets: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	markets = []*Market{}
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating markets: %w", err)
	}

	return markets, nil
}

// Count returns the number of stored markets.
func (r *Repository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM markets").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting markets: %w", err)
	}
	return n, nil
}

// SeedIfEmpty loads the built-in market statistics when the table has no
// rows. It returns the number of markets inserted.
func (r *Repository) SeedIfEmpty() (int, error) {
	n, err := r.Count()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	seed, err := LoadSeed()
	if err != nil {
		return 0, err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning seed transaction: %w", err)
	}
	for _, m := range seed {
		if _, err := tx.Exec(insertSQL, insertArgs(m)...); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return 0, fmt.Errorf("seeding %s: %w (also failed to roll back: %v)", m.ID, err, rbErr)
			}
			return 0, fmt.Errorf("seeding %s: %w", m.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing seed: %w", err)
	}

	return len(seed), nil
}

// LoadSeed parses and checks the built-in market statistics.
func LoadSeed() ([]*Market, error) {
	var markets []*Market
	if err := yaml.Unmarshal(seedYAML, &markets); err != nil {
		return nil, fmt.Errorf("parsing market seed: %w", err)
	}
	for _, m := range markets {
		if err := m.validate(); err != nil {
			return nil, fmt.Errorf("market seed: %w", err)
		}
	}
	return markets, nil
}
