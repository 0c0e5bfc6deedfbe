package listing

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Repository provides CRUD operations for listings.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a listing repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const insertSQL = `INSERT INTO listings
	(seller_id, title, address, city, state, property_type, status, price,
	 bedrooms, bathrooms, sqft, annual_revenue, avg_occupancy, nightly_rate,
	 star_rating, review_count, amenities, longitude, latitude, place_name)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectColumns = `id, seller_id, title, address, city, state, property_type, status, price,
	bedrooms, bathrooms, sqft, annual_revenue, avg_occupancy, nightly_rate,
	star_rating, review_count, amenities, longitude, latitude, place_name, created_at, updated_at`

// Insert adds a new listing and returns it with its generated ID.
// An empty status is stored as active.
func (r *Repository) Insert(l *Listing) (*Listing, error) {
	status := l.Status
	if status == "" {
		status = StatusActive
	}

	result, err := r.db.Exec(insertSQL,
		l.SellerID, l.Title, l.Address, l.City, l.State, l.PropertyType,
		string(status), l.Price, l.Bedrooms, l.Bathrooms, l.Sqft,
		l.AnnualRevenue, l.AvgOccupancy, l.NightlyRate, l.StarRating,
		l.ReviewCount, encodeAmenities(l.Amenities),
		l.Longitude, l.Latitude, l.PlaceName,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting listing: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns a listing by its ID.
func (r *Repository) GetByID(id int64) (*Listing, error) {
	query := fmt.Sprintf("SELECT %s FROM listings WHERE id = ?", selectColumns)
	row := r.db.QueryRow(query, id)

	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("listing %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying listing %d: %w", id, err)
	}

	return l, nil
}

// ListOptions controls filtering for List. Zero values mean no filter.
type ListOptions struct {
	Location     string // substring of address, city or state, any case
	PropertyType string
	MinPrice     *float64
	MaxPrice     *float64
	Amenities    []string // every one must be present, any case
	SellerID     string
	Status       Status
}

// List returns listings, newest first, optionally filtered.
func (r *Repository) List(opts ListOptions) ([]*Listing, error) {
	query := fmt.Sprintf("SELECT %s FROM listings", selectColumns)
	var args []interface{}
	var conditions []string

	if loc := strings.TrimSpace(opts.Location); loc != "" {
		conditions = append(conditions,
			`(LOWER(address) LIKE ? ESCAPE '\' OR LOWER(city) LIKE ? ESCAPE '\' OR LOWER(state) LIKE ? ESCAPE '\')`)
		pattern := "%" + escapeLike(strings.ToLower(loc)) + "%"
		args = append(args, pattern, pattern, pattern)
	}

	if pt := strings.TrimSpace(opts.PropertyType); pt != "" {
		conditions = append(conditions, "LOWER(property_type) = ?")
		args = append(args, strings.ToLower(pt))
	}

	if opts.MinPrice != nil {
		conditions = append(conditions, "price >= ?")
		args = append(args, *opts.MinPrice)
	}

	if opts.MaxPrice != nil {
		conditions = append(conditions, "price <= ?")
		args = append(args, *opts.MaxPrice)
	}

	for _, a := range opts.Amenities {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM json_each(listings.amenities) WHERE LOWER(json_each.value) = ?)")
		args = append(args, strings.ToLower(a))
	}

	if opts.SellerID != "" {
		conditions = append(conditions, "seller_id = ?")
		args = append(args, opts.SellerID)
	}

	if opts.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(opts.Status))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing listings: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	listings := []*Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating listings: %w", err)
	}

	return listings, nil
}

// Update writes the editable fields and location of l.
func (r *Repository) Update(l *Listing) error {
	result, err := r.db.Exec(`UPDATE listings SET
		title = ?, address = ?, city = ?, state = ?, property_type = ?, price = ?,
		bedrooms = ?, bathrooms = ?, sqft = ?, annual_revenue = ?, avg_occupancy = ?,
		nightly_rate = ?, star_rating = ?, review_count = ?, amenities = ?,
		longitude = ?, latitude = ?, place_name = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		l.Title, l.Address, l.City, l.State, l.PropertyType, l.Price,
		l.Bedrooms, l.Bathrooms, l.Sqft, l.AnnualRevenue, l.AvgOccupancy,
		l.NightlyRate, l.StarRating, l.ReviewCount, encodeAmenities(l.Amenities),
		l.Longitude, l.Latitude, l.PlaceName, l.ID,
	)
	if err != nil {
		return fmt.Errorf("updating listing: %w", err)
	}
	return checkAffected(result, l.ID)
}

// UpdateStatus sets the sale status of a listing.
func (r *Repository) UpdateStatus(id int64, status Status) error {
	if !ValidStatus(string(status)) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, status)
	}

	result, err := r.db.Exec(
		"UPDATE listings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	return checkAffected(result, id)
}

// Delete removes a listing by ID.
func (r *Repository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM listings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting listing: %w", err)
	}
	return checkAffected(result, id)
}

func checkAffected(result sql.Result, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("listing %d: %w", id, ErrNotFound)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
