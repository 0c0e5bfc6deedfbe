package manager

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// Repository provides data access for property managers.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a manager repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const insertSQL = `INSERT INTO property_managers
	(company_name, manager_name, image_url, rating, review_count, years_in_business, services,
	 location, phone, email, properties_managed, avg_occupancy_rate, monthly_fee, setup_fee,
	 certifications, description, service_areas)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectColumns = `id, company_name, manager_name, image_url, rating, review_count, years_in_business, services,
	location, phone, email, properties_managed, avg_occupancy_rate, monthly_fee, setup_fee,
	certifications, description, service_areas, created_at`

// Insert adds a manager and returns it with its generated ID.
func (r *Repository) Insert(m *Manager) (*Manager, error) {
	if m.CompanyName == "" {
		return nil, fmt.Errorf("company name is required")
	}
	if m.Location == "" {
		return nil, fmt.Errorf("location is required")
	}

	result, err := r.db.Exec(insertSQL,
		m.CompanyName, m.ManagerName, m.ImageURL, m.Rating, m.ReviewCount, m.YearsInBusiness,
		encodeList(m.Services), m.Location, m.Phone, m.Email, m.PropertiesManaged,
		m.AvgOccupancyRate, m.MonthlyFee, m.SetupFee, encodeList(m.Certifications),
		m.Description, encodeList(m.ServiceAreas),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting manager: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting insert id: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns a manager by ID.
func (r *Repository) GetByID(id int64) (*Manager, error) {
	query := fmt.Sprintf("SELECT %s FROM property_managers WHERE id = ?", selectColumns)
	m, err := scanManager(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("manager %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying manager %d: %w", id, err)
	}
	return m, nil
}

// List returns every manager in catalog order.
func (r *Repository) List() (managers []*Manager, err error) {
	query := fmt.Sprintf("SELECT %s FROM property_managers ORDER BY id", selectColumns)
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("listing managers: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		m, err := scanManager(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning manager: %w", err)
		}
		managers = append(managers, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating managers: %w", err)
	}

	return managers, nil
}

// Count returns the number of stored managers.
func (r *Repository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM property_managers").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting managers: %w", err)
	}
	return n, nil
}

// SeedIfEmpty loads the built-in catalog when the table has no rows.
// It returns the number of managers inserted.
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
		if _, err := tx.Exec(insertSQL,
			m.CompanyName, m.ManagerName, m.ImageURL, m.Rating, m.ReviewCount, m.YearsInBusiness,
			encodeList(m.Services), m.Location, m.Phone, m.Email, m.PropertiesManaged,
			m.AvgOccupancyRate, m.MonthlyFee, m.SetupFee, encodeList(m.Certifications),
			m.Description, encodeList(m.ServiceAreas),
		); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return 0, fmt.Errorf("seeding %s: %w (also failed to roll back: %v)", m.CompanyName, err, rbErr)
			}
			return 0, fmt.Errorf("seeding %s: %w", m.CompanyName, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing seed: %w", err)
	}

	return len(seed), nil
}

// LoadSeed parses the built-in manager catalog.
func LoadSeed() ([]*Manager, error) {
	var managers []*Manager
	if err := yaml.Unmarshal(seedYAML, &managers); err != nil {
		return nil, fmt.Errorf("parsing manager seed: %w", err)
	}
	return managers, nil
}
