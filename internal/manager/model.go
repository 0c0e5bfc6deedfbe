// Package manager provides the property-manager catalog, its data access and
// location matching.
package manager

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a manager does not exist.
var ErrNotFound = errors.New("manager not found")

// Manager is a short-term-rental property management company.
type Manager struct {
	ID                int64     `json:"id" yaml:"-"`
	CompanyName       string    `json:"company_name" yaml:"company_name"`
	ManagerName       string    `json:"manager_name" yaml:"manager_name"`
	ImageURL          string    `json:"image_url,omitempty" yaml:"image_url"`
	Rating            float64   `json:"rating" yaml:"rating"`
	ReviewCount       int       `json:"review_count" yaml:"review_count"`
	YearsInBusiness   int       `json:"years_in_business" yaml:"years_in_business"`
	Services          []string  `json:"services" yaml:"services"`
	Location          string    `json:"location" yaml:"location"`
	Phone             string    `json:"phone" yaml:"phone"`
	Email             string    `json:"email" yaml:"email"`
	PropertiesManaged int       `json:"properties_managed" yaml:"properties_managed"`
	AvgOccupancyRate  float64   `json:"avg_occupancy_rate" yaml:"avg_occupancy_rate"`
	MonthlyFee        string    `json:"monthly_fee" yaml:"monthly_fee"`
	SetupFee          float64   `json:"setup_fee" yaml:"setup_fee"`
	Certifications    []string  `json:"certifications" yaml:"certifications"`
	Description       string    `json:"description" yaml:"description"`
	ServiceAreas      []string  `json:"service_areas" yaml:"service_areas"`
	CreatedAt         time.Time `json:"created_at" yaml:"-"`
}

// scanManager scans a manager from a database row.
// List columns are stored as JSON arrays.
func scanManager(row interface{ Scan(...interface{}) error }) (*Manager, error) {
	var m Manager
	var services, certifications, areas string
	var created sql.NullTime

	err := row.Scan(
		&m.ID, &m.CompanyName, &m.ManagerName, &m.ImageURL,
		&m.Rating, &m.ReviewCount, &m.YearsInBusiness, &services,
		&m.Location, &m.Phone, &m.Email, &m.PropertiesManaged,
		&m.AvgOccupancyRate, &m.MonthlyFee, &m.SetupFee, &certifications,
		&m.Description, &areas, &created,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(services), &m.Services); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(certifications), &m.Certifications); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(areas), &m.ServiceAreas); err != nil {
		return nil, err
	}
	if created.Valid {
		m.CreatedAt = created.Time
	}

	return &m, nil
}

func encodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}
