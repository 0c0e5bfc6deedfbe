package listing

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/evcraddock/keyswap/internal/db"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return d
}

// insertSeller adds a seller account and returns its ID.
func insertSeller(t *testing.T, d *sql.DB, id string) string {
	t.Helper()
	if _, err := d.Exec(
		`INSERT INTO users (id, email, role, password_hash) VALUES (?, ?, 'seller', 'x')`,
		id, id+"@example.com",
	); err != nil {
		t.Fatalf("insert seller: %v", err)
	}
	return id
}

func ptr[T any](v T) *T { return &v }

func sampleDraft() Draft {
	return Draft{
		Title:         "Lakefront cabin",
		Address:       "12 Shore Rd",
		City:          "South Lake Tahoe",
		State:         "CA",
		PropertyType:  "Cabin",
		Price:         500000,
		Bedrooms:      ptr(3.0),
		Bathrooms:     ptr(2.0),
		Sqft:          ptr(int64(1800)),
		AnnualRevenue: 72000,
		AvgOccupancy:  ptr(70.0),
		NightlyRate:   ptr(280.0),
		StarRating:    ptr(4.8),
		ReviewCount:   42,
		Amenities:     []string{"Hot Tub", "Lake View", "WiFi"},
	}
}
