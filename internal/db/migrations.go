package db

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// migrations is an ordered list of SQL statements to run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT     PRIMARY KEY,
		email         TEXT     NOT NULL UNIQUE COLLATE NOCASE,
		name          TEXT     NOT NULL DEFAULT '',
		role          TEXT     NOT NULL DEFAULT 'buyer' CHECK (role IN ('buyer', 'seller')),
		password_hash TEXT     NOT NULL,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT     PRIMARY KEY,
		user_id    TEXT     NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS passkey_credentials (
		id              TEXT     PRIMARY KEY,
		user_id         TEXT     NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name            TEXT     NOT NULL DEFAULT '',
		credential_json TEXT     NOT NULL,
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS listings (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		seller_id      TEXT    NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title          TEXT    NOT NULL DEFAULT '',
		address        TEXT    NOT NULL,
		city           TEXT    NOT NULL DEFAULT '',
		state          TEXT    NOT NULL DEFAULT '',
		property_type  TEXT    NOT NULL DEFAULT '',
		status         TEXT    NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'pending', 'sold')),
		price          REAL    NOT NULL CHECK (price > 0),
		bedrooms       REAL,
		bathrooms      REAL,
		sqft           INTEGER,
		annual_revenue REAL    NOT NULL DEFAULT 0 CHECK (annual_revenue >= 0),
		avg_occupancy  REAL    CHECK (avg_occupancy IS NULL OR (avg_occupancy >= 0 AND avg_occupancy <= 100)),
		star_rating    REAL    CHECK (star_rating IS NULL OR (star_rating >= 0 AND star_rating <= 5)),
		review_count   INTEGER NOT NULL DEFAULT 0,
		amenities      TEXT    NOT NULL DEFAULT '[]',
		longitude      REAL,
		latitude       REAL,
		place_name     TEXT,
		created_at     DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_seller ON listings(seller_id)`,
	`CREATE TABLE IF NOT EXISTS property_managers (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		company_name       TEXT    NOT NULL,
		manager_name       TEXT    NOT NULL DEFAULT '',
		image_url          TEXT    NOT NULL DEFAULT '',
		rating             REAL    NOT NULL DEFAULT 0,
		review_count       INTEGER NOT NULL DEFAULT 0,
		years_in_business  INTEGER NOT NULL DEFAULT 0,
		services           TEXT    NOT NULL DEFAULT '[]',
		location           TEXT    NOT NULL,
		phone              TEXT    NOT NULL DEFAULT '',
		email              TEXT    NOT NULL DEFAULT '',
		properties_managed INTEGER NOT NULL DEFAULT 0,
		avg_occupancy_rate REAL    NOT NULL DEFAULT 0,
		monthly_fee        TEXT    NOT NULL DEFAULT '',
		setup_fee          REAL    NOT NULL DEFAULT 0,
		certifications     TEXT    NOT NULL DEFAULT '[]',
		description        TEXT    NOT NULL DEFAULT '',
		service_areas      TEXT    NOT NULL DEFAULT '[]',
		created_at         DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS inquiries (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		target_kind  TEXT    NOT NULL CHECK (target_kind IN ('listing', 'manager')),
		target_id    INTEGER NOT NULL,
		sender_name  TEXT    NOT NULL,
		sender_email TEXT    NOT NULL,
		message      TEXT    NOT NULL,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_inquiries_target ON inquiries(target_kind, target_id)`,
	`CREATE TABLE IF NOT EXISTS markets (
		id                  TEXT    PRIMARY KEY,
		name                TEXT    NOT NULL,
		median_price        REAL    NOT NULL DEFAULT 0,
		price_change        REAL    NOT NULL DEFAULT 0,
		median_nightly_rate REAL    NOT NULL DEFAULT 0,
		avg_occupancy       REAL    NOT NULL DEFAULT 0 CHECK (avg_occupancy >= 0 AND avg_occupancy <= 100),
		revpar              REAL    NOT NULL DEFAULT 0,
		days_on_market      INTEGER NOT NULL DEFAULT 0,
		total_listings      INTEGER NOT NULL DEFAULT 0,
		new_listings        INTEGER NOT NULL DEFAULT 0,
		inventory_months    REAL    NOT NULL DEFAULT 0,
		cash_on_cash_return REAL    NOT NULL DEFAULT 0,
		cap_rate            REAL    NOT NULL DEFAULT 0,
		forecast            TEXT    NOT NULL DEFAULT '',
		peak_season         TEXT    NOT NULL DEFAULT '',
		low_season          TEXT    NOT NULL DEFAULT '',
		neighborhoods       TEXT    NOT NULL DEFAULT '[]',
		property_types      TEXT    NOT NULL DEFAULT '[]',
		created_at          DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Column additions (idempotent, checks if column exists first)
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"listings", "nightly_rate", "REAL"},
		{"inquiries", "phone", "TEXT NOT NULL DEFAULT ''"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) error {
	exists, err := hasColumn(db, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}

func hasColumn(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("checking table info: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "table", table, "error", cerr)
		}
	}()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterating columns: %w", err)
	}
	return false, nil
}
