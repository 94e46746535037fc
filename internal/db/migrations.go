package db

import (
	"database/sql"
	"fmt"
)

// migrations are applied in order. The database's user_version records how
// many have run; append new statements, never edit applied ones.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS listings (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		source         TEXT    NOT NULL,
		source_id      TEXT    NOT NULL,
		url            TEXT    NOT NULL DEFAULT '',
		address        TEXT    NOT NULL,
		city           TEXT    NOT NULL DEFAULT '',
		state          TEXT    NOT NULL DEFAULT '',
		zip_code       TEXT    NOT NULL DEFAULT '',
		price          REAL    NOT NULL CHECK (price > 0),
		beds           INTEGER NOT NULL DEFAULT 0,
		baths          REAL    NOT NULL DEFAULT 0,
		sqft           INTEGER NOT NULL DEFAULT 0,
		lot_sqft       INTEGER NOT NULL DEFAULT 0,
		year_built     INTEGER NOT NULL DEFAULT 0,
		property_type  TEXT    NOT NULL DEFAULT 'single_family',
		status         TEXT    NOT NULL DEFAULT 'active',
		days_on_market INTEGER NOT NULL DEFAULT 0,
		hoa_monthly    REAL    NOT NULL DEFAULT 0,
		tax_annual     REAL    NOT NULL DEFAULT 0,
		description    TEXT    NOT NULL DEFAULT '',
		price_history  TEXT    NOT NULL DEFAULT '[]',
		first_seen     DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_seen      DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (source, source_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_city ON listings(city)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status)`,
	`CREATE TABLE IF NOT EXISTS deals (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		listing_id     INTEGER NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		run_id         TEXT    NOT NULL,
		strategy       TEXT    NOT NULL,
		score          REAL    NOT NULL DEFAULT 0,
		metrics        TEXT    NOT NULL DEFAULT '{}',
		meets_criteria INTEGER NOT NULL DEFAULT 0,
		summary        TEXT    NOT NULL DEFAULT '',
		analyzed_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_deals_score ON deals(score)`,
	`CREATE TABLE IF NOT EXISTS offers (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		listing_id         INTEGER NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		run_id             TEXT    NOT NULL,
		strategy           TEXT    NOT NULL,
		target_metric      TEXT    NOT NULL,
		target_value       REAL    NOT NULL,
		max_offer_price    REAL    NOT NULL,
		discount_from_list REAL    NOT NULL DEFAULT 0,
		metrics            TEXT    NOT NULL DEFAULT '{}',
		created_at         DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// migrate applies the migrations the database has not seen yet, each in
// its own transaction together with the user_version bump.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version > len(migrations) {
		return fmt.Errorf("schema version %d is newer than this build (%d)", version, len(migrations))
	}

	for i := version; i < len(migrations); i++ {
		if err := apply(db, i); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

func apply(db *sql.DB, i int) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(migrations[i]); err != nil {
		return err
	}
	// PRAGMA does not take bound parameters.
	if _, err = tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
		return err
	}
	return tx.Commit()
}
