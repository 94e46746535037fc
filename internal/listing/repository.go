package listing

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PricePoint is a previous asking price recorded when a listing's price changed.
type PricePoint struct {
	Price float64   `json:"price"`
	Date  time.Time `json:"date"`
}

// Record is a stored listing with its row metadata.
type Record struct {
	ID           int64        `json:"id"`
	Listing      Listing      `json:"listing"`
	PriceHistory []PricePoint `json:"price_history"`
	FirstSeen    time.Time    `json:"first_seen"`
	LastSeen     time.Time    `json:"last_seen"`
}

// Repository provides storage for listings.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a listing repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

const insertSQL = `INSERT INTO listings
	(source, source_id, url, address, city, state, zip_code, price, beds, baths, sqft, lot_sqft,
	 year_built, property_type, status, days_on_market, hoa_monthly, tax_annual, description)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectColumns = `id, source, source_id, url, address, city, state, zip_code, price, beds, baths,
	sqft, lot_sqft, year_built, property_type, status, days_on_market, hoa_monthly, tax_annual,
	description, price_history, first_seen, last_seen`

// Upsert inserts a listing, or updates the mutable fields of an existing one
// with the same source and source ID. A price change appends the old price to
// the listing's price history. Listings without a source identity are keyed
// by address (see WithIdentity). Returns the row ID.
func (r *Repository) Upsert(l Listing) (int64, error) {
	l = l.WithIdentity()

	var id int64
	var oldPrice float64
	var historyJSON string
	err := r.db.QueryRow(
		"SELECT id, price, price_history FROM listings WHERE source = ? AND source_id = ?",
		l.Source, l.SourceID,
	).Scan(&id, &oldPrice, &historyJSON)

	if err == sql.ErrNoRows {
		result, err := r.db.Exec(insertSQL,
			l.Source, l.SourceID, l.URL, l.Address, l.City, l.State, l.ZipCode,
			l.Price, l.Beds, l.Baths, l.Sqft, l.LotSqft, l.YearBuilt,
			string(l.PropertyType), string(l.Status), l.DaysOnMarket,
			l.HOAMonthly, l.TaxAnnual, l.Description,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting listing: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("getting insert id: %w", err)
		}
		return id, nil
	}
	if err != nil {
		return 0, fmt.Errorf("looking up listing %s/%s: %w", l.Source, l.SourceID, err)
	}

	var history []PricePoint
	if err := json.Unmarshal([]byte(historyJSON), &history); err != nil {
		return 0, fmt.Errorf("decoding price history: %w", err)
	}
	if oldPrice != l.Price {
		history = append(history, PricePoint{Price: oldPrice, Date: r.now().UTC()})
	}
	encoded, err := json.Marshal(history)
	if err != nil {
		return 0, fmt.Errorf("encoding price history: %w", err)
	}

	_, err = r.db.Exec(
		`UPDATE listings SET price = ?, status = ?, days_on_market = ?, price_history = ?,
			last_seen = CURRENT_TIMESTAMP WHERE id = ?`,
		l.Price, string(l.Status), l.DaysOnMarket, string(encoded), id,
	)
	if err != nil {
		return 0, fmt.Errorf("updating listing %d: %w", id, err)
	}

	return id, nil
}

// GetByID returns a stored listing by its ID.
func (r *Repository) GetByID(id int64) (*Record, error) {
	query := fmt.Sprintf("SELECT %s FROM listings WHERE id = ?", selectColumns)
	rec, err := scanRecord(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("listing %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying listing %d: %w", id, err)
	}
	return rec, nil
}

// Exists reports whether a listing from the given source has been stored.
func (r *Repository) Exists(source, sourceID string) (bool, error) {
	var n int
	err := r.db.QueryRow(
		"SELECT COUNT(*) FROM listings WHERE source = ? AND source_id = ?",
		source, sourceID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking listing %s/%s: %w", source, sourceID, err)
	}
	return n > 0, nil
}

// ListActive returns all active listings, optionally filtered by city.
func (r *Repository) ListActive(city string) (recs []*Record, err error) {
	query := fmt.Sprintf("SELECT %s FROM listings WHERE status = ?", selectColumns)
	args := []interface{}{string(StatusActive)}
	if city != "" {
		query += " AND city = ?"
		args = append(args, city)
	}
	query += " ORDER BY id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing active listings: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating listings: %w", err)
	}

	return recs, nil
}

// scanRecord scans a listing row.
func scanRecord(row interface{ Scan(...interface{}) error }) (*Record, error) {
	var rec Record
	var propertyType, status, historyJSON string
	l := &rec.Listing

	err := row.Scan(
		&rec.ID, &l.Source, &l.SourceID, &l.URL, &l.Address, &l.City, &l.State, &l.ZipCode,
		&l.Price, &l.Beds, &l.Baths, &l.Sqft, &l.LotSqft, &l.YearBuilt,
		&propertyType, &status, &l.DaysOnMarket, &l.HOAMonthly, &l.TaxAnnual,
		&l.Description, &historyJSON, &rec.FirstSeen, &rec.LastSeen,
	)
	if err != nil {
		return nil, err
	}

	l.PropertyType = PropertyType(propertyType)
	l.Status = Status(status)
	if err := json.Unmarshal([]byte(historyJSON), &rec.PriceHistory); err != nil {
		return nil, fmt.Errorf("decoding price history: %w", err)
	}

	return &rec, nil
}
