// Package deal stores analysis results and runs analysis batches end to end.
package deal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/evcraddock/listingiq/internal/analysis"
	"github.com/evcraddock/listingiq/internal/listing"
)

// Record is a stored deal analysis with the listing it belongs to.
type Record struct {
	ID            int64             `json:"id"`
	ListingID     int64             `json:"listing_id"`
	RunID         string            `json:"run_id"`
	Strategy      analysis.Strategy `json:"strategy"`
	Score         float64           `json:"score"`
	Metrics       analysis.Metrics  `json:"metrics"`
	MeetsCriteria bool              `json:"meets_criteria"`
	Summary       string            `json:"summary"`
	AnalyzedAt    time.Time         `json:"analyzed_at"`
	Listing       listing.Listing   `json:"listing"`
}

// OfferRecord is a stored offer calculation.
type OfferRecord struct {
	ID        int64                `json:"id"`
	ListingID int64                `json:"listing_id"`
	RunID     string               `json:"run_id"`
	Offer     analysis.OfferResult `json:"offer"`
	CreatedAt time.Time            `json:"created_at"`
}

// Repository provides storage for deals and offers.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a deal repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save stores a deal analysis for a listing. Returns the row ID.
func (r *Repository) Save(listingID int64, runID string, d analysis.DealAnalysis) (int64, error) {
	metrics, err := json.Marshal(d.Metrics)
	if err != nil {
		return 0, fmt.Errorf("encoding metrics: %w", err)
	}

	result, err := r.db.Exec(
		`INSERT INTO deals (listing_id, run_id, strategy, score, metrics, meets_criteria, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		listingID, runID, string(d.Strategy), d.Score, string(metrics), d.MeetsCriteria, d.Summary,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting deal: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting insert id: %w", err)
	}
	return id, nil
}

// SaveOffer stores an offer calculation for a listing. Returns the row ID.
func (r *Repository) SaveOffer(listingID int64, runID string, o analysis.OfferResult) (int64, error) {
	metrics, err := json.Marshal(o.MetricsAtOffer)
	if err != nil {
		return 0, fmt.Errorf("encoding metrics: %w", err)
	}

	result, err := r.db.Exec(
		`INSERT INTO offers (listing_id, run_id, strategy, target_metric, target_value,
			max_offer_price, discount_from_list, metrics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		listingID, runID, string(o.Strategy), o.TargetMetric, o.TargetValue,
		o.MaxOfferPrice, o.DiscountFromList, string(metrics),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting offer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting insert id: %w", err)
	}
	return id, nil
}

const dealColumns = `d.id, d.listing_id, d.run_id, d.strategy, d.score, d.metrics, d.meets_criteria,
	d.summary, d.analyzed_at, l.source, l.source_id, l.address, l.city, l.state, l.zip_code,
	l.price, l.beds, l.baths, l.sqft`

// Top returns the highest scoring deals that meet their strategy's criteria,
// optionally restricted to one strategy. Ties are broken by insertion order.
// A limit of 0 or less returns every match.
func (r *Repository) Top(limit int, strategy string) ([]*Record, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM deals d JOIN listings l ON l.id = d.listing_id WHERE d.meets_criteria = 1",
		dealColumns,
	)
	var args []interface{}
	if strategy != "" {
		query += " AND d.strategy = ?"
		args = append(args, strategy)
	}
	query += " ORDER BY d.score DESC, d.id ASC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return r.queryDeals(query, args...)
}

// ByRun returns every deal stored under runID, in insertion order.
func (r *Repository) ByRun(runID string) ([]*Record, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM deals d JOIN listings l ON l.id = d.listing_id WHERE d.run_id = ? ORDER BY d.id",
		dealColumns,
	)
	return r.queryDeals(query, runID)
}

func (r *Repository) queryDeals(query string, args ...interface{}) (recs []*Record, err error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying deals: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var rec Record
		var strategy, metrics string
		l := &rec.Listing
		if err := rows.Scan(
			&rec.ID, &rec.ListingID, &rec.RunID, &strategy, &rec.Score, &metrics, &rec.MeetsCriteria,
			&rec.Summary, &rec.AnalyzedAt, &l.Source, &l.SourceID, &l.Address, &l.City, &l.State,
			&l.ZipCode, &l.Price, &l.Beds, &l.Baths, &l.Sqft,
		); err != nil {
			return nil, fmt.Errorf("scanning deal: %w", err)
		}
		rec.Strategy = analysis.Strategy(strategy)
		if err := json.Unmarshal([]byte(metrics), &rec.Metrics); err != nil {
			return nil, fmt.Errorf("decoding metrics for deal %d: %w", rec.ID, err)
		}
		recs = append(recs, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating deals: %w", err)
	}

	return recs, nil
}

// Offers returns the stored offers for a listing, newest first.
func (r *Repository) Offers(listingID int64) (recs []*OfferRecord, err error) {
	rows, err := r.db.Query(
		`SELECT id, listing_id, run_id, strategy, target_metric, target_value, max_offer_price,
			discount_from_list, metrics, created_at
		FROM offers WHERE listing_id = ? ORDER BY id DESC`,
		listingID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying offers: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		var rec OfferRecord
		var strategy, metrics string
		o := &rec.Offer
		if err := rows.Scan(
			&rec.ID, &rec.ListingID, &rec.RunID, &strategy, &o.TargetMetric, &o.TargetValue,
			&o.MaxOfferPrice, &o.DiscountFromList, &metrics, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning offer: %w", err)
		}
		o.Strategy = analysis.Strategy(strategy)
		if err := json.Unmarshal([]byte(metrics), &o.MetricsAtOffer); err != nil {
			return nil, fmt.Errorf("decoding metrics for offer %d: %w", rec.ID, err)
		}
		recs = append(recs, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating offers: %w", err)
	}

	return recs, nil
}

// Analysis rebuilds the deal analysis from a stored record. The listing
// carries only the stored summary fields.
func (r *Record) Analysis() analysis.DealAnalysis {
	return analysis.DealAnalysis{
		Listing:       r.Listing,
		Strategy:      r.Strategy,
		Score:         r.Score,
		Metrics:       r.Metrics,
		MeetsCriteria: r.MeetsCriteria,
		Summary:       r.Summary,
	}
}
