package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jjenkins/motreport/internal/model"
)

// LookupStore handles database operations for the lookup log
type LookupStore struct {
	db *sql.DB
}

// NewLookupStore creates a new LookupStore
func NewLookupStore(db *sql.DB) *LookupStore {
	return &LookupStore{db: db}
}

// SaveLookup inserts a lookup summary only if the record changed since the
// latest lookup of the same registration
func (s *LookupStore) SaveLookup(ctx context.Context, l *model.LookupSummary) (created bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingChecksum sql.NullString
	checksumQuery := `
		SELECT checksum FROM vehicle_lookups
		WHERE registration = $1
		ORDER BY looked_up_at DESC
		LIMIT 1
	`
	err = tx.QueryRowContext(ctx, checksumQuery, l.Registration).Scan(&existingChecksum)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to read latest lookup for %s: %w", l.Registration, err)
	}

	if existingChecksum.Valid && existingChecksum.String == l.Checksum {
		return false, nil
	}

	insertQuery := `
		INSERT INTO vehicle_lookups (id, registration, make, model, test_count,
		                             pass_rate, average_mileage, checksum, looked_up_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.ExecContext(ctx, insertQuery,
		l.ID,
		l.Registration,
		l.Make,
		l.Model,
		l.TestCount,
		l.PassRate,
		l.AverageMileage,
		l.Checksum,
		l.LookedUpAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert lookup for %s: %w", l.Registration, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// GetRecent retrieves the most recent lookups, newest first
func (s *LookupStore) GetRecent(ctx context.Context, limit int) ([]model.LookupSummary, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, registration, make, model, test_count,
		       pass_rate, average_mileage, checksum, looked_up_at
		FROM vehicle_lookups
		ORDER BY looked_up_at DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get lookups: %w", err)
	}
	defer rows.Close()

	return scanLookups(rows)
}

// GetByRegistration retrieves all recorded lookups for one registration, newest first
func (s *LookupStore) GetByRegistration(ctx context.Context, registration string) ([]model.LookupSummary, error) {
	query := `
		SELECT id, registration, make, model, test_count,
		       pass_rate, average_mileage, checksum, looked_up_at
		FROM vehicle_lookups
		WHERE registration = $1
		ORDER BY looked_up_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, registration)
	if err != nil {
		return nil, fmt.Errorf("failed to get lookups for %s: %w", registration, err)
	}
	defer rows.Close()

	return scanLookups(rows)
}

// GetStats aggregates the lookup log
func (s *LookupStore) GetStats(ctx context.Context) (*model.LookupStats, error) {
	stats := &model.LookupStats{}

	query := `
		SELECT
			COUNT(*) AS total_lookups,
			COUNT(DISTINCT registration) AS distinct_vehicles,
			COALESCE(AVG(pass_rate), 0) AS average_pass_rate,
			MAX(looked_up_at) AS last_lookup_at
		FROM vehicle_lookups
	`
	err := s.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalLookups,
		&stats.DistinctVehicles,
		&stats.AveragePassRate,
		&stats.LastLookupAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate lookup stats: %w", err)
	}

	return stats, nil
}

func scanLookups(rows *sql.Rows) ([]model.LookupSummary, error) {
	var lookups []model.LookupSummary
	for rows.Next() {
		var l model.LookupSummary
		err := rows.Scan(
			&l.ID,
			&l.Registration,
			&l.Make,
			&l.Model,
			&l.TestCount,
			&l.PassRate,
			&l.AverageMileage,
			&l.Checksum,
			&l.LookedUpAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lookup: %w", err)
		}
		lookups = append(lookups, l)
	}

	return lookups, rows.Err()
}
