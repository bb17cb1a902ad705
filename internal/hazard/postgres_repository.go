package hazard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL hazard sample repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// ListSamples returns all current hazard samples, newest first.
func (r *PostgresRepository) ListSamples(ctx context.Context) ([]Sample, error) {
	query := `
		SELECT
			id, longitude, latitude,
			air_quality, pothole_density, hygiene_level, water_logging_level,
			observed_at
		FROM hazard_samples
		ORDER BY observed_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying hazard samples: %w", err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		err := rows.Scan(
			&s.ID,
			&s.Coordinates.Lon,
			&s.Coordinates.Lat,
			&s.AirQuality,
			&s.PotholeDensity,
			&s.HygieneLevel,
			&s.WaterLoggingLevel,
			&s.ObservedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning hazard sample: %w", err)
		}
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hazard samples: %w", err)
	}

	return samples, nil
}
