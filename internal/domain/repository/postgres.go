package repository

import (
	"agri_service/internal/domain/model"
	"agri_service/internal/telemetry"
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const DefaultHistoryLimit = 50

const createAnalysisResultsTable = `
	CREATE TABLE IF NOT EXISTS analysis_results (
		id                 BIGSERIAL PRIMARY KEY,
		run_id             UUID NOT NULL,
		latitude           DOUBLE PRECISION NOT NULL,
		longitude          DOUBLE PRECISION NOT NULL,
		score              INTEGER NOT NULL,
		category           TEXT NOT NULL,
		water_distance_km  DOUBLE PRECISION NOT NULL,
		nearest_water_name TEXT NOT NULL,
		elevation_m        INTEGER NOT NULL,
		slope_percent      DOUBLE PRECISION NOT NULL,
		reasons            TEXT[] NOT NULL,
		recorded_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository подключается к базе и создаёт таблицу результатов, если её нет
func NewPostgresRepository(ctx context.Context, connStr string) (*PostgresRepository, error) {
	sqlDB, err := telemetry.OpenInstrumentedDB("postgres", connStr)
	if err != nil {
		return nil, err
	}

	db := sqlx.NewDb(sqlDB, "postgres")
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, createAnalysisResultsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create analysis_results table: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) DB() *sqlx.DB {
	return r.db
}

// RecentResults returns the newest stored points, most recent first.
func (r *PostgresRepository) RecentResults(ctx context.Context, limit int) ([]model.StoredResult, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	const query = `
		SELECT
			run_id,
			latitude,
			longitude,
			score,
			category,
			water_distance_km,
			nearest_water_name,
			elevation_m,
			slope_percent,
			reasons,
			recorded_at
		FROM analysis_results
		ORDER BY recorded_at DESC, id DESC
		LIMIT $1`

	results := []model.StoredResult{}
	if err := r.db.SelectContext(ctx, &results, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query analysis history: %w", err)
	}

	return results, nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
