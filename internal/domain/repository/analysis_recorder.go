package repository

import (
	"agri_service/internal/domain/model"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type AnalysisRecorder interface {
	SaveAnalysis(ctx context.Context, runID string, points []model.EnrichedPoint) error
}

type PostgresAnalysisRecorder struct {
	db *sqlx.DB
}

func NewPostgresAnalysisRecorder(db *sqlx.DB) *PostgresAnalysisRecorder {
	return &PostgresAnalysisRecorder{db: db}
}

// SaveAnalysis пишет все прошедшие порог точки одного запуска в одной транзакции
func (r *PostgresAnalysisRecorder) SaveAnalysis(ctx context.Context, runID string, points []model.EnrichedPoint) error {
	if len(points) == 0 {
		return nil
	}

	const query = `
		INSERT INTO analysis_results (
			run_id, latitude, longitude, score, category,
			water_distance_km, nearest_water_name,
			elevation_m, slope_percent, reasons, recorded_at
		) VALUES (
			:run_id, :latitude, :longitude, :score, :category,
			:water_distance_km, :nearest_water_name,
			:elevation_m, :slope_percent, :reasons, :recorded_at
		)`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, row := range toStoredResults(runID, points, time.Now().UTC()) {
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("failed to insert analysis result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit analysis results: %w", err)
	}
	return nil
}

func toStoredResults(runID string, points []model.EnrichedPoint, recordedAt time.Time) []model.StoredResult {
	rows := make([]model.StoredResult, 0, len(points))
	for _, p := range points {
		rows = append(rows, model.StoredResult{
			RunID:            runID,
			Latitude:         p.Latitude,
			Longitude:        p.Longitude,
			Score:            p.SuitabilityScore,
			Category:         p.SuitabilityCategory,
			WaterDistanceKM:  p.WaterDistanceKM,
			NearestWaterName: p.NearestWaterName,
			ElevationM:       p.ElevationM,
			SlopePercent:     p.SlopePercent,
			Reasons:          splitReasons(p.SuitabilityReasons),
			RecordedAt:       recordedAt,
		})
	}
	return rows
}

func splitReasons(reasons string) pq.StringArray {
	if reasons == "" {
		return pq.StringArray{}
	}
	return strings.Split(reasons, model.ReasonSeparator)
}
