package model

import (
	"time"

	"github.com/lib/pq"
)

// ReasonSeparator and DetailSeparator join the scorer's reason lists.
const (
	ReasonSeparator = ", "
	DetailSeparator = " | "
)

// AnalysisSummary aggregates one batch run.
type AnalysisSummary struct {
	TotalAnalyzed   int     `json:"total_analyzed"`
	ProductiveAreas int     `json:"productive_areas"`
	SuccessRate     float64 `json:"success_rate"`
}

// AreaDetail is the presentation form of a ranked EnrichedPoint.
type AreaDetail struct {
	Rank          int    `json:"rank"`
	Coordinates   string `json:"coordinates"`
	Score         int    `json:"score"`
	Category      string `json:"category"`
	Water         string `json:"water"`
	Slope         string `json:"slope"`
	Elevation     string `json:"elevation"`
	Soil          string `json:"soil"`
	Precipitation string `json:"precipitation"`
	Sunshine      string `json:"sunshine"`
	Details       string `json:"details"`
}

// AnalysisResult is what the batch orchestrator hands back to its callers.
type AnalysisResult struct {
	RunID      string
	Summary    AnalysisSummary
	Productive []EnrichedPoint
	Top        []AreaDetail
	Elapsed    time.Duration
	Report     string
}

// StoredResult is one persisted qualifying point of a past analysis run.
type StoredResult struct {
	RunID            string         `db:"run_id" json:"run_id"`
	Latitude         float64        `db:"latitude" json:"latitude"`
	Longitude        float64        `db:"longitude" json:"longitude"`
	Score            int            `db:"score" json:"score"`
	Category         string         `db:"category" json:"category"`
	WaterDistanceKM  float64        `db:"water_distance_km" json:"water_distance_km"`
	NearestWaterName string         `db:"nearest_water_name" json:"nearest_water_name"`
	ElevationM       int            `db:"elevation_m" json:"elevation_m"`
	SlopePercent     float64        `db:"slope_percent" json:"slope_percent"`
	Reasons          pq.StringArray `db:"reasons" json:"reasons"`
	RecordedAt       time.Time      `db:"recorded_at" json:"recorded_at"`
}
