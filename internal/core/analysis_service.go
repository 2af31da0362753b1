package core

import (
	"agri_service/internal/domain/model"
	"agri_service/internal/domain/repository"
	"agri_service/internal/telemetry"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPoolSize   = 6
	DefaultMinScore   = 60
	DefaultMaxAreas   = 100
	DefaultSampleSize = 5000
	progressInterval  = 50
)

var (
	ErrNoWaterSources = errors.New("water sources could not be retrieved")
	ErrOutsideRegion  = errors.New("coordinate outside analysis region")
)

type WaterCatalog interface {
	WaterSources(ctx context.Context) ([]model.WaterFeature, error)
}

type CoordinateSource interface {
	Coordinates(ctx context.Context) ([]model.Coordinate, error)
}

type AnalysisOptions struct {
	MaxAreas   int
	SampleSize int
	MinScore   int
	// RankByArrival keeps completion order in the top list instead of sorting by score.
	RankByArrival bool
}

func (o AnalysisOptions) withDefaults() AnalysisOptions {
	if o.MaxAreas <= 0 {
		o.MaxAreas = DefaultMaxAreas
	}
	if o.SampleSize <= 0 {
		o.SampleSize = DefaultSampleSize
	}
	if o.MinScore <= 0 {
		o.MinScore = DefaultMinScore
	}
	return o
}

type AnalysisService struct {
	catalog     WaterCatalog
	coordinates CoordinateSource
	estimator   *AttributeEstimator
	recorder    repository.AnalysisRecorder
	region      model.Bounds
	poolSize    int
	logger      *telemetry.Logger
	metrics     *telemetry.AnalysisMetrics
}

func NewAnalysisService(
	catalog WaterCatalog,
	coordinates CoordinateSource,
	estimator *AttributeEstimator,
	recorder repository.AnalysisRecorder,
	logger *telemetry.Logger,
) *AnalysisService {
	if estimator == nil {
		estimator = NewAttributeEstimator(nil)
	}
	if logger == nil {
		logger = telemetry.NewNopLogger()
	}
	return &AnalysisService{
		catalog:     catalog,
		coordinates: coordinates,
		estimator:   estimator,
		recorder:    recorder,
		region:      model.TurkeyRegion,
		poolSize:    DefaultPoolSize,
		logger:      logger,
	}
}

// WithPoolSize overrides the number of concurrent scoring workers.
func (s *AnalysisService) WithPoolSize(n int) *AnalysisService {
	if n > 0 {
		s.poolSize = n
	}
	return s
}

func (s *AnalysisService) WithMetrics(m *telemetry.AnalysisMetrics) *AnalysisService {
	s.metrics = m
	return s
}

// WaterSources exposes the catalog for the listing endpoint.
func (s *AnalysisService) WaterSources(ctx context.Context) ([]model.WaterFeature, error) {
	return s.catalog.WaterSources(ctx)
}

// RunComprehensive analyses the configured coordinate files against the catalog.
func (s *AnalysisService) RunComprehensive(ctx context.Context, opts AnalysisOptions) (*model.AnalysisResult, error) {
	start := time.Now()

	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	coords, err := s.coordinates.Coordinates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load coordinates: %w", err)
	}

	return s.run(ctx, start, coords, catalog, opts)
}

// RunCustom analyses caller supplied coordinates against the catalog.
func (s *AnalysisService) RunCustom(ctx context.Context, coords []model.Coordinate, opts AnalysisOptions) (*model.AnalysisResult, error) {
	start := time.Now()

	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	return s.run(ctx, start, coords, catalog, opts)
}

// AnalyzeCoordinate scores a single point. ErrOutsideRegion is returned for points
// outside the analysis region.
func (s *AnalysisService) AnalyzeCoordinate(ctx context.Context, coord model.Coordinate) (*model.EnrichedPoint, error) {
	if !s.region.Contains(coord.Lat, coord.Lon) {
		return nil, fmt.Errorf("%w: %.4f, %.4f not in %s", ErrOutsideRegion, coord.Lat, coord.Lon, s.region.String())
	}

	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	point, _ := s.evaluate(coord, catalog)
	return &point, nil
}

func (s *AnalysisService) loadCatalog(ctx context.Context) ([]model.WaterFeature, error) {
	catalog, err := s.catalog.WaterSources(ctx)
	if err != nil || len(catalog) == 0 {
		if err == nil {
			err = ErrNoWaterSources
		} else {
			err = fmt.Errorf("%w: %v", ErrNoWaterSources, err)
		}
		return nil, err
	}
	return catalog, nil
}

func (s *AnalysisService) run(
	ctx context.Context,
	start time.Time,
	coords []model.Coordinate,
	catalog []model.WaterFeature,
	opts AnalysisOptions,
) (*model.AnalysisResult, error) {
	result, err := s.Analyze(ctx, coords, catalog, opts)
	if err != nil {
		return nil, err
	}

	result.Elapsed = time.Since(start)
	result.Report = FormatReport(result.Summary, result.Top, result.Elapsed.Seconds())
	s.metrics.RecordRun(ctx, result.Summary.TotalAnalyzed, result.Summary.ProductiveAreas, result.Elapsed)

	if s.recorder != nil && len(result.Productive) > 0 {
		if err := s.recorder.SaveAnalysis(ctx, result.RunID, result.Productive); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("run_id", result.RunID).Warn("Failed to record analysis results")
		}
	}

	return result, nil
}

type outcome struct {
	point     model.EnrichedPoint
	evaluated bool
}

// evaluate returns false for coordinates outside the region.
func (s *AnalysisService) evaluate(coord model.Coordinate, catalog []model.WaterFeature) (model.EnrichedPoint, bool) {
	if !s.region.Contains(coord.Lat, coord.Lon) {
		return model.EnrichedPoint{}, false
	}
	return Evaluate(s.estimator.Estimate(coord, catalog)), true
}

// Analyze scores coords on a bounded worker pool and collects results in completion
// order. Once MaxAreas qualifying points are accepted no new tasks start and
// results of tasks still running are discarded.
func (s *AnalysisService) Analyze(
	ctx context.Context,
	coords []model.Coordinate,
	catalog []model.WaterFeature,
	opts AnalysisOptions,
) (*model.AnalysisResult, error) {
	opts = opts.withDefaults()
	start := time.Now()

	if len(coords) > opts.SampleSize {
		coords = coords[:opts.SampleSize]
	}

	ctx, span := telemetry.Tracer().Start(ctx, "analysis.Analyze")
	defer span.End()

	result := &model.AnalysisResult{
		RunID:      uuid.New().String(),
		Productive: []model.EnrichedPoint{},
		Top:        []model.AreaDetail{},
	}
	span.SetAttributes(
		attribute.String("analysis.run_id", result.RunID),
		attribute.Int("analysis.coordinates", len(coords)),
		attribute.Int("analysis.water_sources", len(catalog)),
	)

	if len(coords) == 0 || len(catalog) == 0 {
		result.Elapsed = time.Since(start)
		return result, nil
	}

	log := s.logger.WithContext(ctx).WithField("run_id", result.RunID)
	log.Infof("Analyzing %d coordinates with %d water sources", len(coords), len(catalog))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(s.poolSize)
	outcomes := make(chan outcome)

	go func() {
		defer close(outcomes)
		for _, coord := range coords {
			if gctx.Err() != nil {
				break
			}
			coord := coord
			g.Go(func() error {
				point, ok := s.evaluate(coord, catalog)
				select {
				case outcomes <- outcome{point: point, evaluated: ok}:
				case <-gctx.Done():
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	processed := 0
	for o := range outcomes {
		processed++
		if o.evaluated && o.point.SuitabilityScore >= opts.MinScore {
			result.Productive = append(result.Productive, o.point)
		}

		if processed%progressInterval == 0 {
			log.WithFields(logrus.Fields{
				"processed":  processed,
				"total":      len(coords),
				"productive": len(result.Productive),
			}).Info("Analysis progress")
		}

		if len(result.Productive) >= opts.MaxAreas {
			cancel()
			break
		}
	}
	// дочитываем канал, чтобы воркеры завершились до выхода
	for range outcomes {
	}

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis cancelled")
		return nil, fmt.Errorf("analysis cancelled: %w", err)
	}

	result.Summary = summarize(processed, len(result.Productive))
	result.Top = rankTop(result.Productive, opts.RankByArrival)
	result.Elapsed = time.Since(start)

	span.SetAttributes(
		attribute.Int("analysis.processed", processed),
		attribute.Int("analysis.productive", len(result.Productive)),
	)
	log.WithField("productive", len(result.Productive)).Infof("Analysis finished: %d processed", processed)

	return result, nil
}

func summarize(processed, productive int) model.AnalysisSummary {
	summary := model.AnalysisSummary{
		TotalAnalyzed:   processed,
		ProductiveAreas: productive,
	}
	if processed > 0 {
		summary.SuccessRate = round2(float64(productive) / float64(processed) * 100)
	}
	return summary
}

// rankTop formats the first DefaultTopAreas points, by descending score unless
// byArrival is set. Equal scores keep completion order.
func rankTop(points []model.EnrichedPoint, byArrival bool) []model.AreaDetail {
	ranked := make([]model.EnrichedPoint, len(points))
	copy(ranked, points)
	if !byArrival {
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].SuitabilityScore > ranked[j].SuitabilityScore
		})
	}

	if len(ranked) > DefaultTopAreas {
		ranked = ranked[:DefaultTopAreas]
	}

	top := make([]model.AreaDetail, 0, len(ranked))
	for i, p := range ranked {
		top = append(top, NewAreaDetail(i+1, p))
	}
	return top
}
