package core

import (
	"agri_service/internal/domain/model"
	"agri_service/internal/infrastructure/cache"
	"agri_service/internal/telemetry"
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultCatalogBBox is passed to Overpass as is.
const DefaultCatalogBBox = "26.0,36.0,45.0,42.0"

type WaterSourceFetcher interface {
	GetWaterSources(ctx context.Context, bbox string) ([]model.WaterFeature, error)
}

// CatalogStore persists the catalog between process runs.
type CatalogStore interface {
	Name() string
	Load(ctx context.Context) ([]model.WaterFeature, error)
	Save(ctx context.Context, features []model.WaterFeature) error
}

// CatalogService loads the water source catalog once per process: from the first
// store that has it, otherwise from Overpass.
type CatalogService struct {
	fetcher WaterSourceFetcher
	stores  []CatalogStore
	bbox    string
	logger  *telemetry.Logger
	metrics *telemetry.AnalysisMetrics

	mu       sync.Mutex
	features []model.WaterFeature
}

func NewCatalogService(fetcher WaterSourceFetcher, stores []CatalogStore, bbox string, logger *telemetry.Logger) *CatalogService {
	if bbox == "" {
		bbox = DefaultCatalogBBox
	}
	if logger == nil {
		logger = telemetry.NewNopLogger()
	}
	return &CatalogService{
		fetcher: fetcher,
		stores:  stores,
		bbox:    bbox,
		logger:  logger,
	}
}

func (s *CatalogService) WithMetrics(m *telemetry.AnalysisMetrics) *CatalogService {
	s.metrics = m
	return s
}

// WaterSources returns the catalog. On fetch failure it returns an empty list along
// with the error; an empty result is never memoised so the next call retries.
func (s *CatalogService) WaterSources(ctx context.Context) ([]model.WaterFeature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.features) > 0 {
		return s.features, nil
	}

	ctx, span := telemetry.Tracer().Start(ctx, "catalog.WaterSources")
	defer span.End()

	features, from := s.loadFromStores(ctx)
	if len(features) > 0 {
		s.logger.WithContext(ctx).WithField("store", s.stores[from].Name()).
			Infof("%d water sources loaded from cache", len(features))
		s.saveToStores(ctx, s.stores[:from], features)
		s.features = features
		s.metrics.RecordCatalogLoad(ctx, s.stores[from].Name(), true)
		span.SetAttributes(attribute.Int("water_sources.count", len(features)), attribute.Bool("cache.hit", true))
		return features, nil
	}

	features, err := s.fetcher.GetWaterSources(ctx, s.bbox)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to fetch water sources")
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		s.metrics.RecordCatalogLoad(ctx, "overpass", false)
		return []model.WaterFeature{}, fmt.Errorf("failed to fetch water sources: %w", err)
	}

	s.logger.WithContext(ctx).Infof("%d water sources found", len(features))
	span.SetAttributes(attribute.Int("water_sources.count", len(features)), attribute.Bool("cache.hit", false))

	s.saveToStores(ctx, s.stores, features)
	s.metrics.RecordCatalogLoad(ctx, "overpass", true)
	if len(features) > 0 {
		s.features = features
	}
	return features, nil
}

// loadFromStores returns the first non-empty catalog and the index of its store.
func (s *CatalogService) loadFromStores(ctx context.Context) ([]model.WaterFeature, int) {
	for i, store := range s.stores {
		features, err := store.Load(ctx)
		entry := s.logger.WithContext(ctx).WithField("store", store.Name())
		switch {
		case errors.Is(err, cache.ErrCacheMiss):
			entry.Debug("Water source cache miss")
		case errors.Is(err, cache.ErrCacheCorrupt):
			entry.WithError(err).Warn("Water source cache is corrupt, ignoring it")
		case err != nil:
			entry.WithError(err).Warn("Water source cache unreadable")
		case len(features) == 0:
			entry.Debug("Water source cache is empty")
		default:
			return features, i
		}
	}
	return nil, -1
}

func (s *CatalogService) saveToStores(ctx context.Context, stores []CatalogStore, features []model.WaterFeature) {
	for _, store := range stores {
		if err := store.Save(ctx, features); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("store", store.Name()).Warn("Failed to save water sources")
		}
	}
}
