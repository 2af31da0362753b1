package core

import (
	"agri_service/internal/domain/model"
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

// sequenceSource replays vals in a loop.
type sequenceSource struct {
	mu   sync.Mutex
	vals []float64
	i    int
}

func newSequenceSource(vals ...float64) *sequenceSource {
	return &sequenceSource{vals: vals}
}

func (s *sequenceSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) GetWaterSources(ctx context.Context, bbox string) ([]model.WaterFeature, error) {
	args := m.Called(ctx, bbox)
	features, _ := args.Get(0).([]model.WaterFeature)
	return features, args.Error(1)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) WaterSources(ctx context.Context) ([]model.WaterFeature, error) {
	args := m.Called(ctx)
	features, _ := args.Get(0).([]model.WaterFeature)
	return features, args.Error(1)
}

type mockCoordinates struct {
	mock.Mock
}

func (m *mockCoordinates) Coordinates(ctx context.Context) ([]model.Coordinate, error) {
	args := m.Called(ctx)
	coords, _ := args.Get(0).([]model.Coordinate)
	return coords, args.Error(1)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) SaveAnalysis(ctx context.Context, runID string, points []model.EnrichedPoint) error {
	return m.Called(ctx, runID, points).Error(0)
}
