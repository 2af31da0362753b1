package api

import (
	"agri_service/internal/core"
	"agri_service/internal/domain/model"
	apperrors "agri_service/internal/errors"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) WaterSources(ctx context.Context) ([]model.WaterFeature, error) {
	args := m.Called(ctx)
	features, _ := args.Get(0).([]model.WaterFeature)
	return features, args.Error(1)
}

func (m *mockRunner) RunComprehensive(ctx context.Context, opts core.AnalysisOptions) (*model.AnalysisResult, error) {
	args := m.Called(ctx, opts)
	result, _ := args.Get(0).(*model.AnalysisResult)
	return result, args.Error(1)
}

func (m *mockRunner) RunCustom(ctx context.Context, coords []model.Coordinate, opts core.AnalysisOptions) (*model.AnalysisResult, error) {
	args := m.Called(ctx, coords, opts)
	result, _ := args.Get(0).(*model.AnalysisResult)
	return result, args.Error(1)
}

func (m *mockRunner) AnalyzeCoordinate(ctx context.Context, coord model.Coordinate) (*model.EnrichedPoint, error) {
	args := m.Called(ctx, coord)
	point, _ := args.Get(0).(*model.EnrichedPoint)
	return point, args.Error(1)
}

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) RecentResults(ctx context.Context, limit int) ([]model.StoredResult, error) {
	args := m.Called(ctx, limit)
	results, _ := args.Get(0).([]model.StoredResult)
	return results, args.Error(1)
}

func setupRouter(runner AnalysisRunner, history HistoryReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewHandler(runner, history, nil, false), "agri-test")
}

func perform(router *gin.Engine, method, target string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func sampleResult() *model.AnalysisResult {
	return &model.AnalysisResult{
		RunID:   "7f8f2d2e-3b1c-4d7a-9a57-1c1f1d0e6a10",
		Summary: model.AnalysisSummary{TotalAnalyzed: 11, ProductiveAreas: 4, SuccessRate: 36.36},
		Top: []model.AreaDetail{{
			Rank:        1,
			Coordinates: "36.9864, 35.3253",
			Score:       78,
			Category:    "PRODUCTIVE",
			Water:       "2.4km (Seyhan)",
		}},
		Elapsed: 1500 * time.Millisecond,
		Report:  "🌾 COMPREHENSIVE AGRICULTURAL PRODUCTIVITY ANALYSIS\n",
	}
}

func TestRoot(t *testing.T) {
	w := perform(setupRouter(new(mockRunner), nil), http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"active","message":"Turkey Agricultural Land Analysis API with Real Data"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
}

func TestHealth(t *testing.T) {
	before := float64(time.Now().Unix())
	w := perform(setupRouter(new(mockRunner), nil), http.MethodGet, "/api/health", nil)

	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.GreaterOrEqual(t, body["timestamp"].(float64), before)
}

func TestWaterSourcesPreview(t *testing.T) {
	features := make([]model.WaterFeature, 150)
	for i := range features {
		features[i] = model.WaterFeature{Lat: 38, Lon: 30, Name: fmt.Sprintf("w%d", i), Type: model.WaterTypeStream, Source: "OpenStreetMap"}
	}
	runner := new(mockRunner)
	runner.On("WaterSources", mock.Anything).Return(features, nil)

	w := perform(setupRouter(runner, nil), http.MethodGet, "/api/water-sources", nil)

	var body WaterSourcesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 150, body.WaterSourcesCount)
	assert.Len(t, body.WaterSources, 100)
	assert.Equal(t, "w99", body.WaterSources[99].Name)
}

func TestWaterSourcesFetchFailure(t *testing.T) {
	runner := new(mockRunner)
	runner.On("WaterSources", mock.Anything).Return([]model.WaterFeature{}, errors.New("overpass timeout"))

	w := perform(setupRouter(runner, nil), http.MethodGet, "/api/water-sources", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"water_sources_count":0,"water_sources":[]}`, w.Body.String())
}

func TestComprehensiveAnalysis(t *testing.T) {
	runner := new(mockRunner)
	runner.On("RunComprehensive", mock.Anything, core.AnalysisOptions{MaxAreas: 20, SampleSize: 5000}).Return(sampleResult(), nil)

	w := perform(setupRouter(runner, nil), http.MethodPost, "/api/comprehensive-real-analysis?max_areas=20", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body AnalysisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "Comprehensive real-data analysis completed", body.Message)
	assert.Equal(t, "REAL_DATA_ANALYSIS", body.AnalysisType)
	assert.Equal(t, model.AnalysisSummary{TotalAnalyzed: 11, ProductiveAreas: 4, SuccessRate: 36.36}, body.Summary)
	assert.Equal(t, sampleResult().Top, body.TopAreas)
	assert.Equal(t, 1.5, body.ProcessingTime)
	assert.Equal(t, sampleResult().Report, body.VisualOutput)
	runner.AssertExpectations(t)
}

func TestComprehensiveAnalysisDefaults(t *testing.T) {
	runner := new(mockRunner)
	runner.On("RunComprehensive", mock.Anything, core.AnalysisOptions{MaxAreas: 100, SampleSize: 5000}).Return(sampleResult(), nil)

	w := perform(setupRouter(runner, nil), http.MethodPost, "/api/comprehensive-real-analysis", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	runner.AssertExpectations(t)
}

func TestComprehensiveAnalysisInvalidQuery(t *testing.T) {
	w := perform(setupRouter(new(mockRunner), nil), http.MethodPost, "/api/comprehensive-real-analysis?max_areas=-1", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "INVALID_REQUEST", body["error"].(map[string]interface{})["code"])
}

func TestComprehensiveAnalysisZeroMaxAreasStopsAtFirstHit(t *testing.T) {
	runner := new(mockRunner)
	runner.On("RunComprehensive", mock.Anything, core.AnalysisOptions{MaxAreas: 1, SampleSize: 5000}).Return(sampleResult(), nil)

	w := perform(setupRouter(runner, nil), http.MethodPost, "/api/comprehensive-real-analysis?max_areas=0", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])
	runner.AssertExpectations(t)
}

func TestComprehensiveAnalysisWithoutWaterSources(t *testing.T) {
	runner := new(mockRunner)
	runner.On("RunComprehensive", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("%w: status 504", core.ErrNoWaterSources))

	w := perform(setupRouter(runner, nil), http.MethodPost, "/api/comprehensive-real-analysis", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Water sources could not be retrieved"}`, w.Body.String())
}

func TestComprehensiveAnalysisError(t *testing.T) {
	runner := new(mockRunner)
	runner.On("RunComprehensive", mock.Anything, mock.Anything).Return(nil, errors.New("failed to load coordinates: boom"))

	w := perform(setupRouter(runner, nil), http.MethodPost, "/api/comprehensive-real-analysis", nil)

	assert.JSONEq(t, `{"success":false,"message":"Real data analysis error: failed to load coordinates: boom"}`, w.Body.String())
}

func TestComprehensiveAnalysisPanic(t *testing.T) {
	runner := new(mockRunner)
	runner.On("RunComprehensive", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("index out of range")
	})

	w := perform(setupRouter(runner, nil), http.MethodPost, "/api/comprehensive-real-analysis", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Real data analysis error: index out of range"}`, w.Body.String())
}

func TestCustomAnalysis(t *testing.T) {
	runner := new(mockRunner)
	coords := []model.Coordinate{{Lat: 39.9334, Lon: 32.8597}, {Lat: 41.0082, Lon: 28.9784}}
	runner.On("RunCustom", mock.Anything, coords, core.AnalysisOptions{MaxAreas: 5}).Return(sampleResult(), nil)

	w := perform(setupRouter(runner, nil), http.MethodPost, "/api/custom-analysis", map[string]interface{}{
		"coordinates": [][]float64{{39.9334, 32.8597}, {41.0082, 28.9784}},
		"max_areas":   5,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])
	runner.AssertExpectations(t)
}

func TestCustomAnalysisRejectsBadPairs(t *testing.T) {
	w := perform(setupRouter(new(mockRunner), nil), http.MethodPost, "/api/custom-analysis", `{"coordinates":[[39.9,32.8,1]]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(setupRouter(new(mockRunner), nil), http.MethodPost, "/api/custom-analysis", `{"max_areas":5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeCoordinate(t *testing.T) {
	point := &model.EnrichedPoint{
		Attributes:          model.Attributes{Latitude: 36.9864, Longitude: 35.3253, ElevationM: 120},
		SuitabilityScore:    78,
		SuitabilityCategory: "PRODUCTIVE",
	}
	runner := new(mockRunner)
	runner.On("AnalyzeCoordinate", mock.Anything, model.Coordinate{Lat: 36.9864, Lon: 35.3253}).Return(point, nil)

	w := perform(setupRouter(runner, nil), http.MethodPost, "/api/analyze-coordinate", `{"lat":36.9864,"lon":35.3253}`)

	require.Equal(t, http.StatusOK, w.Code)
	result := decode(t, w)["result"].(map[string]interface{})
	assert.Equal(t, float64(78), result["suitability_score"])
	assert.Equal(t, float64(120), result["elevation_m"])
}

func TestAnalyzeCoordinateErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"outside region", fmt.Errorf("%w: 48.0, 30.0", core.ErrOutsideRegion), http.StatusUnprocessableEntity, "INVALID_COORDINATE"},
		{"no water", core.ErrNoWaterSources, http.StatusServiceUnavailable, "WATER_SOURCES_UNAVAILABLE"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "ANALYSIS_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(mockRunner)
			runner.On("AnalyzeCoordinate", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := perform(setupRouter(runner, nil), http.MethodPost, "/api/analyze-coordinate", `{"lat":48.0,"lon":30.0}`)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode(t, w)["error"].(map[string]interface{})["code"])
		})
	}
}

func TestRecoveryRendersPanics(t *testing.T) {
	tests := []struct {
		name      string
		recovered interface{}
		status    int
		code      string
	}{
		{"plain value", "nil map write", http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"app error", apperrors.NewAppError(apperrors.ErrorTypeUnavailable, apperrors.CodeWaterSources, "gone"), http.StatusServiceUnavailable, "WATER_SOURCES_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(mockRunner)
			runner.On("AnalyzeCoordinate", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
				panic(tt.recovered)
			})

			w := perform(setupRouter(runner, nil), http.MethodPost, "/api/analyze-coordinate", `{"lat":38.0,"lon":32.0}`)

			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.code, body["error"].(map[string]interface{})["code"])
		})
	}
}

func TestAnalyzeCoordinateMissingField(t *testing.T) {
	w := perform(setupRouter(new(mockRunner), nil), http.MethodPost, "/api/analyze-coordinate", `{"lat":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalysisHistory(t *testing.T) {
	history := new(mockHistory)
	history.On("RecentResults", mock.Anything, 10).Return([]model.StoredResult{{RunID: "r1", Score: 78, Reasons: []string{"low slope"}}}, nil)

	w := perform(setupRouter(new(mockRunner), history), http.MethodGet, "/api/analysis-history?limit=10", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["count"])
	history.AssertExpectations(t)
}

func TestAnalysisHistoryDisabled(t *testing.T) {
	w := perform(setupRouter(new(mockRunner), nil), http.MethodGet, "/api/analysis-history", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "HISTORY_DISABLED", decode(t, w)["error"].(map[string]interface{})["code"])
}

func TestAnalysisHistoryQueryFailure(t *testing.T) {
	history := new(mockHistory)
	history.On("RecentResults", mock.Anything, 50).Return(nil, errors.New("relation does not exist"))

	w := perform(setupRouter(new(mockRunner), history), http.MethodGet, "/api/analysis-history", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/custom-analysis", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	setupRouter(new(mockRunner), nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorrelationIDPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	w := httptest.NewRecorder()
	setupRouter(new(mockRunner), nil).ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get("X-Correlation-ID"))
}

func TestNoRoute(t *testing.T) {
	w := perform(setupRouter(new(mockRunner), nil), http.MethodGet, "/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
