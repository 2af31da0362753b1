package api

import (
	"agri_service/internal/core"
	"agri_service/internal/domain/model"
	apperrors "agri_service/internal/errors"
	"agri_service/internal/telemetry"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	statusMessage          = "Turkey Agricultural Land Analysis API with Real Data"
	analysisCompleted      = "Comprehensive real-data analysis completed"
	analysisType           = "REAL_DATA_ANALYSIS"
	noWaterSourcesMessage  = "Water sources could not be retrieved"
	analysisErrorPrefix    = "Real data analysis error: "
	waterSourcesPreviewLen = 100
)

type AnalysisRunner interface {
	WaterSources(ctx context.Context) ([]model.WaterFeature, error)
	RunComprehensive(ctx context.Context, opts core.AnalysisOptions) (*model.AnalysisResult, error)
	RunCustom(ctx context.Context, coords []model.Coordinate, opts core.AnalysisOptions) (*model.AnalysisResult, error)
	AnalyzeCoordinate(ctx context.Context, coord model.Coordinate) (*model.EnrichedPoint, error)
}

type HistoryReader interface {
	RecentResults(ctx context.Context, limit int) ([]model.StoredResult, error)
}

type Handler struct {
	service       AnalysisRunner
	history       HistoryReader
	logger        *telemetry.Logger
	rankByArrival bool
}

// NewHandler wires the endpoints. history may be nil when no database is configured.
func NewHandler(service AnalysisRunner, history HistoryReader, logger *telemetry.Logger, rankByArrival bool) *Handler {
	if logger == nil {
		logger = telemetry.NewNopLogger()
	}
	return &Handler{
		service:       service,
		history:       history,
		logger:        logger,
		rankByArrival: rankByArrival,
	}
}

type AnalysisQuery struct {
	MaxAreas   int `form:"max_areas,default=100"   binding:"min=0"`
	SampleSize int `form:"sample_size,default=5000" binding:"min=1"`
}

type CustomAnalysisRequest struct {
	Coordinates [][]float64 `json:"coordinates" binding:"required,dive,len=2"`
	MaxAreas    int         `json:"max_areas"   binding:"min=0"`
	SampleSize  int         `json:"sample_size" binding:"min=0"`
}

type SingleCoordinateRequest struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lon *float64 `json:"lon" binding:"required"`
}

type AnalysisResponse struct {
	Success        bool                  `json:"success"`
	Message        string                `json:"message"`
	AnalysisType   string                `json:"analysis_type,omitempty"`
	RunID          string                `json:"run_id,omitempty"`
	Summary        model.AnalysisSummary `json:"summary"`
	TopAreas       []model.AreaDetail    `json:"top_areas"`
	ProcessingTime float64               `json:"processing_time"`
	VisualOutput   string                `json:"visual_output"`
}

type FailureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type WaterSourcesResponse struct {
	Success           bool                 `json:"success"`
	WaterSourcesCount int                  `json:"water_sources_count"`
	WaterSources      []model.WaterFeature `json:"water_sources"`
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "active", "message": statusMessage})
}

func (h *Handler) Health(c *gin.Context) {
	now := time.Now()
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": float64(now.UnixNano()) / float64(time.Second),
	})
}

// WaterSources lists the catalog size and its first entries. A failed fetch is
// reported as an empty catalog.
func (h *Handler) WaterSources(c *gin.Context) {
	ctx := c.Request.Context()

	features, err := h.service.WaterSources(ctx)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Warn("Water sources unavailable")
	}
	if features == nil {
		features = []model.WaterFeature{}
	}

	preview := features
	if len(preview) > waterSourcesPreviewLen {
		preview = preview[:waterSourcesPreviewLen]
	}

	c.JSON(http.StatusOK, WaterSourcesResponse{
		Success:           true,
		WaterSourcesCount: len(features),
		WaterSources:      preview,
	})
}

func (h *Handler) ComprehensiveAnalysis(c *gin.Context) {
	var query AnalysisQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.renderError(c, apperrors.NewValidationError("query", err.Error()))
		return
	}

	// max_areas=0 останавливает анализ на первом продуктивном участке
	if query.MaxAreas == 0 {
		query.MaxAreas = 1
	}

	opts := core.AnalysisOptions{
		MaxAreas:      query.MaxAreas,
		SampleSize:    query.SampleSize,
		RankByArrival: h.rankByArrival,
	}
	h.runAnalysis(c, func(ctx context.Context) (*model.AnalysisResult, error) {
		return h.service.RunComprehensive(ctx, opts)
	})
}

func (h *Handler) CustomAnalysis(c *gin.Context) {
	var req CustomAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.renderError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	coords := make([]model.Coordinate, 0, len(req.Coordinates))
	for _, pair := range req.Coordinates {
		coords = append(coords, model.Coordinate{Lat: pair[0], Lon: pair[1]})
	}

	opts := core.AnalysisOptions{
		MaxAreas:      req.MaxAreas,
		SampleSize:    req.SampleSize,
		RankByArrival: h.rankByArrival,
	}
	h.runAnalysis(c, func(ctx context.Context) (*model.AnalysisResult, error) {
		return h.service.RunCustom(ctx, coords, opts)
	})
}

// runAnalysis renders failures, panics included, as a structured body with status 200.
func (h *Handler) runAnalysis(c *gin.Context, run func(ctx context.Context) (*model.AnalysisResult, error)) {
	ctx := c.Request.Context()
	log := h.logger.WithContext(ctx)

	result, err := func() (result *model.AnalysisResult, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%v", r)
			}
		}()
		return run(ctx)
	}()

	if err != nil {
		message := analysisErrorPrefix + err.Error()
		if errors.Is(err, core.ErrNoWaterSources) {
			message = noWaterSourcesMessage
		}
		log.WithError(err).Error("Analysis failed")
		c.JSON(http.StatusOK, FailureResponse{Success: false, Message: message})
		return
	}

	c.JSON(http.StatusOK, AnalysisResponse{
		Success:        true,
		Message:        analysisCompleted,
		AnalysisType:   analysisType,
		RunID:          result.RunID,
		Summary:        result.Summary,
		TopAreas:       result.Top,
		ProcessingTime: result.Elapsed.Seconds(),
		VisualOutput:   result.Report,
	})
}

func (h *Handler) AnalyzeCoordinate(c *gin.Context) {
	var req SingleCoordinateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.renderError(c, apperrors.NewValidationError("body", err.Error()))
		return
	}

	coord := model.Coordinate{Lat: *req.Lat, Lon: *req.Lon}
	point, err := h.service.AnalyzeCoordinate(c.Request.Context(), coord)
	switch {
	case errors.Is(err, core.ErrOutsideRegion):
		h.renderError(c, apperrors.NewAppErrorWithCause(apperrors.ErrorTypeValidation, apperrors.CodeInvalidCoordinate,
			"coordinate is outside Turkey", err).WithHTTPStatus(http.StatusUnprocessableEntity))
		return
	case errors.Is(err, core.ErrNoWaterSources):
		h.renderError(c, apperrors.NewAppErrorWithCause(apperrors.ErrorTypeUnavailable, apperrors.CodeWaterSources,
			noWaterSourcesMessage, err))
		return
	case err != nil:
		h.renderError(c, apperrors.NewAppErrorWithCause(apperrors.ErrorTypeInternal, apperrors.CodeAnalysisFailed,
			"analysis failed", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "result": point})
}

type HistoryQuery struct {
	Limit int `form:"limit,default=50" binding:"min=1,max=1000"`
}

func (h *Handler) AnalysisHistory(c *gin.Context) {
	if h.history == nil {
		h.renderError(c, apperrors.NewAppError(apperrors.ErrorTypeUnavailable, apperrors.CodeHistoryDisabled,
			"analysis history is not configured"))
		return
	}

	var query HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.renderError(c, apperrors.NewValidationError("limit", err.Error()))
		return
	}

	results, err := h.history.RecentResults(c.Request.Context(), query.Limit)
	if err != nil {
		h.renderError(c, apperrors.NewAppErrorWithCause(apperrors.ErrorTypeDatabase, apperrors.CodeHistoryQueryFailed,
			"failed to read analysis history", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(results), "results": results})
}

func (h *Handler) renderError(c *gin.Context, appErr *apperrors.AppError) {
	ctx := c.Request.Context()
	appErr.WithCorrelationID(telemetry.GetCorrelationID(ctx))

	entry := h.logger.WithContext(ctx).WithField("code", appErr.Code)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		entry.WithError(appErr).Error("Request failed")
	} else {
		entry.WithError(appErr).Warn("Request rejected")
	}

	c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{"success": false, "error": appErr})
}
