package api

import (
	apperrors "agri_service/internal/errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// NewRouter builds the gin engine with tracing, CORS, request logging and recovery.
func NewRouter(h *Handler, serviceName string) *gin.Engine {
	router := gin.New()

	router.Use(otelgin.Middleware(serviceName))
	router.Use(CORS())
	router.Use(RequestLogger(h.logger))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		err, ok := recovered.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", recovered)
		}
		h.renderError(c, apperrors.AsAppError(err))
	}))

	router.GET("/", h.Root)

	api := router.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/water-sources", h.WaterSources)
		api.POST("/comprehensive-real-analysis", h.ComprehensiveAnalysis)
		api.POST("/custom-analysis", h.CustomAnalysis)
		api.POST("/analyze-coordinate", h.AnalyzeCoordinate)
		api.GET("/analysis-history", h.AnalysisHistory)
	}

	router.NoRoute(func(c *gin.Context) {
		h.renderError(c, apperrors.NewAppError(apperrors.ErrorTypeNotFound, "NOT_FOUND",
			fmt.Sprintf("no route for %s %s", c.Request.Method, c.Request.URL.Path)).WithHTTPStatus(http.StatusNotFound))
	})

	return router
}
