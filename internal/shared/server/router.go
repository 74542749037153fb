package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"compliance-analyzer/internal/analyses"
	"compliance-analyzer/internal/documents"
	"compliance-analyzer/internal/services/health"
	"compliance-analyzer/internal/shared/config"
	"compliance-analyzer/internal/shared/metrics"
	"compliance-analyzer/internal/shared/server/middleware"
	"compliance-analyzer/internal/shared/server/respond"
	"compliance-analyzer/internal/web"
)

// RouterDeps holds handler dependencies for routing.
type RouterDeps struct {
	Config          config.Config
	DocumentHandler *documents.Handler
	AnalysisHandler *analyses.Handler
	WebHandler      *web.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := newEngine()
	r.Use(middleware.Session(deps.Config.Env == "production"))

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	healthSvc := health.NewService(deps.Config.Models)
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, healthSvc.Status())
	})
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
	}
	if deps.WebHandler != nil {
		deps.WebHandler.RegisterRoutes(r)
	}

	return r
}

// NewUnconfiguredRouter serves only the configuration error on every path.
func NewUnconfiguredRouter(message string) *gin.Engine {
	r := newEngine()
	r.NoRoute(web.Unconfigured(message))
	return r
}

func newEngine() *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
	)
	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
