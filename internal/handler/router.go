package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/edusight/prism/api/swagger"
	"github.com/edusight/prism/internal/middleware"
	"github.com/edusight/prism/internal/service"
	"github.com/edusight/prism/pkg/config"
	"github.com/edusight/prism/pkg/logger"
	"github.com/edusight/prism/pkg/middleware/requestid"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Config         *config.Config
	Logger         *zap.Logger
	Metrics        *service.MetricsService
	Ready          func() error
	Configurations *ConfigurationHandler
	Pipeline       *PipelineHandler
	Analytics      *AnalyticsHandler
	Exports        *ExportHandler
}

// NewRouter assembles the gin engine with probes, metrics, docs and the
// operator API.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.Middleware())
	router.Use(logger.GinMiddleware(deps.Logger))
	router.Use(middleware.Metrics(deps.Metrics))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", func(c *gin.Context) {
		if deps.Ready != nil {
			if err := deps.Ready(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if !deps.Config.Ops.APIEnabled {
		return router
	}

	api := router.Group(deps.Config.APIPrefix)
	api.Use(middleware.OperatorAuth(deps.Config.Ops.TokenSecret))
	{
		api.POST("/configurations", deps.Configurations.Create)
		api.GET("/configurations", deps.Configurations.List)
		api.GET("/configurations/:name", deps.Configurations.Get)
		api.POST("/configurations/:name/activate", deps.Configurations.Activate)

		api.POST("/pipeline/runs", deps.Pipeline.TriggerRun)
		api.GET("/pipeline/runs", deps.Pipeline.ListRuns)
		api.GET("/pipeline/runs/:id", deps.Pipeline.GetRun)

		api.GET("/students/:id/results", deps.Pipeline.ResultHistory)
		api.GET("/students/:id/results/latest", deps.Pipeline.LatestResult)

		if deps.Analytics != nil {
			api.GET("/analytics/rollups", deps.Analytics.ListRollups)
		}
		if deps.Exports != nil {
			api.GET("/exports", deps.Exports.List)
			api.GET("/exports/:name", deps.Exports.Download)
		}
	}

	return router
}
