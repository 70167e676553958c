package main

import (
	"github.com/callsight/backend/internal/config"
	"github.com/callsight/backend/internal/handlers"
	"github.com/callsight/backend/internal/middleware"
	"github.com/callsight/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(middleware.CORS())

	// Report generation is expensive; keep callers honest.
	apiLimiter := middleware.NewRateLimiter(&cfg.RateLimit)

	healthHandler := handlers.NewHealthHandler(svc.cache)
	r.GET("/health", healthHandler.CheckHealth)

	api := r.Group("/api", apiLimiter.Middleware())
	{
		reportHandler := handlers.NewReportHandler(svc.reportService, svc.taskQueue)
		api.GET("/reports", reportHandler.Get)
		api.POST("/reports/generate", reportHandler.Generate)

		snapshotHandler := handlers.NewSnapshotHandler(svc.snapshotService)
		api.GET("/snapshots", snapshotHandler.List)
		api.GET("/snapshots/:id", snapshotHandler.Get)

		cacheHandler := handlers.NewCacheHandler(svc.cache)
		api.GET("/cache/stats", cacheHandler.GetStats)
		api.POST("/cache/clear", cacheHandler.Clear)
	}
}
