package handlers

import (
	"github.com/callsight/backend/internal/models"
	"github.com/callsight/backend/internal/services"
	"github.com/gin-gonic/gin"
)

// HealthHandler reports the state of the service's subsystems.
type HealthHandler struct {
	cache *services.ReportCache
}

func NewHealthHandler(cache *services.ReportCache) *HealthHandler {
	return &HealthHandler{cache: cache}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	taskQueue := services.GetTaskQueue()
	queueMode := "sync"
	if taskQueue != nil && taskQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "callsight",
		"components": gin.H{
			"database":       dbStatus,
			"queue_mode":     queueMode,
			"cached_reports": h.cache.Stats().Entries,
		},
	})
}
