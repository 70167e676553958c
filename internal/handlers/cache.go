package handlers

import (
	"github.com/callsight/backend/internal/services"
	"github.com/callsight/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

// CacheHandler exposes the report cache inspection surface.
type CacheHandler struct {
	cache *services.ReportCache
}

func NewCacheHandler(cache *services.ReportCache) *CacheHandler {
	return &CacheHandler{cache: cache}
}

// GetStats returns cache hit/miss/eviction counters and the live entry count.
// GET /api/cache/stats
func (h *CacheHandler) GetStats(c *gin.Context) {
	response.Success(c, h.cache.Stats())
}

// Clear drops every cached report.
// POST /api/cache/clear
func (h *CacheHandler) Clear(c *gin.Context) {
	h.cache.Clear()
	response.Success(c, gin.H{"cleared": true})
}
