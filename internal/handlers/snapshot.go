package handlers

import (
	"strconv"

	"github.com/callsight/backend/internal/services"
	"github.com/callsight/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

type SnapshotHandler struct {
	service *services.SnapshotService
}

func NewSnapshotHandler(service *services.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{service: service}
}

// List returns persisted report snapshots, newest first.
// GET /api/snapshots?page=1&page_size=10
func (h *SnapshotHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	snapshots, total, err := h.service.List(page, pageSize)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"total":     total,
		"page":      page,
		"page_size": pageSize,
		"items":     snapshots,
	})
}

// Get returns one snapshot with its full payload.
// GET /api/snapshots/:id
func (h *SnapshotHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid id")
		return
	}

	snapshot, err := h.service.GetByID(uint(id))
	if err != nil {
		response.NotFound(c, "snapshot not found")
		return
	}

	response.Success(c, snapshot)
}
