package handlers

import (
	"github.com/callsight/backend/internal/services"
	"github.com/callsight/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReportHandler struct {
	reportService *services.ReportService
	taskQueue     services.TaskQueue
}

func NewReportHandler(reportService *services.ReportService, taskQueue services.TaskQueue) *ReportHandler {
	return &ReportHandler{reportService: reportService, taskQueue: taskQueue}
}

type reportRequest struct {
	Type      string `form:"type" json:"type" binding:"required"`
	StartDate string `form:"start_date" json:"start_date" binding:"required"`
	EndDate   string `form:"end_date" json:"end_date" binding:"required"`
}

// Get computes (or returns a cached) report synchronously.
// GET /api/reports?type=call-summary&start_date=2026-08-01&end_date=2026-08-27
func (h *ReportHandler) Get(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "type, start_date and end_date are required")
		return
	}

	report, err := h.reportService.GenerateReport(c.Request.Context(), req.Type, req.StartDate, req.EndDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, report)
}

// Generate queues an asynchronous report-snapshot job.
// POST /api/reports/generate
func (h *ReportHandler) Generate(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "type, start_date and end_date are required")
		return
	}

	if _, ok := services.ParseReportType(req.Type); !ok {
		response.BadRequest(c, "unknown report type: "+req.Type)
		return
	}

	task := &services.ReportTask{
		JobID:      uuid.NewString(),
		ReportType: req.Type,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Trigger:    "api",
	}
	if err := h.taskQueue.Enqueue(task); err != nil {
		response.ServerError(c, "failed to enqueue report job: "+err.Error())
		return
	}

	response.Accepted(c, gin.H{"job_id": task.JobID})
}
