package services

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/callsight/backend/internal/models"
	"github.com/callsight/backend/pkg/logger"
	"gorm.io/gorm"
)

// SnapshotService persists computed reports so historical windows survive the
// cache TTL and upstream data drift.
type SnapshotService struct {
	db      *gorm.DB
	reports *ReportService
}

func NewSnapshotService(db *gorm.DB, reports *ReportService) *SnapshotService {
	return &SnapshotService{db: db, reports: reports}
}

// ProcessReportTask computes the requested report and stores a snapshot. It is
// the processor wired into the report task queue and worker.
func (s *SnapshotService) ProcessReportTask(ctx context.Context, task *ReportTask) error {
	_, err := s.BuildSnapshot(ctx, task.ReportType, task.StartDate, task.EndDate, task.Trigger, task.JobID)
	return err
}

// BuildSnapshot generates a report and persists it with its headline numbers.
func (s *SnapshotService) BuildSnapshot(ctx context.Context, reportType, startDate, endDate, trigger, jobID string) (*models.ReportSnapshot, error) {
	report, err := s.reports.GenerateReport(ctx, reportType, startDate, endDate)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}

	snapshot := &models.ReportSnapshot{
		JobID:       jobID,
		ReportType:  string(report.ReportType),
		StartDate:   startDate,
		EndDate:     endDate,
		Payload:     string(payload),
		Trigger:     trigger,
		GeneratedAt: report.GeneratedAt,
	}
	snapshot.TotalCalls, snapshot.AnsweredCalls, snapshot.AnswerRate = headlineNumbers(report)

	if err := s.db.Create(snapshot).Error; err != nil {
		return nil, err
	}

	logger.Infof("[Snapshot] Stored %s snapshot %d for %s..%s (trigger=%s)",
		snapshot.ReportType, snapshot.ID, startDate, endDate, trigger)
	return snapshot, nil
}

// headlineNumbers pulls the comparable totals out of each summary shape.
func headlineNumbers(report *ReportData) (totalCalls, answeredCalls int, answerRate float64) {
	switch summary := report.Summary.(type) {
	case CallSummaryTotals:
		return summary.TotalCalls, summary.AnsweredCalls, summary.AnswerRate
	case AgentPerformanceSummary:
		return summary.TotalCalls, summary.AnsweredCalls, summary.AnswerRate
	case CampaignAnalyticsSummary:
		return summary.TotalCalls, summary.AnsweredCalls, summary.AnswerRate
	}
	return 0, 0, 0
}

func (s *SnapshotService) List(page, pageSize int) ([]models.ReportSnapshot, int64, error) {
	var snapshots []models.ReportSnapshot
	var total int64

	s.db.Model(&models.ReportSnapshot{}).Count(&total)

	offset := (page - 1) * pageSize
	err := s.db.Order("generated_at DESC").Offset(offset).Limit(pageSize).Find(&snapshots).Error
	if err != nil {
		return nil, 0, err
	}

	return snapshots, total, nil
}

func (s *SnapshotService) GetByID(id uint) (*models.ReportSnapshot, error) {
	var snapshot models.ReportSnapshot
	if err := s.db.First(&snapshot, id).Error; err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// CleanupOldSnapshots deletes snapshots older than the configured retention.
func (s *SnapshotService) CleanupOldSnapshots() {
	days := s.retentionDays()
	cutoff := time.Now().AddDate(0, 0, -days)

	result := s.db.Where("generated_at < ?", cutoff).Delete(&models.ReportSnapshot{})
	if result.Error != nil {
		logger.Errorf("[Snapshot] Cleanup failed: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		logger.Infof("[Snapshot] Removed %d snapshots older than %d days", result.RowsAffected, days)
	}
}

func (s *SnapshotService) retentionDays() int {
	var cfg models.SystemConfig
	if err := s.db.Where("key = ?", "snapshot_retention_days").First(&cfg).Error; err != nil {
		return 90
	}
	days, err := strconv.Atoi(cfg.Value)
	if err != nil || days <= 0 {
		return 90
	}
	return days
}
