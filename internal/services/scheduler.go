package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/callsight/backend/internal/config"
	"github.com/callsight/backend/internal/models"
	"github.com/callsight/backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// SnapshotScheduler generates a call-summary snapshot of the previous day
// every night and prunes old snapshots. Schedule time and enablement are read
// from system config rows so they can be changed at runtime, falling back to
// the static config.
type SnapshotScheduler struct {
	db             *gorm.DB
	snapshots      *SnapshotService
	cfg            *config.SchedulerConfig
	cronScheduler  *cron.Cron
	currentEntryID cron.EntryID
}

func NewSnapshotScheduler(db *gorm.DB, snapshots *SnapshotService, cfg *config.SchedulerConfig) *SnapshotScheduler {
	return &SnapshotScheduler{db: db, snapshots: snapshots, cfg: cfg}
}

func (s *SnapshotScheduler) StartScheduler() {
	s.cronScheduler = cron.New()

	s.updateSchedule()

	s.cronScheduler.Start()
	logger.Infof("[SnapshotScheduler] Scheduler started")
}

func (s *SnapshotScheduler) StopScheduler() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
	}
}

// Reschedule re-reads the configured time and replaces the cron entry.
func (s *SnapshotScheduler) Reschedule() {
	if s.cronScheduler != nil {
		s.updateSchedule()
	}
}

func (s *SnapshotScheduler) updateSchedule() {
	if s.currentEntryID != 0 {
		s.cronScheduler.Remove(s.currentEntryID)
	}

	snapshotTime := s.getSnapshotTime()
	cronExpr := cronExprForTime(snapshotTime)

	entryID, err := s.cronScheduler.AddFunc(cronExpr, func() {
		s.runNightly()
	})
	if err != nil {
		logger.Errorf("[SnapshotScheduler] Failed to add cron job: %v", err)
		return
	}

	s.currentEntryID = entryID
	logger.Infof("[SnapshotScheduler] Scheduled at %s (cron: %s)", snapshotTime, cronExpr)
}

// cronExprForTime turns an "HH:MM" wall-clock time into a daily cron
// expression. Malformed input falls back to 01:00.
func cronExprForTime(snapshotTime string) string {
	parts := strings.Split(snapshotTime, ":")
	hour := "1"
	minute := "0"
	if len(parts) == 2 {
		hour = strings.TrimPrefix(parts[0], "0")
		minute = strings.TrimPrefix(parts[1], "0")
		if hour == "" {
			hour = "0"
		}
		if minute == "" {
			minute = "0"
		}
	}
	return fmt.Sprintf("%s %s * * *", minute, hour)
}

func (s *SnapshotScheduler) runNightly() {
	if !s.isEnabled() {
		return
	}

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	jobID := uuid.NewString()

	_, err := s.snapshots.BuildSnapshot(context.Background(),
		string(ReportCallSummary), yesterday, yesterday, "scheduled", jobID)
	if err != nil {
		logger.Errorf("[SnapshotScheduler] Nightly snapshot for %s failed: %v", yesterday, err)
	}

	s.snapshots.CleanupOldSnapshots()
}

func (s *SnapshotScheduler) getSnapshotTime() string {
	var cfg models.SystemConfig
	if err := s.db.Where("key = ?", "snapshot_schedule_time").First(&cfg).Error; err != nil {
		return s.cfg.SnapshotTime
	}
	return cfg.Value
}

func (s *SnapshotScheduler) isEnabled() bool {
	var cfg models.SystemConfig
	if err := s.db.Where("key = ?", "snapshot_schedule_enabled").First(&cfg).Error; err != nil {
		return s.cfg.Enabled
	}
	return cfg.Value == "true"
}
