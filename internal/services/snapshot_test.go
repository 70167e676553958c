package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/callsight/backend/internal/dialer"
	"github.com/callsight/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newSnapshotTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.ReportSnapshot{}, &models.SystemConfig{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestBuildSnapshot_PersistsHeadlineNumbers(t *testing.T) {
	api := &fakeDialerAPI{
		calls: []dialer.Call{
			{ID: 1, AgentID: 7, Direction: dialer.DirectionOutbound, Disposition: dialer.DispositionAnswered, StartTime: at(1, 9), DurationSeconds: 60},
			{ID: 2, AgentID: 7, Direction: dialer.DirectionOutbound, Disposition: dialer.DispositionNoAnswer, StartTime: at(1, 10)},
		},
	}
	svc := NewSnapshotService(newSnapshotTestDB(t), newTestService(api))

	snapshot, err := svc.BuildSnapshot(context.Background(), "call-summary", "2026-03-01", "2026-03-01", "api", "job-1")
	if err != nil {
		t.Fatalf("BuildSnapshot failed: %v", err)
	}

	if snapshot.ID == 0 {
		t.Error("snapshot should be persisted with an ID")
	}
	if snapshot.JobID != "job-1" || snapshot.Trigger != "api" {
		t.Errorf("job metadata wrong: %+v", snapshot)
	}
	if snapshot.TotalCalls != 2 || snapshot.AnsweredCalls != 1 || snapshot.AnswerRate != 50 {
		t.Errorf("headline numbers = %d/%d/%v, expected 2/1/50",
			snapshot.TotalCalls, snapshot.AnsweredCalls, snapshot.AnswerRate)
	}

	var payload ReportData
	if err := json.Unmarshal([]byte(snapshot.Payload), &payload); err != nil {
		t.Fatalf("payload does not round-trip: %v", err)
	}
	if payload.ReportType != ReportCallSummary {
		t.Errorf("payload type = %q, expected call-summary", payload.ReportType)
	}
	if payload.DateRange.Start != "2026-03-01" || payload.DateRange.End != "2026-03-01" {
		t.Errorf("payload range = %+v", payload.DateRange)
	}
}

func TestBuildSnapshot_AgentPerformanceHeadlines(t *testing.T) {
	api := &fakeDialerAPI{
		agents: []dialer.Agent{{ID: 7, DisplayName: "Ana"}},
		calls: []dialer.Call{
			{ID: 1, AgentID: 7, Disposition: dialer.DispositionAnswered, StartTime: at(1, 9)},
		},
	}
	svc := NewSnapshotService(newSnapshotTestDB(t), newTestService(api))

	snapshot, err := svc.BuildSnapshot(context.Background(), "agent-performance", "2026-03-01", "2026-03-01", "scheduled", "job-2")
	if err != nil {
		t.Fatalf("BuildSnapshot failed: %v", err)
	}
	if snapshot.TotalCalls != 1 || snapshot.AnsweredCalls != 1 {
		t.Errorf("headline numbers = %d/%d, expected 1/1", snapshot.TotalCalls, snapshot.AnsweredCalls)
	}
}

func TestBuildSnapshot_InvalidReportNotPersisted(t *testing.T) {
	db := newSnapshotTestDB(t)
	svc := NewSnapshotService(db, newTestService(&fakeDialerAPI{}))

	if _, err := svc.BuildSnapshot(context.Background(), "weekly-digest", "2026-03-01", "2026-03-01", "api", "job-3"); err == nil {
		t.Fatal("expected error for unknown report type")
	}

	var count int64
	db.Model(&models.ReportSnapshot{}).Count(&count)
	if count != 0 {
		t.Errorf("failed builds must not leave rows, found %d", count)
	}
}

func TestSnapshotList_NewestFirstPaginated(t *testing.T) {
	db := newSnapshotTestDB(t)
	svc := NewSnapshotService(db, newTestService(&fakeDialerAPI{}))

	base := time.Date(2026, 3, 1, 1, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		db.Create(&models.ReportSnapshot{
			JobID:       fmt.Sprintf("job-%d", i),
			ReportType:  "call-summary",
			StartDate:   "2026-03-01",
			EndDate:     "2026-03-01",
			GeneratedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	snapshots, total, err := svc.List(1, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, expected 3", total)
	}
	if len(snapshots) != 2 {
		t.Fatalf("page size = %d, expected 2", len(snapshots))
	}
	if snapshots[0].JobID != "job-2" || snapshots[1].JobID != "job-1" {
		t.Errorf("order wrong: %s, %s; expected newest first", snapshots[0].JobID, snapshots[1].JobID)
	}

	second, _, err := svc.List(2, 2)
	if err != nil {
		t.Fatalf("List page 2 failed: %v", err)
	}
	if len(second) != 1 || second[0].JobID != "job-0" {
		t.Errorf("page 2 = %+v, expected only job-0", second)
	}
}

func TestCleanupOldSnapshots_Retention(t *testing.T) {
	db := newSnapshotTestDB(t)
	db.Create(&models.SystemConfig{Key: "snapshot_retention_days", Value: "30", Type: "int", Group: "scheduler"})
	svc := NewSnapshotService(db, newTestService(&fakeDialerAPI{}))

	db.Create(&models.ReportSnapshot{JobID: "old", ReportType: "call-summary",
		GeneratedAt: time.Now().AddDate(0, 0, -40)})
	db.Create(&models.ReportSnapshot{JobID: "recent", ReportType: "call-summary",
		GeneratedAt: time.Now().AddDate(0, 0, -5)})

	svc.CleanupOldSnapshots()

	var remaining []models.ReportSnapshot
	db.Find(&remaining)
	if len(remaining) != 1 {
		t.Fatalf("expected 1 surviving snapshot, got %d", len(remaining))
	}
	if remaining[0].JobID != "recent" {
		t.Errorf("wrong snapshot survived: %s", remaining[0].JobID)
	}
}

func TestRetentionDays_DefaultWithoutConfigRow(t *testing.T) {
	svc := NewSnapshotService(newSnapshotTestDB(t), newTestService(&fakeDialerAPI{}))

	if days := svc.retentionDays(); days != 90 {
		t.Errorf("retentionDays = %d, expected the 90-day default", days)
	}
}

func TestProcessReportTask_StoresSnapshot(t *testing.T) {
	api := &fakeDialerAPI{
		calls: []dialer.Call{
			{ID: 1, Disposition: dialer.DispositionAnswered, StartTime: at(1, 9)},
		},
	}
	db := newSnapshotTestDB(t)
	svc := NewSnapshotService(db, newTestService(api))

	task := &ReportTask{
		JobID:      "job-q",
		ReportType: "call-summary",
		StartDate:  "2026-03-01",
		EndDate:    "2026-03-01",
		Trigger:    "api",
	}
	if err := svc.ProcessReportTask(context.Background(), task); err != nil {
		t.Fatalf("ProcessReportTask failed: %v", err)
	}

	var snapshot models.ReportSnapshot
	if err := db.Where("job_id = ?", "job-q").First(&snapshot).Error; err != nil {
		t.Fatalf("snapshot not stored: %v", err)
	}
	if snapshot.Trigger != "api" || snapshot.TotalCalls != 1 {
		t.Errorf("stored snapshot wrong: %+v", snapshot)
	}
}
