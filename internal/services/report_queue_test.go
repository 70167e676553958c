package services

import (
	"context"
	"testing"
	"time"
)

func TestTaskTypeReport_Constant(t *testing.T) {
	if TaskTypeReport != "report:generate" {
		t.Errorf("TaskTypeReport = %q, expected %q", TaskTypeReport, "report:generate")
	}
}

func TestSyncQueue_IsAsync(t *testing.T) {
	queue := NewSyncQueue()
	if queue.IsAsync() {
		t.Error("SyncQueue.IsAsync() should return false")
	}
}

func TestSyncQueue_Close(t *testing.T) {
	queue := NewSyncQueue()
	if err := queue.Close(); err != nil {
		t.Errorf("SyncQueue.Close() should return nil, got %v", err)
	}
}

func TestSyncQueue_EnqueueWithoutProcessor(t *testing.T) {
	queue := NewSyncQueue()
	task := &ReportTask{
		JobID:      "job-1",
		ReportType: "call-summary",
		StartDate:  "2026-03-01",
		EndDate:    "2026-03-07",
	}

	if err := queue.Enqueue(task); err != nil {
		t.Errorf("Enqueue without processor should not error, got %v", err)
	}
}

func TestSyncQueue_EnqueueRunsProcessor(t *testing.T) {
	queue := NewSyncQueue()
	done := make(chan *ReportTask, 1)
	queue.SetProcessor(func(ctx context.Context, task *ReportTask) error {
		done <- task
		return nil
	})

	task := &ReportTask{JobID: "job-2", ReportType: "agent-performance", Trigger: "api"}
	if err := queue.Enqueue(task); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	select {
	case got := <-done:
		if got.JobID != "job-2" {
			t.Errorf("processor received job %q, expected job-2", got.JobID)
		}
	case <-time.After(time.Second):
		t.Fatal("processor was not invoked")
	}
}

func TestAsyncQueue_IsAsync(t *testing.T) {
	queue := &AsyncQueue{}
	if !queue.IsAsync() {
		t.Error("AsyncQueue.IsAsync() should return true")
	}
}
