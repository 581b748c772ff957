package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
)

func newTask(t *testing.T, taskType domain.TaskType, key string, runAt time.Time) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(taskType, domain.ExtractPayload{UploadID: 1}, key, runAt)
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}
	return task
}

func TestDB_EnqueueDeduplicates(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first := newTask(t, domain.TaskTypeExtractMetadata, "upload:1", time.Now())
	inserted, err := db.EnqueueTask(ctx, first)
	if err != nil || !inserted {
		t.Fatalf("EnqueueTask = %v, %v", inserted, err)
	}

	second := newTask(t, domain.TaskTypeExtractMetadata, "upload:1", time.Now())
	inserted, err = db.EnqueueTask(ctx, second)
	if err != nil {
		t.Fatalf("EnqueueTask failed: %v", err)
	}
	if inserted {
		t.Error("Expected duplicate active task to be ignored")
	}

	// Same key under another type is a different subject
	other := newTask(t, domain.TaskTypePromoteBatch, "upload:1", time.Now())
	if inserted, _ := db.EnqueueTask(ctx, other); !inserted {
		t.Error("Expected task of a different type to be inserted")
	}

	active, err := db.GetActiveTask(ctx, domain.TaskTypeExtractMetadata, "upload:1")
	if err != nil {
		t.Fatalf("GetActiveTask failed: %v", err)
	}
	if active == nil || active.ID != first.ID {
		t.Errorf("Expected active task %s, got %+v", first.ID, active)
	}

	// Once finished, the key can be reused
	claimed, _ := db.ClaimTask(ctx)
	for claimed != nil && claimed.ID != first.ID {
		claimed, _ = db.ClaimTask(ctx)
	}
	if claimed == nil {
		t.Fatal("Expected to claim the first task")
	}
	if err := db.CompleteTask(ctx, claimed.ID, claimed.Attempts); err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	third := newTask(t, domain.TaskTypeExtractMetadata, "upload:1", time.Now())
	if inserted, _ := db.EnqueueTask(ctx, third); !inserted {
		t.Error("Expected key to be reusable after completion")
	}
}

func TestDB_ClaimSnoozeRetryFail(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	db.Now = func() time.Time { return now }

	future := newTask(t, domain.TaskTypePromoteBatch, "batch:b1", now.Add(time.Minute))
	if _, err := db.EnqueueTask(ctx, future); err != nil {
		t.Fatalf("EnqueueTask failed: %v", err)
	}

	claimed, err := db.ClaimTask(ctx)
	if err != nil {
		t.Fatalf("ClaimTask failed: %v", err)
	}
	if claimed != nil {
		t.Fatalf("Expected nothing due yet, got %s", claimed.ID)
	}

	now = now.Add(2 * time.Minute)
	claimed, err = db.ClaimTask(ctx)
	if err != nil || claimed == nil {
		t.Fatalf("ClaimTask = %v, %v", claimed, err)
	}
	if claimed.Attempts != 1 || claimed.Status != domain.TaskStatusRunning {
		t.Errorf("Unexpected claimed task: attempts=%d status=%s", claimed.Attempts, claimed.Status)
	}

	// Snooze refunds the attempt
	if err := db.SnoozeTask(ctx, claimed.ID, claimed.Attempts, now.Add(time.Minute)); err != nil {
		t.Fatalf("SnoozeTask failed: %v", err)
	}
	got, _ := db.GetTask(ctx, claimed.ID)
	if got.Status != domain.TaskStatusQueued || got.Attempts != 0 {
		t.Errorf("Expected queued with 0 attempts, got %s/%d", got.Status, got.Attempts)
	}

	now = now.Add(2 * time.Minute)
	claimed, _ = db.ClaimTask(ctx)
	if claimed == nil || claimed.Attempts != 1 {
		t.Fatalf("Expected reclaim with attempt 1, got %+v", claimed)
	}

	if err := db.RetryTask(ctx, claimed.ID, claimed.Attempts, now, "transient"); err != nil {
		t.Fatalf("RetryTask failed: %v", err)
	}
	claimed, _ = db.ClaimTask(ctx)
	if claimed == nil || claimed.Attempts != 2 {
		t.Fatalf("Expected reclaim with attempt 2, got %+v", claimed)
	}
	if claimed.LastError == nil || *claimed.LastError != "transient" {
		t.Errorf("Expected last error to be kept, got %v", claimed.LastError)
	}

	// A stale attempt number cannot finish the task
	if err := db.CompleteTask(ctx, claimed.ID, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected fenced completion to fail, got %v", err)
	}

	if err := db.FailTask(ctx, claimed.ID, claimed.Attempts, "fatal"); err != nil {
		t.Fatalf("FailTask failed: %v", err)
	}
	got, _ = db.GetTask(ctx, claimed.ID)
	if got.Status != domain.TaskStatusFailed || got.FinishedAt == nil {
		t.Errorf("Expected failed task with finished_at, got %+v", got)
	}

	stats, err := db.GetTaskStats(ctx)
	if err != nil {
		t.Fatalf("GetTaskStats failed: %v", err)
	}
	if stats.Total != 1 || stats.Failed != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestDB_ExpiredLeaseIsRedelivered(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	db.Now = func() time.Time { return now }

	task := newTask(t, domain.TaskTypeRegisterInternational, "isrc-intl:X", now)
	if _, err := db.EnqueueTask(ctx, task); err != nil {
		t.Fatalf("EnqueueTask failed: %v", err)
	}

	first, _ := db.ClaimTask(ctx)
	if first == nil {
		t.Fatal("Expected a claim")
	}

	// Still leased
	if again, _ := db.ClaimTask(ctx); again != nil {
		t.Fatalf("Expected leased task not to be claimable, got %s", again.ID)
	}

	// Worker crashed; lease expires
	now = now.Add(domain.TaskTypeRegisterInternational.Timeout() + time.Hour)
	second, _ := db.ClaimTask(ctx)
	if second == nil || second.ID != first.ID || second.Attempts != 2 {
		t.Fatalf("Expected redelivery with attempt 2, got %+v", second)
	}

	// Out of attempts after the second lease expires
	now = now.Add(domain.TaskTypeRegisterInternational.Timeout() + time.Hour)
	if third, _ := db.ClaimTask(ctx); third != nil {
		t.Fatalf("Expected exhausted task not to be claimed, got attempt %d", third.Attempts)
	}

	abandoned, err := db.ListAbandonedTasks(ctx)
	if err != nil {
		t.Fatalf("ListAbandonedTasks failed: %v", err)
	}
	if len(abandoned) != 1 || abandoned[0].ID != first.ID {
		t.Errorf("Expected task to be reported abandoned, got %+v", abandoned)
	}
}
