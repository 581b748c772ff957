package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestUploadStatus_Finished(t *testing.T) {
	tests := []struct {
		status   UploadStatus
		expected bool
	}{
		{UploadStatusQueued, false},
		{UploadStatusProcessing, false},
		{UploadStatusProcessed, true},
		{UploadStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Finished(); got != tt.expected {
				t.Errorf("Finished() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUpload_HasIssue(t *testing.T) {
	u := &Upload{Issues: StringSlice{"low_bitrate", "clipping"}}

	if !u.HasIssue("clipping") {
		t.Error("Expected clipping issue to be found")
	}
	if u.HasIssue("too_short") {
		t.Error("Expected too_short issue to be absent")
	}
}

func TestUpload_Title(t *testing.T) {
	u := &Upload{OriginalFilename: "track01.mp3"}
	if u.Title() != "track01.mp3" {
		t.Errorf("Expected filename fallback, got %s", u.Title())
	}

	u.DetectedTitle = "Nkwagala"
	if u.Title() != "Nkwagala" {
		t.Errorf("Expected detected title, got %s", u.Title())
	}
}

func TestStringSlice_ValueScan(t *testing.T) {
	var empty StringSlice
	v, err := empty.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != "[]" {
		t.Errorf("Expected empty slice to encode as [], got %v", v)
	}

	var s StringSlice
	if err := s.Scan(`["Luganda","English"]`); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(s) != 2 || s[0] != "Luganda" {
		t.Errorf("Unexpected scan result: %v", s)
	}
	if !s.Contains("English") {
		t.Error("Expected Contains(English) to be true")
	}

	if err := s.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if s != nil {
		t.Errorf("Expected nil after scanning NULL, got %v", s)
	}
}

func TestBatchID(t *testing.T) {
	id := NewBatchID()
	if !strings.HasPrefix(id.String(), "batch_") {
		t.Errorf("Expected batch_ prefix, got %s", id)
	}
	if err := id.Validate(); err != nil {
		t.Errorf("Expected generated id to be valid, got %v", err)
	}
	if NewBatchID() == id {
		t.Error("Expected distinct batch ids")
	}

	for _, bad := range []BatchID{"", "   ", " batch_1"} {
		if err := bad.Validate(); !errors.Is(err, ErrValidation) {
			t.Errorf("Expected ErrValidation for %q, got %v", bad, err)
		}
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"not found", fmt.Errorf("blob: %w", ErrNotFound), false},
		{"validation", ErrValidation, false},
		{"prereq", ErrPrereqNotMet, false},
		{"empty batch", ErrEmptyBatch, false},
		{"no valid uploads", ErrNoValidUploads, false},
		{"transient", fmt.Errorf("registry: %w", ErrTransientDependency), true},
		{"unknown", errors.New("boom"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.expected {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestTaskType_Policies(t *testing.T) {
	tests := []struct {
		taskType TaskType
		attempts int
		timeout  time.Duration
	}{
		{TaskTypeExtractMetadata, 3, 5 * time.Minute},
		{TaskTypePromoteBatch, 3, 30 * time.Minute},
		{TaskTypeRegisterISRC, 3, 5 * time.Minute},
		{TaskTypeRegisterInternational, 2, 10 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(string(tt.taskType), func(t *testing.T) {
			if tt.taskType.MaxAttempts() != tt.attempts {
				t.Errorf("MaxAttempts() = %d, want %d", tt.taskType.MaxAttempts(), tt.attempts)
			}
			if tt.taskType.Timeout() != tt.timeout {
				t.Errorf("Timeout() = %v, want %v", tt.taskType.Timeout(), tt.timeout)
			}
		})
	}
}

func TestNewTask(t *testing.T) {
	runAt := time.Now()
	task, err := NewTask(TaskTypePromoteBatch, PromotePayload{BatchID: "batch_1", AlbumID: 7}, PromoteDedupeKey("batch_1"), runAt)
	if err != nil {
		t.Fatalf("NewTask failed: %v", err)
	}
	if task.Status != TaskStatusQueued {
		t.Errorf("Expected queued status, got %s", task.Status)
	}
	if task.MaxAttempts != 3 {
		t.Errorf("Expected 3 max attempts, got %d", task.MaxAttempts)
	}
	if task.DedupeKey == nil || *task.DedupeKey != "batch:batch_1" {
		t.Errorf("Unexpected dedupe key: %v", task.DedupeKey)
	}

	var p PromotePayload
	if err := task.Decode(&p); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if p.AlbumID != 7 || p.BatchID != "batch_1" {
		t.Errorf("Unexpected payload: %+v", p)
	}

	task.Payload = "{"
	if err := task.Decode(&p); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for malformed payload, got %v", err)
	}
}

func TestTask_Exhausted(t *testing.T) {
	task := &Task{Attempts: 2, MaxAttempts: 3}
	if task.Exhausted() {
		t.Error("Expected task with attempts left not to be exhausted")
	}
	task.Attempts = 3
	if !task.Exhausted() {
		t.Error("Expected task at ceiling to be exhausted")
	}
}
