package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/constants"
)

type TaskType string

const (
	TaskTypeExtractMetadata       TaskType = "extract_metadata"
	TaskTypePromoteBatch          TaskType = "promote_batch"
	TaskTypeRegisterISRC          TaskType = "register_isrc"
	TaskTypeRegisterInternational TaskType = "register_international"
)

// MaxAttempts is the retry ceiling for the task type.
func (t TaskType) MaxAttempts() int {
	switch t {
	case TaskTypeExtractMetadata:
		return constants.ExtractMaxAttempts
	case TaskTypePromoteBatch:
		return constants.PromoteMaxAttempts
	case TaskTypeRegisterISRC:
		return constants.RegisterMaxAttempts
	case TaskTypeRegisterInternational:
		return constants.InternationalMaxAttempts
	}
	return constants.DefaultRetryCount
}

// Timeout bounds a single attempt of the task type.
func (t TaskType) Timeout() time.Duration {
	switch t {
	case TaskTypeExtractMetadata:
		return constants.ExtractTimeout
	case TaskTypePromoteBatch:
		return constants.PromoteTimeout
	case TaskTypeRegisterISRC:
		return constants.RegisterTimeout
	case TaskTypeRegisterInternational:
		return constants.InternationalTimeout
	}
	return constants.DefaultHTTPTimeout
}

type TaskStatus string

const (
	TaskStatusQueued    TaskStatus = "queued"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Task represents a durable work item in the queue
type Task struct {
	RunAt       time.Time  `json:"run_at" db:"run_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	LeaseUntil  *time.Time `json:"lease_until,omitempty" db:"lease_until"`
	FinishedAt  *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	LastError   *string    `json:"last_error,omitempty" db:"last_error"`
	DedupeKey   *string    `json:"dedupe_key,omitempty" db:"dedupe_key"`
	ID          string     `json:"id" db:"id"`
	Type        TaskType   `json:"type" db:"type"`
	Status      TaskStatus `json:"status" db:"status"`
	Payload     string     `json:"payload" db:"payload"`
	Attempts    int        `json:"attempts" db:"attempts"`
	MaxAttempts int        `json:"max_attempts" db:"max_attempts"`
}

// NewTask builds a queued task of the given type. A non-empty dedupeKey
// suppresses a second active task with the same type and key.
func NewTask(taskType TaskType, payload any, dedupeKey string, runAt time.Time) (*Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", taskType, err)
	}
	now := time.Now().UTC()
	t := &Task{
		ID:          uuid.New().String(),
		Type:        taskType,
		Status:      TaskStatusQueued,
		Payload:     string(data),
		MaxAttempts: taskType.MaxAttempts(),
		RunAt:       runAt.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if dedupeKey != "" {
		t.DedupeKey = &dedupeKey
	}
	return t, nil
}

// Decode unmarshals the task payload into v.
func (t *Task) Decode(v any) error {
	if err := json.Unmarshal([]byte(t.Payload), v); err != nil {
		return fmt.Errorf("%w: malformed %s payload: %v", ErrValidation, t.Type, err)
	}
	return nil
}

// Exhausted reports whether the task has used every attempt it is allowed.
func (t *Task) Exhausted() bool {
	return t.Attempts >= t.MaxAttempts
}

type ExtractPayload struct {
	UploadID int64 `json:"upload_id"`
}

type PromotePayload struct {
	BatchID BatchID `json:"batch_id"`
	AlbumID int64   `json:"album_id"`
}

type RegisterPayload struct {
	ISRCID int64 `json:"isrc_id"`
}

type InternationalPayload struct {
	ISRCID      int64    `json:"isrc_id"`
	Territories []string `json:"territories"`
}

func ExtractDedupeKey(uploadID int64) string {
	return fmt.Sprintf("upload:%d", uploadID)
}

func PromoteDedupeKey(batchID BatchID) string {
	return "batch:" + batchID.String()
}

func RegisterDedupeKey(code string) string {
	return "isrc:" + code
}

func InternationalDedupeKey(code string) string {
	return "isrc-intl:" + code
}
