package dto

import (
	"encoding/json"
	"time"

	"github.com/Egonyu/tesotunes-next-web-sub012/internal/domain"
)

type TaskResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	DedupeKey   string          `json:"dedupe_key,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	RunAt       string          `json:"run_at"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
	Error       string          `json:"error,omitempty"`
}

func NewTaskResponse(t *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		Type:        string(t.Type),
		Status:      string(t.Status),
		Attempts:    t.Attempts,
		MaxAttempts: t.MaxAttempts,
		RunAt:       t.RunAt.Format(time.RFC3339),
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
	if t.DedupeKey != nil {
		resp.DedupeKey = *t.DedupeKey
	}
	if json.Valid([]byte(t.Payload)) {
		resp.Payload = json.RawMessage(t.Payload)
	} else {
		resp.Payload = json.RawMessage("null")
	}
	if t.LastError != nil {
		resp.Error = *t.LastError
	}
	return resp
}

func NewTaskResponses(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, NewTaskResponse(t))
	}
	return out
}
