package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return nil
	}

	if len(data) == 0 || string(data) == "null" {
		*s = nil
		return nil
	}

	return json.Unmarshal(data, s)
}

// Contains reports whether v is present in the slice.
func (s StringSlice) Contains(v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}

const batchIDPrefix = "batch_"

// BatchID groups the uploads that together form one album.
type BatchID string

// NewBatchID returns a fresh random batch identifier.
func NewBatchID() BatchID {
	return BatchID(batchIDPrefix + uuid.New().String())
}

func (b BatchID) String() string {
	return string(b)
}

// Validate rejects empty or whitespace-padded identifiers.
func (b BatchID) Validate() error {
	s := string(b)
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: batch id is empty", ErrValidation)
	}
	if strings.TrimSpace(s) != s {
		return fmt.Errorf("%w: batch id %q has surrounding whitespace", ErrValidation, s)
	}
	return nil
}
