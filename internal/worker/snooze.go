package worker

import (
	"errors"
	"fmt"
	"time"
)

// SnoozeError asks the worker to run the task again after Delay without
// counting the attempt.
type SnoozeError struct {
	Delay  time.Duration
	Reason string
}

func (e *SnoozeError) Error() string {
	return fmt.Sprintf("snoozed for %s: %s", e.Delay, e.Reason)
}

func Snooze(delay time.Duration, reason string) error {
	return &SnoozeError{Delay: delay, Reason: reason}
}

func asSnooze(err error) (*SnoozeError, bool) {
	var s *SnoozeError
	if errors.As(err, &s) {
		return s, true
	}
	return nil, false
}
