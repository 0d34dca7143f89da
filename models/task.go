package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TaskStatus is the closed set of states a task can report.
type TaskStatus string

const (
	StatusQueued     TaskStatus = "queued"
	StatusProcessing TaskStatus = "processing"
	StatusCompleted  TaskStatus = "completed"
	StatusError      TaskStatus = "error"
)

// Terminal reports whether a task in this status can never change again.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// ProgressRecord is the wire-visible state of one pipeline run. Progress
// values written by the orchestrator are non-decreasing; clients enforce
// monotonicity on their side as well since the network may reorder reads.
type ProgressRecord struct {
	TaskID   string     `json:"task_id"`
	Progress int        `json:"progress"`
	Stage    string     `json:"stage"`
	Status   TaskStatus `json:"status"`
}

func (r ProgressRecord) Terminal() bool {
	return r.Status.Terminal()
}

const placeholderPrefix = "temp_"

// NewPlaceholderID mints a client-side task identifier used before the
// backend has allocated a real one. The embedded timestamp lets the
// client age it out.
func NewPlaceholderID(now time.Time) string {
	return fmt.Sprintf("%s%d", placeholderPrefix, now.UnixMilli())
}

func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, placeholderPrefix)
}

// PlaceholderAge returns how long ago a placeholder identifier was
// minted, or zero if the identifier is not a placeholder.
func PlaceholderAge(id string, now time.Time) time.Duration {
	if !IsPlaceholderID(id) {
		return 0
	}
	ms, err := strconv.ParseInt(strings.TrimPrefix(id, placeholderPrefix), 10, 64)
	if err != nil {
		return 0
	}
	age := now.Sub(time.UnixMilli(ms))
	if age < 0 {
		return 0
	}
	return age
}
