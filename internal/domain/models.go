package domain

import (
	"fmt"
	"strings"
	"time"
)

// FailedElapsed is stored in place of a latency when a probe fails.
const FailedElapsed int64 = -1

type TaskType string

const (
	TaskICMP TaskType = "icmp"
	TaskTCP  TaskType = "tcp"
	TaskHTTP TaskType = "http"
)

// ParseTaskType accepts the lower-case configuration spelling, case-insensitively.
func ParseTaskType(s string) (TaskType, error) {
	switch t := TaskType(strings.ToLower(strings.TrimSpace(s))); t {
	case TaskICMP, TaskTCP, TaskHTTP:
		return t, nil
	default:
		return "", fmt.Errorf("unknown task type %q", s)
	}
}

// String renders the type the way it appears in status keys and metric labels.
func (t TaskType) String() string {
	return strings.ToUpper(string(t))
}

type Task struct {
	Type   TaskType `json:"task_type" yaml:"task-type"`
	Target string   `json:"target" yaml:"target"`
}

type TaskGroup struct {
	Interval time.Duration
	Timeout  time.Duration
	Tasks    []Task
}

type ProbeResult struct {
	Type    TaskType
	Target  string
	Elapsed int64 // milliseconds, FailedElapsed on failure
}

func (r ProbeResult) OK() bool { return r.Elapsed >= 0 }

type TargetStatus struct {
	Type      TaskType  `json:"task_type"`
	Target    string    `json:"target"`
	Elapsed   int64     `json:"elapsed"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s TargetStatus) Up() bool { return s.Elapsed >= 0 }

// StatusKey names one tracked (type, target) pair, e.g. "ICMP 127.0.0.1".
type StatusKey string

func KeyOf(t TaskType, target string) StatusKey {
	return StatusKey(t.String() + " " + target)
}
