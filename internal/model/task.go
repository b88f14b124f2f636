package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// TaskState is the lifecycle position of a task.
//
// Lifecycle: pending -> active -> completed | failed
type TaskState string

const (
	StatePending   TaskState = "pending"
	StateActive    TaskState = "active"
	StateCompleted TaskState = "completed"
	StateFailed    TaskState = "failed"
)

// TaskType is the scheduling class, fixed at creation.
type TaskType string

const (
	TypeOneTime TaskType = "one-time"
	TypeDaily   TaskType = "daily"
)

// MaxTextLen bounds the task description, in runes, after trimming.
const MaxTextLen = 500

// Task is the sole entity of the tracker. The numeric ID is the storage key
// and never leaves the process; UID is the public identity.
type Task struct {
	ID             uint       `gorm:"primaryKey" json:"-"`
	UID            string     `gorm:"column:uid;size:36;uniqueIndex" json:"id"`
	Text           string     `gorm:"size:500;index" json:"text"`
	Type           TaskType   `gorm:"size:16;index:idx_task_type_state" json:"type"`
	State          TaskState  `gorm:"size:16;index;index:idx_task_type_state" json:"state"`
	DueAt          *time.Time `gorm:"index" json:"dueAt,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	ActivatedAt    *time.Time `gorm:"index" json:"activatedAt,omitempty"`
	CompletedAt    *time.Time `gorm:"index" json:"completedAt,omitempty"`
	FailedAt       *time.Time `gorm:"index" json:"failedAt,omitempty"`
	OriginalUID    string     `gorm:"column:original_uid;size:36;index" json:"originalId,omitempty"`
	IsReactivation bool       `gorm:"default:false" json:"isReactivation"`
}

func (Task) TableName() string {
	return "tasks"
}

// Validate checks the invariants that must hold on every persist, regardless
// of which transition produced the write.
func (t *Task) Validate() error {
	text := strings.TrimSpace(t.Text)
	if text == "" {
		return &ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(text) > MaxTextLen {
		return &ValidationError{Field: "text", Reason: "must be at most 500 characters"}
	}
	switch t.Type {
	case TypeOneTime, TypeDaily:
	default:
		return &ValidationError{Field: "type", Reason: "must be one-time or daily"}
	}
	switch t.State {
	case StatePending, StateActive, StateCompleted, StateFailed:
	default:
		return &ValidationError{Field: "state", Reason: "unknown state"}
	}
	if t.Type == TypeOneTime && t.DueAt == nil {
		return &ValidationError{Field: "dueAt", Reason: "required for one-time tasks"}
	}
	return nil
}
