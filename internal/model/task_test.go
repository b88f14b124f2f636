package model

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTaskValidate(t *testing.T) {
	due := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		task    Task
		wantErr bool
	}{
		{
			name: "valid one-time",
			task: Task{Text: "Buy milk", Type: TypeOneTime, State: StatePending, DueAt: &due},
		},
		{
			name: "valid daily without due",
			task: Task{Text: "Stretch", Type: TypeDaily, State: StateActive},
		},
		{
			name:    "empty text",
			task:    Task{Text: "", Type: TypeDaily, State: StatePending},
			wantErr: true,
		},
		{
			name:    "whitespace text",
			task:    Task{Text: "   \t", Type: TypeDaily, State: StatePending},
			wantErr: true,
		},
		{
			name:    "text too long",
			task:    Task{Text: strings.Repeat("x", MaxTextLen+1), Type: TypeDaily, State: StatePending},
			wantErr: true,
		},
		{
			name: "text at limit",
			task: Task{Text: strings.Repeat("x", MaxTextLen), Type: TypeDaily, State: StatePending},
		},
		{
			name:    "one-time without due",
			task:    Task{Text: "Pay rent", Type: TypeOneTime, State: StatePending},
			wantErr: true,
		},
		{
			name:    "unknown type",
			task:    Task{Text: "Task", Type: "weekly", State: StatePending},
			wantErr: true,
		},
		{
			name:    "unknown state",
			task:    Task{Text: "Task", Type: TypeDaily, State: "paused"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if tt.wantErr {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
