package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"tasktracker/internal/model"
	"tasktracker/internal/repository"
)

// newTestEngine wires a service against a fresh in-memory store with a
// controllable clock.
func newTestEngine(t *testing.T, loc *time.Location) (*TaskService, func(time.Time)) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := repository.NewDB(dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	svc := NewTaskService(repository.NewTaskRepository(db), loc)
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return current }
	return svc, func(ts time.Time) { current = ts }
}

func TestCreate_RejectsEmptyTextWithoutPersisting(t *testing.T) {
	svc, _ := newTestEngine(t, time.UTC)
	ctx := context.Background()

	due := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	_, err := svc.Create(ctx, TaskInput{Text: "   ", Type: model.TypeOneTime, DueAt: &due})
	var vErr *model.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	tasks, err := svc.ListByState(ctx, model.StatePending)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected nothing persisted, got %d tasks", len(tasks))
	}
}

func TestCreate_RequiresDueForOneTime(t *testing.T) {
	svc, _ := newTestEngine(t, time.UTC)

	_, err := svc.Create(context.Background(), TaskInput{Text: "Pay rent", Type: model.TypeOneTime})
	var vErr *model.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCreate_TrimsTextAndStartsPending(t *testing.T) {
	svc, _ := newTestEngine(t, time.UTC)

	task, err := svc.Create(context.Background(), TaskInput{Text: "  Stretch  ", Type: model.TypeDaily})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Text != "Stretch" {
		t.Fatalf("expected trimmed text, got %q", task.Text)
	}
	if task.State != model.StatePending {
		t.Fatalf("expected pending, got %s", task.State)
	}
	if task.UID == "" || task.IsReactivation || task.OriginalUID != "" {
		t.Fatalf("unexpected identity fields: %+v", task)
	}
}

func TestCompleteRoundTrip(t *testing.T) {
	svc, setNow := newTestEngine(t, time.UTC)
	ctx := context.Background()

	due := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	created, err := svc.Create(ctx, TaskInput{Text: "Buy milk", Type: model.TypeOneTime, DueAt: &due})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	completedAt := time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC)
	setNow(completedAt)
	done, err := svc.Complete(ctx, created.UID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.State != model.StateCompleted {
		t.Fatalf("expected completed, got %s", done.State)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(completedAt) {
		t.Fatalf("expected completedAt %v, got %v", completedAt, done.CompletedAt)
	}
	if done.Text != "Buy milk" {
		t.Fatalf("text changed: %q", done.Text)
	}
}

func TestActivate_TimestampIsIdempotent(t *testing.T) {
	svc, setNow := newTestEngine(t, time.UTC)
	ctx := context.Background()

	task, err := svc.Create(ctx, TaskInput{Text: "Stretch", Type: model.TypeDaily})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
	setNow(first)
	activated, err := svc.Activate(ctx, task.UID)
	if err != nil {
		t.Fatalf("first activate: %v", err)
	}
	if activated.ActivatedAt == nil || !activated.ActivatedAt.Equal(first) {
		t.Fatalf("expected activatedAt %v, got %v", first, activated.ActivatedAt)
	}

	second := first.Add(2 * time.Hour)
	setNow(second)
	activated, err = svc.Activate(ctx, task.UID)
	if err != nil {
		t.Fatalf("second activate: %v", err)
	}
	if !activated.ActivatedAt.Equal(first) {
		t.Fatalf("activatedAt overwritten: %v", activated.ActivatedAt)
	}
	if !activated.UpdatedAt.Equal(second) {
		t.Fatalf("expected updatedAt %v, got %v", second, activated.UpdatedAt)
	}
}

func TestTransition_NotFound(t *testing.T) {
	svc, _ := newTestEngine(t, time.UTC)

	_, err := svc.Complete(context.Background(), "missing")
	var nErr *model.NotFoundError
	if !errors.As(err, &nErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nErr.ID != "missing" {
		t.Fatalf("expected id in error, got %q", nErr.ID)
	}
}

func TestReactivate_PreservesLineageAndSource(t *testing.T) {
	svc, setNow := newTestEngine(t, time.UTC)
	ctx := context.Background()

	due := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	source, err := svc.Create(ctx, TaskInput{Text: "Buy milk", Type: model.TypeOneTime, DueAt: &due})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Complete(ctx, source.UID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	reactivatedAt := time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC)
	setNow(reactivatedAt)
	successor, err := svc.Reactivate(ctx, source.UID, nil)
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}

	if successor.UID == source.UID {
		t.Fatal("successor must get a fresh id")
	}
	if successor.OriginalUID != source.UID || !successor.IsReactivation {
		t.Fatalf("lineage not preserved: %+v", successor)
	}
	if successor.State != model.StateActive {
		t.Fatalf("expected active successor, got %s", successor.State)
	}
	if successor.DueAt == nil || !successor.DueAt.Equal(due) {
		t.Fatalf("expected inherited dueAt %v, got %v", due, successor.DueAt)
	}
	if successor.ActivatedAt == nil || !successor.ActivatedAt.Equal(reactivatedAt) {
		t.Fatalf("expected activatedAt %v, got %v", reactivatedAt, successor.ActivatedAt)
	}
	if successor.Text != source.Text || successor.Type != source.Type {
		t.Fatalf("text/type not carried over: %+v", successor)
	}

	// The source record is untouched by reactivation.
	reloaded, err := svc.Get(ctx, source.UID)
	if err != nil {
		t.Fatalf("reload source: %v", err)
	}
	if reloaded.State != model.StateCompleted || reloaded.IsReactivation || reloaded.OriginalUID != "" {
		t.Fatalf("source mutated: %+v", reloaded)
	}
}

func TestReactivate_DueOverride(t *testing.T) {
	svc, _ := newTestEngine(t, time.UTC)
	ctx := context.Background()

	due := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	source, err := svc.Create(ctx, TaskInput{Text: "Pay rent", Type: model.TypeOneTime, DueAt: &due})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	override := due.AddDate(0, 1, 0)
	successor, err := svc.Reactivate(ctx, source.UID, &override)
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if successor.DueAt == nil || !successor.DueAt.Equal(override) {
		t.Fatalf("expected overridden dueAt %v, got %v", override, successor.DueAt)
	}
}

func TestReactivate_NotFound(t *testing.T) {
	svc, _ := newTestEngine(t, time.UTC)

	_, err := svc.Reactivate(context.Background(), "missing", nil)
	var nErr *model.NotFoundError
	if !errors.As(err, &nErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestListOverdue_WindowAndTerminalStates(t *testing.T) {
	svc, setNow := newTestEngine(t, time.UTC)
	ctx := context.Background()

	due := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	setNow(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))
	task, err := svc.Create(ctx, TaskInput{Text: "Submit report", Type: model.TypeOneTime, DueAt: &due})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Activate(ctx, task.UID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	setNow(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	overdue, err := svc.ListOverdue(ctx)
	if err != nil {
		t.Fatalf("list before deadline: %v", err)
	}
	if len(overdue) != 0 {
		t.Fatalf("not yet due, got %d tasks", len(overdue))
	}

	setNow(time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC))
	overdue, err = svc.ListOverdue(ctx)
	if err != nil {
		t.Fatalf("list after deadline: %v", err)
	}
	if len(overdue) != 1 || overdue[0].UID != task.UID {
		t.Fatalf("expected the task overdue, got %+v", overdue)
	}

	if _, err := svc.Complete(ctx, task.UID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	overdue, err = svc.ListOverdue(ctx)
	if err != nil {
		t.Fatalf("list after complete: %v", err)
	}
	if len(overdue) != 0 {
		t.Fatalf("completed task must not be overdue, got %+v", overdue)
	}
}

func TestListDailyActiveToday_RollsOffAtMidnight(t *testing.T) {
	svc, setNow := newTestEngine(t, time.UTC)
	ctx := context.Background()

	setNow(time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC))
	task, err := svc.Create(ctx, TaskInput{Text: "Stretch", Type: model.TypeDaily})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Activate(ctx, task.UID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	setNow(time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC))
	today, err := svc.ListDailyActiveToday(ctx)
	if err != nil {
		t.Fatalf("list same day: %v", err)
	}
	if len(today) != 1 || today[0].UID != task.UID {
		t.Fatalf("expected the task active today, got %+v", today)
	}

	// Past midnight the task is still active but no longer today's.
	setNow(time.Date(2024, 1, 2, 0, 30, 0, 0, time.UTC))
	today, err = svc.ListDailyActiveToday(ctx)
	if err != nil {
		t.Fatalf("list next day: %v", err)
	}
	if len(today) != 0 {
		t.Fatalf("expected no tasks after midnight, got %+v", today)
	}

	got, err := svc.Get(ctx, task.UID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != model.StateActive {
		t.Fatalf("state should still be active, got %s", got.State)
	}
}
