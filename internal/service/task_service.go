package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tasktracker/internal/model"
	"tasktracker/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Text  string
	Type  model.TaskType
	DueAt *time.Time
}

// TaskService is the lifecycle engine. It owns the transition rules, the
// derived timestamps, and the two read-side scheduling policies. All durable
// state lives in the repository; the service itself is stateless.
type TaskService struct {
	repo *repository.TaskRepository
	loc  *time.Location
	now  func() time.Time
}

func NewTaskService(repo *repository.TaskRepository, loc *time.Location) *TaskService {
	if loc == nil {
		loc = time.Local
	}
	return &TaskService{
		repo: repo,
		loc:  loc,
		now:  time.Now,
	}
}

// Create persists a new pending task after validation. Nothing is written
// when validation fails.
func (s *TaskService) Create(ctx context.Context, input TaskInput) (*model.Task, error) {
	now := s.now()
	task := model.Task{
		UID:       uuid.NewString(),
		Text:      strings.TrimSpace(input.Text),
		Type:      input.Type,
		State:     model.StatePending,
		DueAt:     input.DueAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &task); err != nil {
		return nil, storeErr("create", err)
	}
	return &task, nil
}

func (s *TaskService) Get(ctx context.Context, uid string) (*model.Task, error) {
	task, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		return nil, mapLookupErr(uid, err)
	}
	return task, nil
}

// Activate marks a task active. activatedAt is set the first time only;
// repeating the call moves updated_at but never the activation instant.
func (s *TaskService) Activate(ctx context.Context, uid string) (*model.Task, error) {
	return s.transition(ctx, uid, model.StateActive)
}

// Complete marks a task completed, setting completedAt exactly once.
func (s *TaskService) Complete(ctx context.Context, uid string) (*model.Task, error) {
	return s.transition(ctx, uid, model.StateCompleted)
}

// Fail marks a task failed, setting failedAt exactly once.
func (s *TaskService) Fail(ctx context.Context, uid string) (*model.Task, error) {
	return s.transition(ctx, uid, model.StateFailed)
}

func (s *TaskService) transition(ctx context.Context, uid string, state model.TaskState) (*model.Task, error) {
	task, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		return nil, mapLookupErr(uid, err)
	}
	// Invariants hold on every persist, whichever direction the
	// transition goes.
	if err := task.Validate(); err != nil {
		return nil, err
	}
	updated, err := s.repo.SetState(ctx, uid, state, s.now())
	if err != nil {
		return nil, mapLookupErr(uid, err)
	}
	return updated, nil
}

// Reactivate spawns a brand-new active task from an existing one, carrying
// text and type over and recording lineage through originalId. The source
// task is left untouched.
func (s *TaskService) Reactivate(ctx context.Context, uid string, newDueAt *time.Time) (*model.Task, error) {
	source, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		return nil, mapLookupErr(uid, err)
	}

	dueAt := source.DueAt
	if newDueAt != nil {
		dueAt = newDueAt
	}

	now := s.now()
	task := model.Task{
		UID:            uuid.NewString(),
		Text:           source.Text,
		Type:           source.Type,
		State:          model.StateActive,
		DueAt:          dueAt,
		CreatedAt:      now,
		UpdatedAt:      now,
		ActivatedAt:    &now,
		OriginalUID:    source.UID,
		IsReactivation: true,
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &task); err != nil {
		return nil, storeErr("create", err)
	}
	return &task, nil
}

func (s *TaskService) ListByState(ctx context.Context, state model.TaskState) ([]model.Task, error) {
	tasks, err := s.repo.ListByState(ctx, state)
	if err != nil {
		return nil, storeErr("list by state", err)
	}
	return tasks, nil
}

func (s *TaskService) ListByType(ctx context.Context, typ model.TaskType) ([]model.Task, error) {
	tasks, err := s.repo.ListByType(ctx, typ)
	if err != nil {
		return nil, storeErr("list by type", err)
	}
	return tasks, nil
}

func (s *TaskService) ListActiveByType(ctx context.Context, typ model.TaskType) ([]model.Task, error) {
	tasks, err := s.repo.ListByTypeAndState(ctx, typ, model.StateActive)
	if err != nil {
		return nil, storeErr("list active by type", err)
	}
	return tasks, nil
}

// ListOverdue returns one-time tasks that are active and past their deadline.
// A pure read: deciding whether to fail or reactivate them is the caller's
// business.
func (s *TaskService) ListOverdue(ctx context.Context) ([]model.Task, error) {
	tasks, err := s.repo.ListDueBefore(ctx, model.TypeOneTime, model.StateActive, s.now())
	if err != nil {
		return nil, storeErr("list overdue", err)
	}
	return tasks, nil
}

// ListDailyActiveToday returns daily tasks activated within the current
// local-day window.
func (s *TaskService) ListDailyActiveToday(ctx context.Context) ([]model.Task, error) {
	start, end := dayWindow(s.now(), s.loc)
	tasks, err := s.repo.ListActivatedBetween(ctx, model.TypeDaily, model.StateActive, start, end)
	if err != nil {
		return nil, storeErr("list daily active", err)
	}
	return tasks, nil
}

// Search matches tasks whose description contains the keyword.
func (s *TaskService) Search(ctx context.Context, keyword string) ([]model.Task, error) {
	tasks, err := s.repo.Search(ctx, keyword)
	if err != nil {
		return nil, storeErr("search", err)
	}
	return tasks, nil
}

func mapLookupErr(uid string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.NotFoundError{ID: uid}
	}
	return &model.IOError{Op: "lookup", Err: err}
}

func storeErr(op string, err error) error {
	return &model.IOError{Op: op, Err: err}
}
