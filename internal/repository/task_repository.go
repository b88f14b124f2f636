package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"tasktracker/internal/model"
)

// stateTimestampColumn maps a target state to its set-once timestamp column.
var stateTimestampColumn = map[model.TaskState]string{
	model.StateActive:    "activated_at",
	model.StateCompleted: "completed_at",
	model.StateFailed:    "failed_at",
}

// TaskRepository is the store access layer for tasks. Every lookup it exposes
// runs against an indexed column, so scans stay cheap as the table grows.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return errors.WithStack(r.db.WithContext(ctx).Create(task).Error)
}

func (r *TaskRepository) FindByUID(ctx context.Context, uid string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&task).Error; err != nil {
		return nil, errors.Wrapf(err, "find task %s", uid)
	}
	return &task, nil
}

// SetState applies a lifecycle transition as a single conditional update.
// The state timestamp is written through COALESCE, so it is set exactly once
// even when two transitions race on the same row; updated_at always moves.
func (r *TaskRepository) SetState(ctx context.Context, uid string, state model.TaskState, at time.Time) (*model.Task, error) {
	updates := map[string]any{
		"state":      state,
		"updated_at": at,
	}
	if col, ok := stateTimestampColumn[state]; ok {
		updates[col] = gorm.Expr("COALESCE("+col+", ?)", at)
	}

	tx := r.db.WithContext(ctx).Model(&model.Task{}).Where("uid = ?", uid).Updates(updates)
	if tx.Error != nil {
		return nil, errors.Wrapf(tx.Error, "set task %s state %s", uid, state)
	}
	if tx.RowsAffected == 0 {
		return nil, errors.WithStack(gorm.ErrRecordNotFound)
	}
	return r.FindByUID(ctx, uid)
}

func (r *TaskRepository) ListByState(ctx context.Context, state model.TaskState) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("state = ?", state).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, errors.WithStack(err)
}

func (r *TaskRepository) ListByType(ctx context.Context, typ model.TaskType) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("type = ?", typ).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, errors.WithStack(err)
}

func (r *TaskRepository) ListByTypeAndState(ctx context.Context, typ model.TaskType, state model.TaskState) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("type = ? AND state = ?", typ, state).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, errors.WithStack(err)
}

// ListDueBefore returns tasks of the given type and state whose due_at is
// strictly before the cutoff. Used for overdue detection.
func (r *TaskRepository) ListDueBefore(ctx context.Context, typ model.TaskType, state model.TaskState, cutoff time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("type = ? AND state = ? AND due_at < ?", typ, state, cutoff).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, errors.WithStack(err)
}

// ListActivatedBetween returns tasks of the given type and state activated in
// [start, end). Used for the daily activation window.
func (r *TaskRepository) ListActivatedBetween(ctx context.Context, typ model.TaskType, state model.TaskState, start, end time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("type = ? AND state = ? AND activated_at >= ? AND activated_at < ?", typ, state, start, end).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, errors.WithStack(err)
}

// ListCompletedBetween returns tasks of the given type completed in [start, end).
func (r *TaskRepository) ListCompletedBetween(ctx context.Context, typ model.TaskType, start, end time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("type = ? AND state = ? AND completed_at >= ? AND completed_at < ?", typ, model.StateCompleted, start, end).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, errors.WithStack(err)
}

// HasSuccessor reports whether any task was reactivated from the given uid.
func (r *TaskRepository) HasSuccessor(ctx context.Context, uid string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("original_uid = ?", uid).
		Count(&count).Error
	return count > 0, errors.WithStack(err)
}

// Search matches tasks whose text contains the keyword.
func (r *TaskRepository) Search(ctx context.Context, keyword string) ([]model.Task, error) {
	var tasks []model.Task
	err := r.db.WithContext(ctx).
		Where("text LIKE ?", "%"+keyword+"%").
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, errors.WithStack(err)
}
