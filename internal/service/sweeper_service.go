package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"tasktracker/internal/config"
	"tasktracker/internal/model"
	"tasktracker/internal/repository"
)

// SweeperService drives the read-then-transition sweeps the engine leaves to
// an external timer: failing or reactivating overdue one-time tasks, and
// rolling daily tasks over into a fresh instance each local day.
type SweeperService struct {
	tasks  *TaskService
	repo   *repository.TaskRepository
	policy string
	log    *logrus.Logger
}

func NewSweeperService(tasks *TaskService, repo *repository.TaskRepository, policy string, log *logrus.Logger) *SweeperService {
	if policy == "" {
		policy = config.PolicyFail
	}
	return &SweeperService{tasks: tasks, repo: repo, policy: policy, log: log}
}

// SweepOverdue applies the configured policy to every overdue one-time task.
// Under the reactivate policy the source is failed after its successor is
// created, otherwise it would stay overdue and respawn on the next tick.
// Returns the number of tasks handled.
func (s *SweeperService) SweepOverdue(ctx context.Context) (int, error) {
	overdue, err := s.tasks.ListOverdue(ctx)
	if err != nil {
		return 0, err
	}

	handled := 0
	for _, task := range overdue {
		if s.policy == config.PolicyReactivate && task.DueAt != nil {
			due := nextDue(*task.DueAt, s.tasks.now())
			if _, err := s.tasks.Reactivate(ctx, task.UID, &due); err != nil {
				s.log.WithError(err).WithField("task", task.UID).Warn("reactivate overdue task")
				continue
			}
		}
		if _, err := s.tasks.Fail(ctx, task.UID); err != nil {
			s.log.WithError(err).WithField("task", task.UID).Warn("fail overdue task")
			continue
		}
		handled++
	}
	return handled, nil
}

// RolloverDaily spawns today's instance of each daily task: one per task
// completed during the previous local day, and one per task still active but
// last activated before today. Stale active sources are failed so the live
// end of a lineage chain stays unique. Meant to run once per local day.
func (s *SweeperService) RolloverDaily(ctx context.Context) (int, error) {
	now := s.tasks.now()
	todayStart := startOfDay(now, s.tasks.loc)
	prevStart := todayStart.Add(-24 * time.Hour)

	rolled := 0

	completed, err := s.repo.ListCompletedBetween(ctx, model.TypeDaily, prevStart, todayStart)
	if err != nil {
		return 0, storeErr("list completed daily", err)
	}
	for _, task := range completed {
		// Guard against re-running within the same day: a source that
		// already has a successor was rolled over already.
		taken, err := s.repo.HasSuccessor(ctx, task.UID)
		if err != nil {
			return rolled, storeErr("check successor", err)
		}
		if taken {
			continue
		}
		if _, err := s.tasks.Reactivate(ctx, task.UID, nil); err != nil {
			s.log.WithError(err).WithField("task", task.UID).Warn("roll over completed daily task")
			continue
		}
		rolled++
	}

	active, err := s.tasks.ListActiveByType(ctx, model.TypeDaily)
	if err != nil {
		return rolled, err
	}
	for _, task := range active {
		if inDayWindow(task.ActivatedAt, now, s.tasks.loc) {
			continue
		}
		if _, err := s.tasks.Reactivate(ctx, task.UID, nil); err != nil {
			s.log.WithError(err).WithField("task", task.UID).Warn("roll over stale daily task")
			continue
		}
		if _, err := s.tasks.Fail(ctx, task.UID); err != nil {
			s.log.WithError(err).WithField("task", task.UID).Warn("retire stale daily task")
			continue
		}
		rolled++
	}

	return rolled, nil
}
