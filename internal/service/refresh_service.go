package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/pkg/jobs"
)

type statsRefresher interface {
	ScheduleChanged(ctx context.Context, projectID string) error
}

// RefreshService pushes stat refreshes through a background queue so
// commit and retract latency never includes cache or Postgres
// bookkeeping. It satisfies the store's change-notifier hook.
type RefreshService struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// RefreshConfig tunes the worker pool.
type RefreshConfig struct {
	Workers    int
	MaxRetries int
	Logger     *zap.Logger
}

// NewRefreshService wires a queue whose handler re-aggregates the
// project touched by each schedule change.
func NewRefreshService(projects statsRefresher, cfg RefreshConfig) *RefreshService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	handler := func(ctx context.Context, job jobs.Job) error {
		projectID, ok := job.Payload.(string)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		return projects.ScheduleChanged(ctx, projectID)
	}

	queue := jobs.NewQueue("project-stats-refresh", handler, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return &RefreshService{queue: queue, logger: logger}
}

// Start launches the workers.
func (s *RefreshService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *RefreshService) Stop() {
	s.queue.Stop()
}

// ScheduleChanged enqueues a refresh for the project. Failures are
// logged, never propagated: the schedule mutation already committed.
func (s *RefreshService) ScheduleChanged(projectID string) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "stats-refresh",
		Payload: projectID,
	})
	if err != nil {
		s.logger.Warn("stats refresh enqueue failed", zap.String("project_id", projectID), zap.Error(err))
	}
}
