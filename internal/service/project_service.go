package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type projectRepository interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
	Search(ctx context.Context, filter models.ProjectFilter) ([]models.Project, *models.Pagination, error)
	TouchUpdatedAt(ctx context.Context, id string, ts time.Time) error
	UpdateStatus(ctx context.Context, id string, status models.ProjectStatus, ts time.Time) error
}

type scheduleCounter interface {
	Counts(projectID string) (scheduled, conflicts int)
	Conflicts(projectID string) []models.Conflict
}

// ProjectService aggregates catalog, assignment and conflict state
// into the numbers the project views consume. All derived fields are
// recomputed from live state; a cached payload is only ever a stale
// copy of a consistent snapshot, never an independently drifting one.
type ProjectService struct {
	catalog  *Catalog
	repo     projectRepository
	schedule scheduleCounter
	cache    *CacheService
	logger   *zap.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// NewProjectService constructs the aggregator.
func NewProjectService(catalog *Catalog, repo projectRepository, schedule scheduleCounter, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ProjectService{
		catalog:  catalog,
		repo:     repo,
		schedule: schedule,
		cache:    cache,
		logger:   logger,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

func projectCacheKey(projectID string) string {
	return fmt.Sprintf("project:stats:%s", projectID)
}

// Get returns the full project view. The cached payload is served when
// fresh; otherwise stats are recomputed from the live board.
func (s *ProjectService) Get(ctx context.Context, projectID string) (*dto.ProjectResponse, bool, error) {
	if s.cache != nil {
		var cached dto.ProjectResponse
		hit, err := s.cache.Get(ctx, projectCacheKey(projectID), &cached)
		if err == nil && hit {
			return &cached, true, nil
		}
	}

	resp, err := s.compose(ctx, projectID)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, projectCacheKey(projectID), resp, s.cacheTTL); err != nil {
			s.logger.Warn("project stats cache write failed", zap.String("project_id", projectID), zap.Error(err))
		}
	}
	return resp, false, nil
}

// Search matches projects by case-insensitive substring over title and
// term label and decorates each hit with live schedule numbers.
func (s *ProjectService) Search(ctx context.Context, filter models.ProjectFilter) ([]dto.ProjectSummary, *models.Pagination, error) {
	projects, pagination, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search projects")
	}

	summaries := make([]dto.ProjectSummary, 0, len(projects))
	for _, project := range projects {
		scheduled, conflicts := s.schedule.Counts(project.ID)
		summaries = append(summaries, dto.ProjectSummary{
			ID:        project.ID,
			Title:     project.Title,
			TermLabel: project.TermLabel,
			Status:    project.Status,
			Schedules: scheduled,
			Conflicts: conflicts,
			Progress:  s.progress(scheduled),
		})
	}
	return summaries, pagination, nil
}

// ListConflicts returns the project's live conflict set in stable
// order. The project must exist; an empty schedule yields an empty
// list, not an error.
func (s *ProjectService) ListConflicts(ctx context.Context, projectID string) ([]models.Conflict, error) {
	if _, err := s.findProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.schedule.Conflicts(projectID), nil
}

// ScheduleChanged invalidates the cached stats and bumps the project's
// update timestamp. Wired into the jobs queue so commits never wait on
// Redis or Postgres bookkeeping.
func (s *ProjectService) ScheduleChanged(ctx context.Context, projectID string) error {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, projectCacheKey(projectID)); err != nil {
			s.logger.Warn("project stats invalidation failed", zap.String("project_id", projectID), zap.Error(err))
		}
	}
	if err := s.repo.TouchUpdatedAt(ctx, projectID, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to touch project")
	}

	// Rewarm so the next read is a hit.
	if resp, err := s.compose(ctx, projectID); err == nil && s.cache != nil {
		if err := s.cache.Set(ctx, projectCacheKey(projectID), resp, s.cacheTTL); err != nil {
			s.logger.Warn("project stats rewarm failed", zap.String("project_id", projectID), zap.Error(err))
		}
	}
	return nil
}

// UpdateStatus moves the project through its lifecycle.
func (s *ProjectService) UpdateStatus(ctx context.Context, projectID string, status models.ProjectStatus) error {
	switch status {
	case models.ProjectStatusDraft, models.ProjectStatusInProgress, models.ProjectStatusCompleted:
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown project status %q", status))
	}
	if err := s.repo.UpdateStatus(ctx, projectID, status, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("project %s not found", projectID))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update project status")
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, projectCacheKey(projectID)); err != nil {
			s.logger.Warn("project stats invalidation failed", zap.String("project_id", projectID), zap.Error(err))
		}
	}
	return nil
}

func (s *ProjectService) compose(ctx context.Context, projectID string) (*dto.ProjectResponse, error) {
	project, err := s.findProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	scheduled, conflicts := s.schedule.Counts(projectID)
	return &dto.ProjectResponse{
		ID:          project.ID,
		Title:       project.Title,
		TermLabel:   project.TermLabel,
		Status:      project.Status,
		Subjects:    len(s.catalog.Subjects()),
		Schedules:   scheduled,
		Conflicts:   conflicts,
		Members:     project.Members,
		Progress:    s.progress(scheduled),
		LastUpdated: project.UpdatedAt,
	}, nil
}

func (s *ProjectService) findProject(ctx context.Context, projectID string) (*models.Project, error) {
	project, err := s.repo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("project %s not found", projectID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	return project, nil
}

// progress is the percentage of required sections that hold an active
// assignment, rounded down to two decimals.
func (s *ProjectService) progress(scheduled int) float64 {
	required := s.catalog.RequiredSections()
	if required == 0 {
		return 0
	}
	pct := float64(scheduled) / float64(required) * 100
	if pct > 100 {
		pct = 100
	}
	return float64(int(pct*100)) / 100
}
