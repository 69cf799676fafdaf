package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type stubCacheRepo struct {
	entries map[string][]byte
	sets    int
	deletes int
}

func newStubCacheRepo() *stubCacheRepo {
	return &stubCacheRepo{entries: make(map[string][]byte)}
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := s.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.entries[key] = raw
	s.sets++
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			s.deletes++
		}
	}
	return nil
}

type fakeProjectRepo struct {
	projects map[string]models.Project
	touched  []string
}

func newFakeProjectRepo(projects ...models.Project) *fakeProjectRepo {
	repo := &fakeProjectRepo{projects: make(map[string]models.Project)}
	for _, project := range projects {
		repo.projects[project.ID] = project
	}
	return repo
}

func (f *fakeProjectRepo) FindByID(_ context.Context, id string) (*models.Project, error) {
	project, ok := f.projects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &project, nil
}

func (f *fakeProjectRepo) Search(_ context.Context, filter models.ProjectFilter) ([]models.Project, *models.Pagination, error) {
	var result []models.Project
	needle := strings.ToLower(filter.Search)
	for _, project := range f.projects {
		if needle != "" &&
			!strings.Contains(strings.ToLower(project.Title), needle) &&
			!strings.Contains(strings.ToLower(project.TermLabel), needle) {
			continue
		}
		if filter.Status != nil && project.Status != *filter.Status {
			continue
		}
		result = append(result, project)
	}
	return result, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(result)}, nil
}

func (f *fakeProjectRepo) TouchUpdatedAt(_ context.Context, id string, ts time.Time) error {
	project, ok := f.projects[id]
	if !ok {
		return sql.ErrNoRows
	}
	project.UpdatedAt = ts
	f.projects[id] = project
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeProjectRepo) UpdateStatus(_ context.Context, id string, status models.ProjectStatus, ts time.Time) error {
	project, ok := f.projects[id]
	if !ok {
		return sql.ErrNoRows
	}
	project.Status = status
	project.UpdatedAt = ts
	f.projects[id] = project
	return nil
}

func testProject(id, title string) models.Project {
	return models.Project{
		ID:        id,
		Title:     title,
		TermLabel: "2026-1",
		Status:    models.ProjectStatusInProgress,
		Members:   4,
		CreatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
	}
}

func newProjectFixture(t *testing.T) (*ProjectService, *AssignmentService, *fakeProjectRepo, *stubCacheRepo) {
	t.Helper()
	catalog := newTestCatalog(t)
	store := NewAssignmentService(catalog, nil, nil, nil)
	repo := newFakeProjectRepo(testProject("p1", "Fall Timetable"), testProject("p2", "Spring Draft"))
	cacheRepo := newStubCacheRepo()
	cacheSvc := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewProjectService(catalog, repo, store, cacheSvc, time.Minute, nil)
	return svc, store, repo, cacheRepo
}

func TestProjectGetComposesStats(t *testing.T) {
	svc, store, _, _ := newProjectFixture(t)

	// 2 of 3 required sections scheduled, one shared room conflict
	// plus the soft subject overlap.
	_, _, err := store.Commit(context.Background(), "p1", proposal("CS101-1", "I1", "R101", "MON-09"), nil)
	require.NoError(t, err)
	_, _, err = store.Commit(context.Background(), "p1", proposal("CS101-2", "I2", "R101", "MON-09"), nil)
	require.NoError(t, err)

	resp, cached, err := svc.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "Fall Timetable", resp.Title)
	assert.Equal(t, 2, resp.Subjects)
	assert.Equal(t, 2, resp.Schedules)
	assert.Equal(t, 2, resp.Conflicts)
	assert.Equal(t, 4, resp.Members)
	assert.InDelta(t, 66.66, resp.Progress, 0.01)
}

func TestProjectGetServesCacheSecondTime(t *testing.T) {
	svc, _, _, cacheRepo := newProjectFixture(t)

	_, cached, err := svc.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 1, cacheRepo.sets)

	_, cached, err = svc.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, cacheRepo.sets)
}

func TestProjectGetUnknownIsNotFound(t *testing.T) {
	svc, _, _, _ := newProjectFixture(t)

	_, _, err := svc.Get(context.Background(), "p9")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProjectProgressTracksCommitsAndRetracts(t *testing.T) {
	svc, store, _, cacheRepo := newProjectFixture(t)
	ctx := context.Background()

	progressOf := func() float64 {
		cacheRepo.entries = make(map[string][]byte)
		resp, _, err := svc.Get(ctx, "p1")
		require.NoError(t, err)
		return resp.Progress
	}

	assert.Equal(t, 0.0, progressOf())

	_, _, err := store.Commit(ctx, "p1", proposal("CS101-1", "I1", "R101", "MON-08"), nil)
	require.NoError(t, err)
	assert.InDelta(t, 33.33, progressOf(), 0.01)

	_, _, err = store.Commit(ctx, "p1", proposal("MA201-1", "I1", "R202", "MON-09"), nil)
	require.NoError(t, err)
	assert.InDelta(t, 66.66, progressOf(), 0.01)

	_, err = store.Retract(ctx, "p1", "MA201-1")
	require.NoError(t, err)
	assert.InDelta(t, 33.33, progressOf(), 0.01)
}

func TestProjectSearchMatchesSubstring(t *testing.T) {
	svc, store, _, _ := newProjectFixture(t)

	_, _, err := store.Commit(context.Background(), "p2", proposal("CS101-1", "I1", "R101", "MON-08"), nil)
	require.NoError(t, err)

	summaries, pagination, err := svc.Search(context.Background(), models.ProjectFilter{Search: "spring"})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "p2", summaries[0].ID)
	assert.Equal(t, 1, summaries[0].Schedules)
	assert.Equal(t, 1, pagination.TotalCount)

	summaries, _, err = svc.Search(context.Background(), models.ProjectFilter{Search: "2026"})
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
}

func TestProjectListConflicts(t *testing.T) {
	svc, store, _, _ := newProjectFixture(t)
	ctx := context.Background()

	conflicts, err := svc.ListConflicts(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	_, _, err = store.Commit(ctx, "p1", proposal("CS101-1", "I1", "R101", "MON-09"), nil)
	require.NoError(t, err)
	_, _, err = store.Commit(ctx, "p1", proposal("MA201-1", "I2", "R101", "MON-09"), nil)
	require.NoError(t, err)

	conflicts, err = svc.ListConflicts(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.ConflictRoomDoubleBooked, conflicts[0].Kind)

	_, err = svc.ListConflicts(ctx, "p9")
	require.Error(t, err)
}

func TestScheduleChangedInvalidatesAndRewarms(t *testing.T) {
	svc, _, repo, cacheRepo := newProjectFixture(t)
	ctx := context.Background()

	_, _, err := svc.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 1, cacheRepo.sets)

	require.NoError(t, svc.ScheduleChanged(ctx, "p1"))
	assert.Equal(t, []string{"p1"}, repo.touched)
	assert.Equal(t, 1, cacheRepo.deletes)
	// Rewarmed after invalidation.
	assert.Equal(t, 2, cacheRepo.sets)
}

func TestUpdateStatusValidatesAndPersists(t *testing.T) {
	svc, _, repo, _ := newProjectFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.UpdateStatus(ctx, "p1", models.ProjectStatusCompleted))
	assert.Equal(t, models.ProjectStatusCompleted, repo.projects["p1"].Status)

	err := svc.UpdateStatus(ctx, "p1", models.ProjectStatus("BOGUS"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	err = svc.UpdateStatus(ctx, "p9", models.ProjectStatusDraft)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
