package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
)

func placement(sectionID, instructorID, roomID string, slotIDs ...string) dto.ProposeAssignmentRequest {
	return dto.ProposeAssignmentRequest{
		SectionID:    sectionID,
		InstructorID: instructorID,
		RoomID:       roomID,
		TimeSlotIDs:  slotIDs,
	}
}

type stubProjectRepo struct {
	projects map[string]models.Project
}

func (s *stubProjectRepo) FindByID(_ context.Context, id string) (*models.Project, error) {
	project, ok := s.projects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &project, nil
}

func (s *stubProjectRepo) Search(_ context.Context, filter models.ProjectFilter) ([]models.Project, *models.Pagination, error) {
	var result []models.Project
	needle := strings.ToLower(filter.Search)
	for _, project := range s.projects {
		if needle != "" && !strings.Contains(strings.ToLower(project.Title), needle) {
			continue
		}
		result = append(result, project)
	}
	return result, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(result)}, nil
}

func (s *stubProjectRepo) TouchUpdatedAt(_ context.Context, id string, ts time.Time) error {
	project, ok := s.projects[id]
	if !ok {
		return sql.ErrNoRows
	}
	project.UpdatedAt = ts
	s.projects[id] = project
	return nil
}

func (s *stubProjectRepo) UpdateStatus(_ context.Context, id string, status models.ProjectStatus, ts time.Time) error {
	project, ok := s.projects[id]
	if !ok {
		return sql.ErrNoRows
	}
	project.Status = status
	project.UpdatedAt = ts
	s.projects[id] = project
	return nil
}

func newProjectHandlerFixture(t *testing.T) (*ProjectHandler, *service.AssignmentService, *stubProjectRepo) {
	t.Helper()
	catalog := testCatalog(t)
	store := service.NewAssignmentService(catalog, nil, nil, nil)
	repo := &stubProjectRepo{projects: map[string]models.Project{
		"p1": {
			ID:        "p1",
			Title:     "Fall Timetable",
			TermLabel: "2026-1",
			Status:    models.ProjectStatusInProgress,
			Members:   4,
			UpdatedAt: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		},
	}}
	svc := service.NewProjectService(catalog, repo, store, nil, time.Minute, nil)
	return NewProjectHandler(svc), store, repo
}

func projectRequest(target, body string) (*httptest.ResponseRecorder, *gin.Context) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	method := http.MethodGet
	if body != "" {
		method = http.MethodPatch
	}
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "projectId", Value: "p1"}}
	return rec, c
}

func TestProjectHandlerGet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, store, _ := newProjectHandlerFixture(t)

	_, _, err := store.Commit(context.Background(), "p1", placement("CS101-1", "I1", "R101", "MON-09"), nil)
	require.NoError(t, err)

	rec, c := projectRequest("/projects/p1", "")
	handler.Get(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data map[string]interface{} `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "Fall Timetable", envelope.Data["title"])
	assert.Equal(t, float64(1), envelope.Data["schedules"])
	assert.Equal(t, false, envelope.Meta["cached"])
}

func TestProjectHandlerGetUnknown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, _ := newProjectHandlerFixture(t)

	rec, c := projectRequest("/projects/p9", "")
	c.Params = gin.Params{{Key: "projectId", Value: "p9"}}
	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectHandlerSearch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, _ := newProjectHandlerFixture(t)

	rec, c := projectRequest("/projects?q=fall", "")
	handler.Search(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data       []map[string]interface{} `json:"data"`
		Pagination map[string]interface{}   `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "p1", envelope.Data[0]["id"])
	assert.Equal(t, float64(1), envelope.Pagination["total_count"])
}

func TestProjectHandlerConflicts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, store, _ := newProjectHandlerFixture(t)
	ctx := context.Background()

	_, _, err := store.Commit(ctx, "p1", placement("CS101-1", "I1", "R101", "MON-09"), nil)
	require.NoError(t, err)
	_, _, err = store.Commit(ctx, "p1", placement("CS101-2", "I1", "R101", "MON-09"), nil)
	require.NoError(t, err)

	rec, c := projectRequest("/projects/p1/conflicts", "")
	handler.Conflicts(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data)
	kinds := make([]string, 0, len(envelope.Data))
	for _, conflict := range envelope.Data {
		kinds = append(kinds, conflict["kind"].(string))
	}
	assert.Contains(t, kinds, string(models.ConflictRoomDoubleBooked))
}

func TestProjectHandlerUpdateStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, repo := newProjectHandlerFixture(t)

	rec, c := projectRequest("/projects/p1/status", `{"status":"COMPLETED"}`)
	handler.UpdateStatus(c)
	// c.Status only reaches the recorder once the writer flushes, which
	// the engine normally does at end of request.
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, models.ProjectStatusCompleted, repo.projects["p1"].Status)

	rec, c = projectRequest("/projects/p1/status", `{}`)
	handler.UpdateStatus(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, c = projectRequest("/projects/p1/status", `{"status":"BOGUS"}`)
	handler.UpdateStatus(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
