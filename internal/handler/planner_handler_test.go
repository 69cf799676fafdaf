package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
)

func testCatalog(t *testing.T) *service.Catalog {
	t.Helper()
	slots := []string{"MON-08", "MON-09", "FRI-14"}
	catalog, err := service.NewCatalog(models.CatalogSnapshot{
		TermLabel: "2026-1",
		TimeSlots: []models.TimeSlot{
			{ID: "MON-08", Day: 1, Start: "08:00", End: "09:00"},
			{ID: "MON-09", Day: 1, Start: "09:00", End: "10:00"},
			{ID: "FRI-14", Day: 5, Start: "14:00", End: "15:00"},
		},
		Subjects: []models.Subject{
			{ID: "CS101", Code: "CS101", Name: "Intro to Computing", SectionCount: 2, ExpectedEnrollment: 40},
		},
		Instructors: []models.Instructor{
			{ID: "I1", FullName: "Dana Reyes", MaxWeeklyLoad: 10, Availability: pq.StringArray(slots)},
		},
		Rooms: []models.Room{
			{ID: "R101", Capacity: 50, Availability: pq.StringArray(slots)},
			{ID: "RSMALL", Capacity: 20, Availability: pq.StringArray(slots)},
		},
	})
	require.NoError(t, err)
	return catalog
}

func newPlannerFixture(t *testing.T) (*PlannerHandler, *service.AssignmentService) {
	t.Helper()
	catalog := testCatalog(t)
	store := service.NewAssignmentService(catalog, nil, nil, nil)
	engine := service.NewConstraintEngine(catalog, store, nil, nil, service.ConstraintEngineConfig{})
	return NewPlannerHandler(engine, store, nil), store
}

func plannerRequest(method, target, body string) (*httptest.ResponseRecorder, *gin.Context) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "projectId", Value: "p1"}}
	return rec, c
}

type plannerEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestPlannerProposeIsDryRun(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, store := newPlannerFixture(t)

	rec, c := plannerRequest(http.MethodPost, "/projects/p1/assignments/propose",
		`{"sectionId":"CS101-1","instructorId":"I1","roomId":"R101","timeSlotIds":["MON-09"]}`)
	handler.Propose(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope plannerEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	decision := envelope.Data["decision"].(map[string]interface{})
	assert.Equal(t, true, decision["accepted"])

	// Propose never mutates the board.
	assert.Empty(t, store.ListByProject("p1"))
}

func TestPlannerCommitStoresAssignment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, store := newPlannerFixture(t)

	rec, c := plannerRequest(http.MethodPut, "/projects/p1/assignments",
		`{"sectionId":"CS101-1","instructorId":"I1","roomId":"R101","timeSlotIds":["MON-09"]}`)
	handler.Commit(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var envelope plannerEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assignment := envelope.Data["assignment"].(map[string]interface{})
	assert.Equal(t, "CS101-1", assignment["section_id"])
	assert.Len(t, store.ListByProject("p1"), 1)
}

func TestPlannerCommitRejectsCapacity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, store := newPlannerFixture(t)

	rec, c := plannerRequest(http.MethodPut, "/projects/p1/assignments",
		`{"sectionId":"CS101-1","instructorId":"I1","roomId":"RSMALL","timeSlotIds":["MON-09"]}`)
	handler.Commit(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var envelope plannerEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "REJECTED_CAPACITY", envelope.Error.Code)
	assert.Empty(t, store.ListByProject("p1"))
}

func TestPlannerCommitRejectsDoubleAssignment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newPlannerFixture(t)

	payload := `{"sectionId":"CS101-1","instructorId":"I1","roomId":"R101","timeSlotIds":["MON-09"]}`
	rec, c := plannerRequest(http.MethodPut, "/projects/p1/assignments", payload)
	handler.Commit(c)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, c = plannerRequest(http.MethodPut, "/projects/p1/assignments", payload)
	handler.Commit(c)
	assert.Equal(t, http.StatusConflict, rec.Code)

	replace := `{"sectionId":"CS101-1","instructorId":"I1","roomId":"R101","timeSlotIds":["MON-08"],"replace":true}`
	rec, c = plannerRequest(http.MethodPut, "/projects/p1/assignments", replace)
	handler.Commit(c)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestPlannerCommitRejectsInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newPlannerFixture(t)

	rec, c := plannerRequest(http.MethodPut, "/projects/p1/assignments", `{"sectionId":123}`)
	handler.Commit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlannerRetract(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newPlannerFixture(t)

	rec, c := plannerRequest(http.MethodDelete, "/projects/p1/assignments/CS101-1", "")
	c.Params = append(c.Params, gin.Param{Key: "sectionId", Value: "CS101-1"})
	handler.Retract(c)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, c = plannerRequest(http.MethodPut, "/projects/p1/assignments",
		`{"sectionId":"CS101-1","instructorId":"I1","roomId":"R101","timeSlotIds":["MON-09"]}`)
	handler.Commit(c)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, c = plannerRequest(http.MethodDelete, "/projects/p1/assignments/CS101-1", "")
	c.Params = append(c.Params, gin.Param{Key: "sectionId", Value: "CS101-1"})
	handler.Retract(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope plannerEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "CS101-1", envelope.Data["sectionId"])
}

func TestPlannerListReturnsCommitted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newPlannerFixture(t)

	rec, c := plannerRequest(http.MethodPut, "/projects/p1/assignments",
		`{"sectionId":"CS101-2","instructorId":"I1","roomId":"R101","timeSlotIds":["FRI-14"]}`)
	handler.Commit(c)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, c = plannerRequest(http.MethodGet, "/projects/p1/assignments", "")
	handler.List(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "CS101-2", envelope.Data[0]["section_id"])
}
