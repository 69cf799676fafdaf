package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

// PlannerHandler exposes the propose/commit/retract cycle. Propose is
// a dry run against the constraint engine; commit applies the same
// payload through the store.
type PlannerHandler struct {
	engine  *service.ConstraintEngine
	store   *service.AssignmentService
	metrics *service.MetricsService
}

// NewPlannerHandler creates a new handler.
func NewPlannerHandler(engine *service.ConstraintEngine, store *service.AssignmentService, metrics *service.MetricsService) *PlannerHandler {
	return &PlannerHandler{engine: engine, store: store, metrics: metrics}
}

// Propose godoc
// @Summary Evaluate a section placement
// @Description Runs hard and soft constraint checks without mutating the schedule
// @Tags Planner
// @Accept json
// @Produce json
// @Param projectId path string true "Project id"
// @Param payload body dto.ProposeAssignmentRequest true "Placement payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{projectId}/assignments/propose [post]
func (h *PlannerHandler) Propose(c *gin.Context) {
	projectID := c.Param("projectId")
	var req dto.ProposeAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	decision, err := h.engine.Propose(c.Request.Context(), projectID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.ProposeAssignmentResponse{Decision: decision}, nil)
}

// Commit godoc
// @Summary Commit a section placement
// @Description Evaluates and stores the assignment, returning the conflict diff
// @Tags Planner
// @Accept json
// @Produce json
// @Param projectId path string true "Project id"
// @Param payload body dto.ProposeAssignmentRequest true "Placement payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /projects/{projectId}/assignments [put]
func (h *PlannerHandler) Commit(c *gin.Context) {
	projectID := c.Param("projectId")
	var req dto.ProposeAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	decision, err := h.engine.Propose(c.Request.Context(), projectID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !decision.Accepted {
		response.Error(c, service.RejectionError(decision))
		return
	}

	start := time.Now()
	assignment, diff, err := h.store.Commit(c.Request.Context(), projectID, req, decision.Warnings)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveMutation("commit", time.Since(start))
		_, active := h.store.Counts(projectID)
		h.metrics.RecordConflicts(projectID, active, len(diff.Added))
	}

	response.JSON(c, http.StatusCreated, dto.CommitAssignmentResponse{Assignment: *assignment, Conflicts: diff}, nil)
}

// Retract godoc
// @Summary Retract a section's assignment
// @Description Removes the active assignment and reports cleared conflicts
// @Tags Planner
// @Produce json
// @Param projectId path string true "Project id"
// @Param sectionId path string true "Section id"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /projects/{projectId}/assignments/{sectionId} [delete]
func (h *PlannerHandler) Retract(c *gin.Context) {
	projectID := c.Param("projectId")
	sectionID := c.Param("sectionId")

	start := time.Now()
	diff, err := h.store.Retract(c.Request.Context(), projectID, sectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveMutation("retract", time.Since(start))
		_, active := h.store.Counts(projectID)
		h.metrics.RecordConflicts(projectID, active, 0)
	}

	response.JSON(c, http.StatusOK, dto.RetractAssignmentResponse{SectionID: sectionID, Conflicts: diff}, nil)
}

// List godoc
// @Summary List committed assignments
// @Description Returns the project's assignments ordered by section
// @Tags Planner
// @Produce json
// @Param projectId path string true "Project id"
// @Success 200 {object} response.Envelope
// @Router /projects/{projectId}/assignments [get]
func (h *PlannerHandler) List(c *gin.Context) {
	projectID := c.Param("projectId")
	assignments := h.store.ListByProject(projectID)
	response.JSON(c, http.StatusOK, assignments, nil)
}
