package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

// ProjectHandler serves the aggregated project views.
type ProjectHandler struct {
	service *service.ProjectService
}

// NewProjectHandler creates a new handler.
func NewProjectHandler(svc *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{service: svc}
}

// Get godoc
// @Summary Get project stats
// @Description Returns the project card: reference counts, schedule progress and live conflicts
// @Tags Projects
// @Produce json
// @Param projectId path string true "Project id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{projectId} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	projectID := c.Param("projectId")
	project, cached, err := h.service.Get(c.Request.Context(), projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project, nil, map[string]interface{}{"cached": cached})
}

// Search godoc
// @Summary Search projects
// @Description Case-insensitive substring match over title and term label
// @Tags Projects
// @Produce json
// @Param q query string false "Search text"
// @Param status query string false "Project status"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /projects [get]
func (h *ProjectHandler) Search(c *gin.Context) {
	filter := models.ProjectFilter{Search: c.Query("q")}
	if status := c.Query("status"); status != "" {
		parsed := models.ProjectStatus(status)
		filter.Status = &parsed
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}

	summaries, pagination, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, pagination)
}

// Conflicts godoc
// @Summary List project conflicts
// @Description Returns the live conflict set in stable order
// @Tags Projects
// @Produce json
// @Param projectId path string true "Project id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{projectId}/conflicts [get]
func (h *ProjectHandler) Conflicts(c *gin.Context) {
	projectID := c.Param("projectId")
	conflicts, err := h.service.ListConflicts(c.Request.Context(), projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, conflicts, nil)
}

// UpdateStatus godoc
// @Summary Update project status
// @Description Moves the project through its lifecycle
// @Tags Projects
// @Accept json
// @Produce json
// @Param projectId path string true "Project id"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{projectId}/status [patch]
func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	projectID := c.Param("projectId")
	var payload struct {
		Status models.ProjectStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status required"))
		return
	}

	if err := h.service.UpdateStatus(c.Request.Context(), projectID, payload.Status); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
