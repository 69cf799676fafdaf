package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/response"
)

// ExportHandler renders timetable downloads.
type ExportHandler struct {
	exports  *service.ExportService
	projects *service.ProjectService
}

// NewExportHandler creates a new handler.
func NewExportHandler(exports *service.ExportService, projects *service.ProjectService) *ExportHandler {
	return &ExportHandler{exports: exports, projects: projects}
}

// Download godoc
// @Summary Export project timetable
// @Description Renders the committed schedule as a CSV or PDF grid
// @Tags Exports
// @Produce octet-stream
// @Param projectId path string true "Project id"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{projectId}/export [get]
func (h *ExportHandler) Download(c *gin.Context) {
	projectID := c.Param("projectId")
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	project, _, err := h.projects.Get(c.Request.Context(), projectID)
	if err != nil {
		response.Error(c, err)
		return
	}

	title := fmt.Sprintf("%s (%s)", project.Title, project.TermLabel)
	payload, contentType, err := h.exports.Generate(projectID, title, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("timetable-%s.%s", projectID, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}
