package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/service"
	"github.com/noah-isme/timetable-api/pkg/response"
)

// CatalogHandler serves the sealed reference data.
type CatalogHandler struct {
	catalog *service.Catalog
}

// NewCatalogHandler creates a new handler.
func NewCatalogHandler(catalog *service.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Get godoc
// @Summary Get term catalog
// @Description Returns subjects, sections, instructors, rooms and the time-slot grid
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	response.JSON(c, http.StatusOK, dto.CatalogResponse{
		TermLabel:   h.catalog.TermLabel(),
		Subjects:    h.catalog.Subjects(),
		Sections:    h.catalog.Sections(),
		Instructors: h.catalog.Instructors(),
		Rooms:       h.catalog.Rooms(),
		TimeSlots:   h.catalog.TimeSlots(),
	}, nil)
}
