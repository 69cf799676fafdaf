package dto

import (
	"time"

	"github.com/noah-isme/timetable-api/internal/models"
)

// ProjectResponse backs the project cards and sidebar: reference
// counts plus derived schedule state.
type ProjectResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	TermLabel   string               `json:"term_label"`
	Status      models.ProjectStatus `json:"status"`
	Subjects    int                  `json:"subjects"`
	Schedules   int                  `json:"schedules"`
	Conflicts   int                  `json:"conflicts"`
	Members     int                  `json:"members"`
	Progress    float64              `json:"progress"`
	LastUpdated time.Time            `json:"last_updated"`
}

// ProjectSummary is the lightweight search-result shape.
type ProjectSummary struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	TermLabel string               `json:"term_label"`
	Status    models.ProjectStatus `json:"status"`
	Schedules int                  `json:"schedules"`
	Conflicts int                  `json:"conflicts"`
	Progress  float64              `json:"progress"`
}
