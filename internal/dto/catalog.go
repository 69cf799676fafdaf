package dto

import "github.com/noah-isme/timetable-api/internal/models"

// CatalogResponse lists the sealed reference data for the term.
type CatalogResponse struct {
	TermLabel   string              `json:"term_label"`
	Subjects    []models.Subject    `json:"subjects,omitempty"`
	Sections    []models.Section    `json:"sections,omitempty"`
	Instructors []models.Instructor `json:"instructors,omitempty"`
	Rooms       []models.Room       `json:"rooms,omitempty"`
	TimeSlots   []models.TimeSlot   `json:"time_slots,omitempty"`
}
