package models

import "time"

// ProjectStatus represents lifecycle phases for planning projects.
type ProjectStatus string

const (
	ProjectStatusDraft      ProjectStatus = "DRAFT"
	ProjectStatusInProgress ProjectStatus = "IN_PROGRESS"
	ProjectStatusCompleted  ProjectStatus = "COMPLETED"
)

// Project is one timetable planning effort for a term.
type Project struct {
	ID        string        `db:"id" json:"id"`
	Title     string        `db:"title" json:"title"`
	TermLabel string        `db:"term_label" json:"term_label"`
	Status    ProjectStatus `db:"status" json:"status"`
	Members   int           `db:"members" json:"members"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// ProjectStats carries the derived numbers behind the UI stat cards.
// Every field is recomputed from the assignment set and conflict
// index; none is independently maintained.
type ProjectStats struct {
	Subjects         int       `json:"subjects"`
	Schedules        int       `json:"schedules"`
	RequiredSections int       `json:"required_sections"`
	Conflicts        int       `json:"conflicts"`
	Progress         float64   `json:"progress"`
	Members          int       `json:"members"`
	LastUpdated      time.Time `json:"last_updated"`
}

// ProjectFilter captures supported filters for listing projects.
type ProjectFilter struct {
	Search   string
	Status   *ProjectStatus
	Page     int
	PageSize int
}
