package models

import (
	"time"

	"github.com/lib/pq"
)

// Subject represents a course offering published for the term.
// Immutable once the catalog is sealed.
type Subject struct {
	ID                 string    `db:"id" json:"id"`
	Code               string    `db:"code" json:"code"`
	Name               string    `db:"name" json:"name"`
	WeeklyHours        int       `db:"weekly_hours" json:"weekly_hours"`
	SectionCount       int       `db:"section_count" json:"section_count"`
	ExpectedEnrollment int       `db:"expected_enrollment" json:"expected_enrollment"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}

// Instructor represents a teaching staff member with a weekly
// availability mask expressed as time-slot ids.
type Instructor struct {
	ID            string         `db:"id" json:"id"`
	FullName      string         `db:"full_name" json:"full_name"`
	MaxWeeklyLoad int            `db:"max_weekly_load" json:"max_weekly_load"`
	Availability  pq.StringArray `db:"availability" json:"availability"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// Room represents a bookable teaching space.
type Room struct {
	ID           string         `db:"id" json:"id"`
	Capacity     int            `db:"capacity" json:"capacity"`
	Equipment    pq.StringArray `db:"equipment" json:"equipment"`
	Availability pq.StringArray `db:"availability" json:"availability"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// TimeSlot is one fixed cell of the weekly scheduling grid.
// Slots are non-overlapping and globally enumerable.
type TimeSlot struct {
	ID    string `db:"id" json:"id"`
	Day   int    `db:"day" json:"day"`
	Start string `db:"start_at" json:"start"`
	End   string `db:"end_at" json:"end"`
}

// Section is one schedulable instance of a subject. Sections are
// enumerated from the subject's section count when the catalog loads.
type Section struct {
	ID        string `json:"id"`
	SubjectID string `json:"subject_id"`
	Index     int    `json:"index"`
}

// CatalogSnapshot bundles the reference data loaded for one term.
type CatalogSnapshot struct {
	TermLabel   string
	Subjects    []Subject
	Instructors []Instructor
	Rooms       []Room
	TimeSlots   []TimeSlot
}
