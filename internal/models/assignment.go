package models

import (
	"time"

	"github.com/lib/pq"
)

// Assignment binds a section to an instructor, a room and one or more
// time slots within a project. At most one active assignment exists
// per section in a project; replacing swaps atomically.
type Assignment struct {
	ID           string         `db:"id" json:"id"`
	ProjectID    string         `db:"project_id" json:"project_id"`
	SectionID    string         `db:"section_id" json:"section_id"`
	SubjectID    string         `db:"subject_id" json:"subject_id"`
	InstructorID string         `db:"instructor_id" json:"instructor_id"`
	RoomID       string         `db:"room_id" json:"room_id"`
	TimeSlotIDs  pq.StringArray `db:"time_slot_ids" json:"time_slot_ids"`
	Warnings     pq.StringArray `db:"warnings" json:"warnings,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// RejectionReason identifies the hard rule that blocked a proposal.
type RejectionReason string

const (
	ReasonAvailability     RejectionReason = "AVAILABILITY"
	ReasonCapacity         RejectionReason = "CAPACITY"
	ReasonDoubleAssignment RejectionReason = "DOUBLE_ASSIGNMENT"
)

// Decision is the outcome of constraint evaluation for a proposal.
// A rejected decision carries the first hard rule that failed; an
// accepted one may still carry soft-rule warnings.
type Decision struct {
	Accepted bool            `json:"accepted"`
	Reason   RejectionReason `json:"reason,omitempty"`
	Detail   string          `json:"detail,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}
