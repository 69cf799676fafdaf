package dto

import "github.com/noah-isme/timetable-api/internal/models"

// ProposeAssignmentRequest asks the constraint engine to evaluate a
// section placement. The same payload backs commit, which applies it.
type ProposeAssignmentRequest struct {
	SectionID    string   `json:"sectionId" validate:"required"`
	InstructorID string   `json:"instructorId" validate:"required"`
	RoomID       string   `json:"roomId" validate:"required"`
	TimeSlotIDs  []string `json:"timeSlotIds" validate:"required,min=1,dive,required"`
	Replace      bool     `json:"replace"`
}

// ProposeAssignmentResponse wraps the engine decision.
type ProposeAssignmentResponse struct {
	Decision models.Decision `json:"decision"`
}

// CommitAssignmentResponse returns the stored assignment and the
// conflict index changes its slots produced.
type CommitAssignmentResponse struct {
	Assignment models.Assignment   `json:"assignment"`
	Conflicts  models.ConflictDiff `json:"conflicts"`
}

// RetractAssignmentResponse reports conflicts cleared by a retract.
type RetractAssignmentResponse struct {
	SectionID string              `json:"sectionId"`
	Conflicts models.ConflictDiff `json:"conflicts"`
}
