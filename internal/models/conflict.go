package models

import (
	"fmt"
	"strings"
)

// ConflictKind classifies a derived scheduling collision.
type ConflictKind string

const (
	ConflictRoomDoubleBooked       ConflictKind = "ROOM_DOUBLE_BOOKED"
	ConflictInstructorDoubleBooked ConflictKind = "INSTRUCTOR_DOUBLE_BOOKED"
	ConflictSubjectSelfOverlap     ConflictKind = "SUBJECT_SELF_OVERLAP"
)

// ConflictSeverity marks whether the collision blocks publication or
// is advisory only. Self-overlap is advisory by default.
type ConflictSeverity string

const (
	SeverityHard ConflictSeverity = "HARD"
	SeveritySoft ConflictSeverity = "SOFT"
)

// Conflict is a derived fact, recomputed from the committed assignment
// set; it is never persisted as ground truth.
type Conflict struct {
	Kind          ConflictKind     `json:"kind"`
	Severity      ConflictSeverity `json:"severity"`
	TimeSlotID    string           `json:"time_slot_id"`
	ResourceID    string           `json:"resource_id"`
	AssignmentIDs []string         `json:"assignment_ids"`
}

// Key identifies a conflict within the index; two conflicts with the
// same key describe the same collision.
func (c Conflict) Key() string {
	return fmt.Sprintf("%s|%s|%s|%s", c.TimeSlotID, c.Kind, c.ResourceID, strings.Join(c.AssignmentIDs, ","))
}

// ConflictDiff reports index changes for the slots touched by one
// commit or retract.
type ConflictDiff struct {
	Added   []Conflict `json:"added"`
	Removed []Conflict `json:"removed"`
}

// Empty reports whether the diff carries no changes.
func (d ConflictDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}
