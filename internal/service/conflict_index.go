package service

import (
	"sort"

	"github.com/noah-isme/timetable-api/internal/models"
)

// slotOccupant is the per-slot view of one committed assignment.
type slotOccupant struct {
	assignmentID string
	instructorID string
	roomID       string
	subjectID    string
}

// conflictIndex maintains per-slot occupancy partitioned by room,
// instructor and subject. Updates are scoped to the slots touched by
// one assignment change, so cost tracks slots touched rather than
// total schedule size. The conflict set is always a pure function of
// the occupants currently registered.
type conflictIndex struct {
	occupants map[string]map[string]slotOccupant
	conflicts map[string]models.Conflict
	bySlot    map[string]map[string]struct{}
}

func newConflictIndex() *conflictIndex {
	return &conflictIndex{
		occupants: make(map[string]map[string]slotOccupant),
		conflicts: make(map[string]models.Conflict),
		bySlot:    make(map[string]map[string]struct{}),
	}
}

// apply swaps old for next (either may be nil) and returns the diff of
// conflicts added and removed across the touched slots. Callers must
// hold the owning board's write lock.
func (ix *conflictIndex) apply(old, next *models.Assignment) models.ConflictDiff {
	touched := make(map[string]struct{})
	if old != nil {
		for _, slotID := range old.TimeSlotIDs {
			touched[slotID] = struct{}{}
			if slot, ok := ix.occupants[slotID]; ok {
				delete(slot, old.ID)
				if len(slot) == 0 {
					delete(ix.occupants, slotID)
				}
			}
		}
	}
	if next != nil {
		occupant := slotOccupant{
			assignmentID: next.ID,
			instructorID: next.InstructorID,
			roomID:       next.RoomID,
			subjectID:    next.SubjectID,
		}
		for _, slotID := range next.TimeSlotIDs {
			touched[slotID] = struct{}{}
			if ix.occupants[slotID] == nil {
				ix.occupants[slotID] = make(map[string]slotOccupant)
			}
			ix.occupants[slotID][next.ID] = occupant
		}
	}

	slotIDs := make([]string, 0, len(touched))
	for slotID := range touched {
		slotIDs = append(slotIDs, slotID)
	}
	sort.Strings(slotIDs)

	var diff models.ConflictDiff
	for _, slotID := range slotIDs {
		added, removed := ix.rebuildSlot(slotID)
		diff.Added = append(diff.Added, added...)
		diff.Removed = append(diff.Removed, removed...)
	}
	sortConflicts(diff.Added)
	sortConflicts(diff.Removed)
	return diff
}

// rebuildSlot recomputes the conflict set for one slot from its
// occupants and reconciles it against the stored entries.
func (ix *conflictIndex) rebuildSlot(slotID string) (added, removed []models.Conflict) {
	fresh := make(map[string]models.Conflict)
	for _, conflict := range ix.computeSlot(slotID) {
		fresh[conflict.Key()] = conflict
	}

	for key := range ix.bySlot[slotID] {
		if _, still := fresh[key]; !still {
			removed = append(removed, ix.conflicts[key])
			delete(ix.conflicts, key)
			delete(ix.bySlot[slotID], key)
		}
	}
	for key, conflict := range fresh {
		if _, known := ix.conflicts[key]; known {
			continue
		}
		ix.conflicts[key] = conflict
		if ix.bySlot[slotID] == nil {
			ix.bySlot[slotID] = make(map[string]struct{})
		}
		ix.bySlot[slotID][key] = struct{}{}
		added = append(added, conflict)
	}
	if len(ix.bySlot[slotID]) == 0 {
		delete(ix.bySlot, slotID)
	}
	return added, removed
}

func (ix *conflictIndex) computeSlot(slotID string) []models.Conflict {
	occupants := ix.occupants[slotID]
	if len(occupants) < 2 {
		return nil
	}

	byRoom := make(map[string][]string)
	byInstructor := make(map[string][]string)
	bySubject := make(map[string][]string)
	for _, occupant := range occupants {
		byRoom[occupant.roomID] = append(byRoom[occupant.roomID], occupant.assignmentID)
		byInstructor[occupant.instructorID] = append(byInstructor[occupant.instructorID], occupant.assignmentID)
		bySubject[occupant.subjectID] = append(bySubject[occupant.subjectID], occupant.assignmentID)
	}

	var conflicts []models.Conflict
	conflicts = append(conflicts, groupConflicts(byRoom, models.ConflictRoomDoubleBooked, models.SeverityHard, slotID)...)
	conflicts = append(conflicts, groupConflicts(byInstructor, models.ConflictInstructorDoubleBooked, models.SeverityHard, slotID)...)
	conflicts = append(conflicts, groupConflicts(bySubject, models.ConflictSubjectSelfOverlap, models.SeveritySoft, slotID)...)
	return conflicts
}

func groupConflicts(groups map[string][]string, kind models.ConflictKind, severity models.ConflictSeverity, slotID string) []models.Conflict {
	var conflicts []models.Conflict
	for resourceID, assignmentIDs := range groups {
		if len(assignmentIDs) < 2 {
			continue
		}
		sort.Strings(assignmentIDs)
		conflicts = append(conflicts, models.Conflict{
			Kind:          kind,
			Severity:      severity,
			TimeSlotID:    slotID,
			ResourceID:    resourceID,
			AssignmentIDs: assignmentIDs,
		})
	}
	return conflicts
}

// list returns the full conflict set in deterministic order.
func (ix *conflictIndex) list() []models.Conflict {
	result := make([]models.Conflict, 0, len(ix.conflicts))
	for _, conflict := range ix.conflicts {
		result = append(result, conflict)
	}
	sortConflicts(result)
	return result
}

func (ix *conflictIndex) size() int {
	return len(ix.conflicts)
}

// sortConflicts orders by (timeSlotId, kind, competing ids) so output
// is stable and diff-friendly.
func sortConflicts(conflicts []models.Conflict) {
	sort.Slice(conflicts, func(i, j int) bool {
		a, b := conflicts[i], conflicts[j]
		if a.TimeSlotID != b.TimeSlotID {
			return a.TimeSlotID < b.TimeSlotID
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return joinIDs(a.AssignmentIDs) < joinIDs(b.AssignmentIDs)
	})
}

func joinIDs(ids []string) string {
	result := ""
	for i, id := range ids {
		if i > 0 {
			result += ","
		}
		result += id
	}
	return result
}
