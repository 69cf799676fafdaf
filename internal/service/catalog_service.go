package service

import (
	"fmt"
	"sort"
	"time"

	appErrors "github.com/noah-isme/timetable-api/pkg/errors"

	"github.com/noah-isme/timetable-api/internal/models"
)

// Catalog is the sealed reference data set for one term: subjects,
// instructors, rooms and the time-slot grid. It is immutable after
// construction; reseeding a term means building a new Catalog so that
// in-flight readers never observe a changed reference set.
type Catalog struct {
	termLabel string

	subjects    map[string]models.Subject
	instructors map[string]models.Instructor
	rooms       map[string]models.Room
	slots       map[string]models.TimeSlot
	sections    map[string]models.Section

	subjectOrder []string
	sectionOrder []string
	slotOrder    []string

	instructorSlots map[string]map[string]struct{}
	roomSlots       map[string]map[string]struct{}
	lastSlotOfDay   map[int]string
}

// NewCatalog seals a snapshot into an immutable catalog. Sections are
// enumerated from each subject's section count. Availability masks
// referencing unknown slots are rejected so stale seeds fail loudly.
func NewCatalog(snapshot models.CatalogSnapshot) (*Catalog, error) {
	c := &Catalog{
		termLabel:       snapshot.TermLabel,
		subjects:        make(map[string]models.Subject, len(snapshot.Subjects)),
		instructors:     make(map[string]models.Instructor, len(snapshot.Instructors)),
		rooms:           make(map[string]models.Room, len(snapshot.Rooms)),
		slots:           make(map[string]models.TimeSlot, len(snapshot.TimeSlots)),
		sections:        make(map[string]models.Section),
		instructorSlots: make(map[string]map[string]struct{}, len(snapshot.Instructors)),
		roomSlots:       make(map[string]map[string]struct{}, len(snapshot.Rooms)),
		lastSlotOfDay:   make(map[int]string),
	}

	for _, slot := range snapshot.TimeSlots {
		if _, dup := c.slots[slot.ID]; dup {
			return nil, fmt.Errorf("duplicate time slot %s", slot.ID)
		}
		if err := validClock(slot.Start); err != nil {
			return nil, fmt.Errorf("time slot %s: %w", slot.ID, err)
		}
		if err := validClock(slot.End); err != nil {
			return nil, fmt.Errorf("time slot %s: %w", slot.ID, err)
		}
		c.slots[slot.ID] = slot
		c.slotOrder = append(c.slotOrder, slot.ID)
		if last, ok := c.lastSlotOfDay[slot.Day]; !ok || c.slots[last].Start < slot.Start {
			c.lastSlotOfDay[slot.Day] = slot.ID
		}
	}
	sort.Slice(c.slotOrder, func(i, j int) bool {
		a, b := c.slots[c.slotOrder[i]], c.slots[c.slotOrder[j]]
		if a.Day == b.Day {
			return a.Start < b.Start
		}
		return a.Day < b.Day
	})

	for _, subject := range snapshot.Subjects {
		if _, dup := c.subjects[subject.ID]; dup {
			return nil, fmt.Errorf("duplicate subject %s", subject.ID)
		}
		c.subjects[subject.ID] = subject
		c.subjectOrder = append(c.subjectOrder, subject.ID)
		for i := 1; i <= subject.SectionCount; i++ {
			section := models.Section{
				ID:        fmt.Sprintf("%s-%d", subject.ID, i),
				SubjectID: subject.ID,
				Index:     i,
			}
			c.sections[section.ID] = section
			c.sectionOrder = append(c.sectionOrder, section.ID)
		}
	}
	sort.Strings(c.subjectOrder)
	sort.Strings(c.sectionOrder)

	for _, instructor := range snapshot.Instructors {
		mask, err := c.buildMask(instructor.Availability, "instructor", instructor.ID)
		if err != nil {
			return nil, err
		}
		c.instructors[instructor.ID] = instructor
		c.instructorSlots[instructor.ID] = mask
	}
	for _, room := range snapshot.Rooms {
		mask, err := c.buildMask(room.Availability, "room", room.ID)
		if err != nil {
			return nil, err
		}
		c.rooms[room.ID] = room
		c.roomSlots[room.ID] = mask
	}

	return c, nil
}

// Slot ordering and band thresholds compare clock strings lexically,
// which only holds for zero-padded HH:MM.
func validClock(s string) error {
	if len(s) != 5 {
		return fmt.Errorf("malformed clock time %q, want HH:MM", s)
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return fmt.Errorf("malformed clock time %q, want HH:MM", s)
	}
	return nil
}

func (c *Catalog) buildMask(slotIDs []string, kind, ownerID string) (map[string]struct{}, error) {
	mask := make(map[string]struct{}, len(slotIDs))
	for _, slotID := range slotIDs {
		if _, ok := c.slots[slotID]; !ok {
			return nil, fmt.Errorf("%s %s references unknown time slot %s", kind, ownerID, slotID)
		}
		mask[slotID] = struct{}{}
	}
	return mask, nil
}

// TermLabel returns the term this catalog was sealed for.
func (c *Catalog) TermLabel() string {
	return c.termLabel
}

// Subject returns the subject or NotFound.
func (c *Catalog) Subject(id string) (models.Subject, error) {
	subject, ok := c.subjects[id]
	if !ok {
		return models.Subject{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("subject %s not found", id))
	}
	return subject, nil
}

// Instructor returns the instructor or NotFound.
func (c *Catalog) Instructor(id string) (models.Instructor, error) {
	instructor, ok := c.instructors[id]
	if !ok {
		return models.Instructor{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("instructor %s not found", id))
	}
	return instructor, nil
}

// Room returns the room or NotFound.
func (c *Catalog) Room(id string) (models.Room, error) {
	room, ok := c.rooms[id]
	if !ok {
		return models.Room{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("room %s not found", id))
	}
	return room, nil
}

// TimeSlot returns the slot or NotFound.
func (c *Catalog) TimeSlot(id string) (models.TimeSlot, error) {
	slot, ok := c.slots[id]
	if !ok {
		return models.TimeSlot{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("time slot %s not found", id))
	}
	return slot, nil
}

// Section returns the schedulable section or NotFound.
func (c *Catalog) Section(id string) (models.Section, error) {
	section, ok := c.sections[id]
	if !ok {
		return models.Section{}, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("section %s not found", id))
	}
	return section, nil
}

// Subjects lists subjects in stable id order.
func (c *Catalog) Subjects() []models.Subject {
	result := make([]models.Subject, 0, len(c.subjectOrder))
	for _, id := range c.subjectOrder {
		result = append(result, c.subjects[id])
	}
	return result
}

// Instructors lists instructors sorted by id.
func (c *Catalog) Instructors() []models.Instructor {
	ids := make([]string, 0, len(c.instructors))
	for id := range c.instructors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	result := make([]models.Instructor, 0, len(ids))
	for _, id := range ids {
		result = append(result, c.instructors[id])
	}
	return result
}

// Rooms lists rooms sorted by id.
func (c *Catalog) Rooms() []models.Room {
	ids := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	result := make([]models.Room, 0, len(ids))
	for _, id := range ids {
		result = append(result, c.rooms[id])
	}
	return result
}

// TimeSlots lists slots ordered by day then start time.
func (c *Catalog) TimeSlots() []models.TimeSlot {
	result := make([]models.TimeSlot, 0, len(c.slotOrder))
	for _, id := range c.slotOrder {
		result = append(result, c.slots[id])
	}
	return result
}

// Sections lists all schedulable sections in stable order.
func (c *Catalog) Sections() []models.Section {
	result := make([]models.Section, 0, len(c.sectionOrder))
	for _, id := range c.sectionOrder {
		result = append(result, c.sections[id])
	}
	return result
}

// RequiredSections is the denominator for project progress.
func (c *Catalog) RequiredSections() int {
	return len(c.sections)
}

// InstructorAvailable reports whether every requested slot is inside
// the instructor's availability mask.
func (c *Catalog) InstructorAvailable(instructorID string, slotIDs []string) (bool, string) {
	return coversAll(c.instructorSlots[instructorID], slotIDs)
}

// RoomAvailable reports whether every requested slot is inside the
// room's availability mask.
func (c *Catalog) RoomAvailable(roomID string, slotIDs []string) (bool, string) {
	return coversAll(c.roomSlots[roomID], slotIDs)
}

// IsLastSlotOfDay reports whether the slot is the final band of its day.
func (c *Catalog) IsLastSlotOfDay(slotID string) bool {
	slot, ok := c.slots[slotID]
	if !ok {
		return false
	}
	return c.lastSlotOfDay[slot.Day] == slotID
}

func coversAll(mask map[string]struct{}, slotIDs []string) (bool, string) {
	for _, slotID := range slotIDs {
		if _, ok := mask[slotID]; !ok {
			return false, slotID
		}
	}
	return true, ""
}
