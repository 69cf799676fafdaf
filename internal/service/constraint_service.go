package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type committedReader interface {
	Assignment(projectID, sectionID string) (models.Assignment, bool)
	InstructorLoad(projectID, instructorID string) int
}

// ConstraintEngineConfig tunes soft-rule thresholds.
type ConstraintEngineConfig struct {
	LoadWarningRatio   float64
	LowAttendanceStart string
	LowAttendanceDay   int
}

// ConstraintEngine validates proposed assignments against hard rules
// and annotates soft-rule violations. It never mutates schedule state;
// committing an accepted proposal is the caller's responsibility.
type ConstraintEngine struct {
	catalog   *Catalog
	board     committedReader
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ConstraintEngineConfig
}

// NewConstraintEngine wires the engine against a sealed catalog and a
// read view of committed assignments.
func NewConstraintEngine(catalog *Catalog, board committedReader, validate *validator.Validate, logger *zap.Logger, cfg ConstraintEngineConfig) *ConstraintEngine {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LoadWarningRatio <= 0 || cfg.LoadWarningRatio > 1 {
		cfg.LoadWarningRatio = 0.9
	}
	if cfg.LowAttendanceStart == "" {
		cfg.LowAttendanceStart = "14:00"
	}
	if cfg.LowAttendanceDay <= 0 {
		cfg.LowAttendanceDay = 5
	}
	return &ConstraintEngine{
		catalog:   catalog,
		board:     board,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Propose evaluates the placement. Unknown ids surface as NotFound
// errors; hard-rule failures come back as a rejected Decision with the
// first failing reason. Accepted decisions may carry warnings.
func (e *ConstraintEngine) Propose(ctx context.Context, projectID string, req dto.ProposeAssignmentRequest) (models.Decision, error) {
	if err := e.validator.Struct(req); err != nil {
		return models.Decision{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	section, err := e.catalog.Section(req.SectionID)
	if err != nil {
		return models.Decision{}, err
	}
	subject, err := e.catalog.Subject(section.SubjectID)
	if err != nil {
		return models.Decision{}, err
	}
	instructor, err := e.catalog.Instructor(req.InstructorID)
	if err != nil {
		return models.Decision{}, err
	}
	room, err := e.catalog.Room(req.RoomID)
	if err != nil {
		return models.Decision{}, err
	}
	slotIDs := uniqueSlotIDs(req.TimeSlotIDs)
	for _, slotID := range slotIDs {
		if _, err := e.catalog.TimeSlot(slotID); err != nil {
			return models.Decision{}, err
		}
	}

	// Hard rules, in rejection-priority order.
	if ok, missing := e.catalog.InstructorAvailable(instructor.ID, slotIDs); !ok {
		return rejected(models.ReasonAvailability, fmt.Sprintf("instructor %s unavailable at %s", instructor.ID, missing)), nil
	}
	if ok, missing := e.catalog.RoomAvailable(room.ID, slotIDs); !ok {
		return rejected(models.ReasonAvailability, fmt.Sprintf("room %s unavailable at %s", room.ID, missing)), nil
	}
	if subject.ExpectedEnrollment > 0 && room.Capacity < subject.ExpectedEnrollment {
		return rejected(models.ReasonCapacity, fmt.Sprintf("room %s holds %d, subject %s expects %d", room.ID, room.Capacity, subject.ID, subject.ExpectedEnrollment)), nil
	}
	if _, assigned := e.board.Assignment(projectID, req.SectionID); assigned && !req.Replace {
		return rejected(models.ReasonDoubleAssignment, fmt.Sprintf("section %s already assigned", req.SectionID)), nil
	}

	decision := models.Decision{Accepted: true}
	decision.Warnings = e.softWarnings(projectID, instructor, req.SectionID, slotIDs)
	return decision, nil
}

func (e *ConstraintEngine) softWarnings(projectID string, instructor models.Instructor, sectionID string, slotIDs []string) []string {
	var warnings []string

	if instructor.MaxWeeklyLoad > 0 {
		current := e.board.InstructorLoad(projectID, instructor.ID)
		if existing, ok := e.board.Assignment(projectID, sectionID); ok && existing.InstructorID == instructor.ID {
			current -= len(existing.TimeSlotIDs)
		}
		projected := current + len(slotIDs)
		threshold := e.cfg.LoadWarningRatio * float64(instructor.MaxWeeklyLoad)
		if float64(projected) >= threshold {
			warnings = append(warnings, fmt.Sprintf("instructor %s at %d of %d weekly slots", instructor.ID, projected, instructor.MaxWeeklyLoad))
		}
	}

	for _, slotID := range slotIDs {
		slot, err := e.catalog.TimeSlot(slotID)
		if err != nil {
			continue
		}
		if e.catalog.IsLastSlotOfDay(slotID) || (slot.Day == e.cfg.LowAttendanceDay && slot.Start >= e.cfg.LowAttendanceStart) {
			warnings = append(warnings, fmt.Sprintf("slot %s is a low-attendance band", slotID))
		}
	}
	return warnings
}

func rejected(reason models.RejectionReason, detail string) models.Decision {
	return models.Decision{Accepted: false, Reason: reason, Detail: detail}
}

// RejectionError maps a rejected decision onto the error taxonomy for
// commit paths, which must fail with an explicit reason and no
// mutation.
func RejectionError(decision models.Decision) error {
	switch decision.Reason {
	case models.ReasonCapacity:
		return appErrors.Clone(appErrors.ErrRejectedCapacity, decision.Detail)
	case models.ReasonDoubleAssignment:
		return appErrors.Clone(appErrors.ErrDoubleAssignment, decision.Detail)
	default:
		return appErrors.Clone(appErrors.ErrRejectedAvailability, decision.Detail)
	}
}

func uniqueSlotIDs(slotIDs []string) []string {
	seen := make(map[string]struct{}, len(slotIDs))
	result := make([]string, 0, len(slotIDs))
	for _, slotID := range slotIDs {
		if _, dup := seen[slotID]; dup {
			continue
		}
		seen[slotID] = struct{}{}
		result = append(result, slotID)
	}
	return result
}
