package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type assignmentRepository interface {
	Upsert(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, projectID, sectionID string) error
	ListAll(ctx context.Context) ([]models.Assignment, error)
	ListByProject(ctx context.Context, projectID string) ([]models.Assignment, error)
}

type changeNotifier interface {
	ScheduleChanged(projectID string)
}

// projectBoard holds one project's committed assignments and its
// conflict index. The write lock is the project's single serialization
// point: replace swaps are invisible to readers until fully applied.
type projectBoard struct {
	mu          sync.RWMutex
	assignments map[string]models.Assignment
	index       *conflictIndex
}

func newProjectBoard() *projectBoard {
	return &projectBoard{
		assignments: make(map[string]models.Assignment),
		index:       newConflictIndex(),
	}
}

// AssignmentService is the assignment store: the only component that
// mutates schedule state. Commits and retracts for one project are
// serialized; cross-project operations proceed in parallel.
type AssignmentService struct {
	catalog  *Catalog
	repo     assignmentRepository
	notifier changeNotifier
	logger   *zap.Logger

	mu     sync.RWMutex
	boards map[string]*projectBoard
}

// NewAssignmentService builds the store around a sealed catalog and a
// write-through repository.
func NewAssignmentService(catalog *Catalog, repo assignmentRepository, notifier changeNotifier, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		catalog:  catalog,
		repo:     repo,
		notifier: notifier,
		boards:   make(map[string]*projectBoard),
		logger:   logger,
	}
}

// SetNotifier wires the change notifier after construction. The
// refresh queue depends on the aggregator, which reads this store, so
// the hook is attached last during startup.
func (s *AssignmentService) SetNotifier(notifier changeNotifier) {
	s.notifier = notifier
}

// Restore loads persisted assignments into the in-memory boards.
// Intended for startup, before the HTTP surface accepts traffic.
func (s *AssignmentService) Restore(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	stored, err := s.repo.ListAll(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore assignments")
	}
	for _, assignment := range stored {
		board := s.board(assignment.ProjectID)
		board.mu.Lock()
		board.index.apply(nil, &assignment)
		board.assignments[assignment.SectionID] = assignment
		board.mu.Unlock()
	}
	s.logger.Sugar().Infow("assignment boards restored", "assignments", len(stored))
	return nil
}

// Commit stores the assignment for its section, replacing any active
// one when replace is set. The swap is atomic from a reader's
// perspective and the conflict index update covers only the slots the
// old and new assignments touch. The constraint engine must have
// accepted the payload first; Commit re-checks only the invariants it
// owns.
func (s *AssignmentService) Commit(ctx context.Context, projectID string, req dto.ProposeAssignmentRequest, warnings []string) (*models.Assignment, models.ConflictDiff, error) {
	section, err := s.catalog.Section(req.SectionID)
	if err != nil {
		return nil, models.ConflictDiff{}, err
	}

	board := s.board(projectID)
	board.mu.Lock()
	defer board.mu.Unlock()

	var old *models.Assignment
	if existing, ok := board.assignments[req.SectionID]; ok {
		if !req.Replace {
			return nil, models.ConflictDiff{}, appErrors.Clone(appErrors.ErrDoubleAssignment, "section "+req.SectionID+" already assigned")
		}
		old = &existing
	}

	now := time.Now().UTC()
	next := models.Assignment{
		ID:           uuid.NewString(),
		ProjectID:    projectID,
		SectionID:    req.SectionID,
		SubjectID:    section.SubjectID,
		InstructorID: req.InstructorID,
		RoomID:       req.RoomID,
		TimeSlotIDs:  sortedSlotIDs(req.TimeSlotIDs),
		Warnings:     warnings,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if old != nil {
		next.CreatedAt = old.CreatedAt
	}

	// Persist before touching the board so a storage failure leaves
	// readers on the previous fully-committed state.
	if s.repo != nil {
		if err := s.repo.Upsert(ctx, &next); err != nil {
			return nil, models.ConflictDiff{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist assignment")
		}
	}

	diff := board.index.apply(old, &next)
	board.assignments[req.SectionID] = next

	s.notifyChanged(projectID)
	return &next, diff, nil
}

// Retract removes the active assignment for the section. Fails with
// NotAssigned when none exists.
func (s *AssignmentService) Retract(ctx context.Context, projectID, sectionID string) (models.ConflictDiff, error) {
	board := s.board(projectID)
	board.mu.Lock()
	defer board.mu.Unlock()

	existing, ok := board.assignments[sectionID]
	if !ok {
		return models.ConflictDiff{}, appErrors.Clone(appErrors.ErrNotAssigned, "section "+sectionID+" has no active assignment")
	}

	if s.repo != nil {
		if err := s.repo.Delete(ctx, projectID, sectionID); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return models.ConflictDiff{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
		}
	}

	diff := board.index.apply(&existing, nil)
	delete(board.assignments, sectionID)

	s.notifyChanged(projectID)
	return diff, nil
}

// Assignment returns the active assignment for a section, if any.
func (s *AssignmentService) Assignment(projectID, sectionID string) (models.Assignment, bool) {
	board := s.board(projectID)
	board.mu.RLock()
	defer board.mu.RUnlock()
	assignment, ok := board.assignments[sectionID]
	return assignment, ok
}

// ListByProject returns the project's assignments sorted by section.
func (s *AssignmentService) ListByProject(projectID string) []models.Assignment {
	board := s.board(projectID)
	board.mu.RLock()
	defer board.mu.RUnlock()
	result := make([]models.Assignment, 0, len(board.assignments))
	for _, assignment := range board.assignments {
		result = append(result, assignment)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SectionID < result[j].SectionID
	})
	return result
}

// Conflicts returns the project's live conflict set in deterministic
// order.
func (s *AssignmentService) Conflicts(projectID string) []models.Conflict {
	board := s.board(projectID)
	board.mu.RLock()
	defer board.mu.RUnlock()
	return board.index.list()
}

// Counts reports scheduled sections and active conflicts for the
// aggregator.
func (s *AssignmentService) Counts(projectID string) (scheduled, conflicts int) {
	board := s.board(projectID)
	board.mu.RLock()
	defer board.mu.RUnlock()
	return len(board.assignments), board.index.size()
}

// InstructorLoad sums committed weekly slots for an instructor within
// a project.
func (s *AssignmentService) InstructorLoad(projectID, instructorID string) int {
	board := s.board(projectID)
	board.mu.RLock()
	defer board.mu.RUnlock()
	total := 0
	for _, assignment := range board.assignments {
		if assignment.InstructorID == instructorID {
			total += len(assignment.TimeSlotIDs)
		}
	}
	return total
}

func (s *AssignmentService) board(projectID string) *projectBoard {
	s.mu.RLock()
	board, ok := s.boards[projectID]
	s.mu.RUnlock()
	if ok {
		return board
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if board, ok = s.boards[projectID]; ok {
		return board
	}
	board = newProjectBoard()
	s.boards[projectID] = board
	return board
}

func (s *AssignmentService) notifyChanged(projectID string) {
	if s.notifier == nil {
		return
	}
	s.notifier.ScheduleChanged(projectID)
}

func sortedSlotIDs(slotIDs []string) []string {
	result := uniqueSlotIDs(slotIDs)
	sort.Strings(result)
	return result
}
