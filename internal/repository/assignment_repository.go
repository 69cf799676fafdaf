package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// AssignmentRepository persists committed assignments. The in-memory
// boards are the read path; this table exists so state survives
// restarts.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Upsert stores the assignment, replacing any row for the same
// project and section.
func (r *AssignmentRepository) Upsert(ctx context.Context, assignment *models.Assignment) error {
	const query = `INSERT INTO assignments (id, project_id, section_id, subject_id, instructor_id, room_id, time_slot_ids, warnings, created_at, updated_at)
		VALUES (:id, :project_id, :section_id, :subject_id, :instructor_id, :room_id, :time_slot_ids, :warnings, :created_at, :updated_at)
		ON CONFLICT (project_id, section_id) DO UPDATE SET
			id = EXCLUDED.id,
			subject_id = EXCLUDED.subject_id,
			instructor_id = EXCLUDED.instructor_id,
			room_id = EXCLUDED.room_id,
			time_slot_ids = EXCLUDED.time_slot_ids,
			warnings = EXCLUDED.warnings,
			updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("upsert assignment: %w", err)
	}
	return nil
}

// Delete removes the assignment for a section. Returns sql.ErrNoRows
// when nothing was stored.
func (r *AssignmentRepository) Delete(ctx context.Context, projectID, sectionID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE project_id = $1 AND section_id = $2`, projectID, sectionID)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete assignment rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByProject returns a project's assignments ordered by section.
func (r *AssignmentRepository) ListByProject(ctx context.Context, projectID string) ([]models.Assignment, error) {
	const query = `SELECT id, project_id, section_id, subject_id, instructor_id, room_id, time_slot_ids, warnings, created_at, updated_at FROM assignments WHERE project_id = $1 ORDER BY section_id ASC`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, projectID); err != nil {
		return nil, fmt.Errorf("list assignments by project: %w", err)
	}
	return assignments, nil
}

// ListAll returns every stored assignment, for board restore at
// startup.
func (r *AssignmentRepository) ListAll(ctx context.Context) ([]models.Assignment, error) {
	const query = `SELECT id, project_id, section_id, subject_id, instructor_id, room_id, time_slot_ids, warnings, created_at, updated_at FROM assignments ORDER BY project_id ASC, section_id ASC`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query); err != nil {
		return nil, fmt.Errorf("list all assignments: %w", err)
	}
	return assignments, nil
}
