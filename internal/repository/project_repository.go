package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// ProjectRepository provides persistence for planning projects.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// FindByID loads a project by id.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	const query = `SELECT id, title, term_label, status, members, created_at, updated_at FROM projects WHERE id = $1 LIMIT 1`
	var project models.Project
	if err := r.db.GetContext(ctx, &project, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find project by id: %w", err)
	}
	return &project, nil
}

// Search matches projects by case-insensitive substring over title and
// term label, with optional status filter and pagination.
func (r *ProjectRepository) Search(ctx context.Context, filter models.ProjectFilter) ([]models.Project, *models.Pagination, error) {
	base := `FROM projects WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(term_label) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT id, title, term_label, status, members, created_at, updated_at %s ORDER BY updated_at DESC LIMIT %d OFFSET %d", base, pageSize, offset)
	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, listQuery, args...); err != nil {
		return nil, nil, fmt.Errorf("search projects: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, nil, fmt.Errorf("count projects: %w", err)
	}

	return projects, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// TouchUpdatedAt bumps the project's update timestamp after a schedule
// change. Returns sql.ErrNoRows for unknown projects.
func (r *ProjectRepository) TouchUpdatedAt(ctx context.Context, id string, ts time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE projects SET updated_at = $2 WHERE id = $1`, id, ts)
	if err != nil {
		return fmt.Errorf("touch project: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch project rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateStatus moves a project to a new lifecycle status.
func (r *ProjectRepository) UpdateStatus(ctx context.Context, id string, status models.ProjectStatus, ts time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE projects SET status = $2, updated_at = $3 WHERE id = $1`, id, status, ts)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project status rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
