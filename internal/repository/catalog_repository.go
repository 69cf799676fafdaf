package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// CatalogRepository loads the term's reference data. Rows are seeded
// out of band; the API only reads them, once, at startup.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// LoadSnapshot reads all reference tables for the term.
func (r *CatalogRepository) LoadSnapshot(ctx context.Context, termLabel string) (models.CatalogSnapshot, error) {
	snapshot := models.CatalogSnapshot{TermLabel: termLabel}

	if err := r.db.SelectContext(ctx, &snapshot.Subjects, `SELECT id, code, name, weekly_hours, section_count, expected_enrollment, created_at FROM subjects ORDER BY id ASC`); err != nil {
		return snapshot, fmt.Errorf("load subjects: %w", err)
	}
	if err := r.db.SelectContext(ctx, &snapshot.Instructors, `SELECT id, full_name, max_weekly_load, availability, created_at FROM instructors ORDER BY id ASC`); err != nil {
		return snapshot, fmt.Errorf("load instructors: %w", err)
	}
	if err := r.db.SelectContext(ctx, &snapshot.Rooms, `SELECT id, capacity, equipment, availability, created_at FROM rooms ORDER BY id ASC`); err != nil {
		return snapshot, fmt.Errorf("load rooms: %w", err)
	}
	if err := r.db.SelectContext(ctx, &snapshot.TimeSlots, `SELECT id, day, start_at, end_at FROM time_slots ORDER BY day ASC, start_at ASC`); err != nil {
		return snapshot, fmt.Errorf("load time slots: %w", err)
	}

	return snapshot, nil
}
