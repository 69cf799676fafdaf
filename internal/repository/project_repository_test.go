package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func TestProjectRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	rows := sqlmock.NewRows([]string{"id", "title", "term_label", "status", "members", "created_at", "updated_at"}).
		AddRow("p1", "Fall Timetable", "2026-1", "IN_PROGRESS", 4, time.Now(), time.Now())
	mock.ExpectQuery("SELECT .* FROM projects WHERE id = ").
		WithArgs("p1").
		WillReturnRows(rows)

	project, err := repo.FindByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusInProgress, project.Status)

	mock.ExpectQuery("SELECT .* FROM projects WHERE id = ").
		WithArgs("p9").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByID(context.Background(), "p9")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositorySearch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	rows := sqlmock.NewRows([]string{"id", "title", "term_label", "status", "members", "created_at", "updated_at"}).
		AddRow("p1", "Fall Timetable", "2026-1", "IN_PROGRESS", 4, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, term_label, status, members, created_at, updated_at FROM projects WHERE 1=1 AND (LOWER(title) LIKE $1 OR LOWER(term_label) LIKE $1) ORDER BY updated_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("%fall%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM projects WHERE 1=1 AND (LOWER(title) LIKE $1 OR LOWER(term_label) LIKE $1)")).
		WithArgs("%fall%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	projects, pagination, err := repo.Search(context.Background(), models.ProjectFilter{Search: "Fall"})
	require.NoError(t, err)
	assert.Len(t, projects, 1)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryTouchUpdatedAt(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects SET updated_at = $2 WHERE id = $1")).
		WithArgs("p1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.TouchUpdatedAt(context.Background(), "p1", time.Now().UTC()))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects SET updated_at = $2 WHERE id = $1")).
		WithArgs("p9", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.TouchUpdatedAt(context.Background(), "p9", time.Now().UTC())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
