package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentRepositoryListByIDs(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "admission_no", "full_name", "gender", "active", "created_at", "updated_at"}).
		AddRow("student-1", "school-1", "ADM-001", "Ada Obi", "F", true, time.Now(), time.Now())
	mock.ExpectQuery(`FROM students WHERE id = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	students, err := repo.ListByIDs(context.Background(), []string{"student-1", "student-404"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "school-1", students[0].SchoolID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
