package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-assessment-api/internal/models"
)

func TestEnrollmentRepositoryListActiveByClassTerm(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "class_term_id", "status", "joined_at", "student_name", "admission_no"}).
		AddRow("enr-1", "student-1", "ct-1", "ACTIVE", time.Now(), "Ada Obi", "ADM-001").
		AddRow("enr-2", "student-2", "ct-1", "ACTIVE", time.Now(), "Bola Ade", "ADM-002")
	mock.ExpectQuery(`FROM student_class_enrollments e\s+JOIN students s`).
		WithArgs("ct-1", models.EnrollmentStatusActive).
		WillReturnRows(rows)

	students, err := repo.ListActiveByClassTerm(context.Background(), "ct-1")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Ada Obi", students[0].StudentName)
	assert.Equal(t, models.EnrollmentStatusActive, students[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListByIDsEmpty(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	enrollments, err := repo.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, enrollments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListByIDs(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(`FROM student_class_enrollments WHERE id = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "class_term_id", "status", "joined_at"}).
			AddRow("enr-1", "student-1", "ct-1", "WITHDRAWN", time.Now()))

	enrollments, err := repo.ListByIDs(context.Background(), []string{"enr-1"})
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, models.EnrollmentStatusWithdrawn, enrollments[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
